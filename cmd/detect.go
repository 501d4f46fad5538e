package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"metaclean/internal"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file]...",
	Short: "Show how files would be classified",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := internal.LoadConfig(configFlag)
		if err != nil {
			return err
		}

		detector := internal.NewDetector(afero.NewOsFs(), conf)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tKIND\tMIME\tEXT\tDECIDED BY")
		for _, path := range args {
			res := detector.Detect(path)
			by := "extension"
			if res.ByContent {
				by = "content"
			}
			mime := res.MIME
			if mime == "" {
				mime = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", path, res.Kind, mime, res.Ext, by)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
