package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"metaclean/internal"
)

var (
	useExifTool  bool
	exifToolPath string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "List the metadata tags found in a file",
	Long: `List the EXIF tags found in a file. With --exiftool every tag the exiftool
binary reports is listed instead, which also covers XMP, IPTC and container
metadata. Useful to confirm that a cleaned file carries nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		var (
			tags []internal.Tag
			err  error
		)
		if useExifTool {
			tags, err = internal.InspectExiftool(exifToolPath, path)
		} else {
			tags, err = internal.InspectEXIF(afero.NewOsFs(), path)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(tags) == 0 {
			okColor.Fprint(w, "✓ ")
			fmt.Fprintf(w, "%s: no metadata tags found\n", path)
			return nil
		}

		skipColor.Fprintf(w, "%s: %d tags\n", path, len(tags))
		for _, t := range tags {
			fmt.Fprintf(w, "  %s: %s\n", t.Name, t.Value)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&useExifTool, "exiftool", false, "Use the exiftool binary for a full listing")
	inspectCmd.Flags().StringVar(&exifToolPath, "exiftool-path", "", "Path to the exiftool binary (default: search PATH)")

	rootCmd.AddCommand(inspectCmd)
}
