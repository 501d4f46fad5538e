package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"metaclean/internal"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the video tool can be found and started",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := loadRuntime(nil)
		if err != nil {
			return err
		}
		defer logger.Close()

		fs := afero.NewOsFs()
		video := internal.NewVideoStripper(fs, internal.ExecRunner{}, conf, logger)

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Bundled locations:")
		for _, c := range video.Locator.Candidates() {
			state := "missing"
			if info, err := fs.Stat(c); err == nil && !info.IsDir() {
				state = "found"
			}
			fmt.Fprintf(w, "  %s (%s)\n", c, state)
		}
		fmt.Fprintf(w, "Resolved: %s\n", video.Locator.Locate())

		status, err := video.Probe(cmd.Context())
		if err != nil {
			failColor.Fprint(w, "✗ ")
			fmt.Fprintf(w, "%s unavailable: videos cannot be cleaned\n", conf.ToolName)
			return err
		}
		okColor.Fprint(w, "✓ ")
		fmt.Fprintf(w, "%s\n", status.Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
