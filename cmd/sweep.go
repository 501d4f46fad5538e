package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"metaclean/internal"
)

var (
	recursiveFlag bool
	dryRunFlag    bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [folder]",
	Short: "Clean every image and video in a folder",
	Long: `Clean every image and video found in a folder, one after another.
Files already carrying the output prefix are skipped, so a folder can be swept
again after new files arrive. The sweep stops on a critical error or after ten
consecutive failures.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]

		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", folder)
		}

		conf, logger, err := loadRuntime(nil)
		if err != nil {
			return err
		}
		defer logger.Close()

		fs := afero.NewOsFs()
		orch := internal.NewOrchestrator(conf, internal.WithFs(fs), internal.WithLogger(logger))

		files, err := internal.ScanMediaFiles(fs, folder, orch.Detector(), conf.OutputPrefix, recursiveFlag)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Found %d media files\n", len(files))
		if dryRunFlag {
			fmt.Fprintln(w, "Dry run mode: no files will be cleaned")
			for _, f := range files {
				fmt.Fprintf(w, "  %s (%s)\n", f, orch.Detector().Detect(f).Kind)
			}
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stats := internal.NewErrorStats()
		cleaned := 0
		for _, f := range files {
			if ctx.Err() != nil {
				fmt.Fprintln(w, "Interrupted")
				break
			}

			out := orch.Clean(ctx, f)
			printOutcome(w, out)
			recordOutcome(stats, out)
			if out.OK() {
				cleaned++
			}

			if abort, reason := stats.ShouldAbort(); abort {
				logger.Error("sweep aborted: %s", reason)
				fmt.Fprintln(w, stats.GenerateReport())
				return fmt.Errorf("sweep aborted: %s", reason)
			}
		}

		fmt.Fprintf(w, "Cleaned %d of %d files\n", cleaned, len(files))
		if stats.Total > 0 {
			fmt.Fprintln(w, stats.GenerateReport())
			return fmt.Errorf("%d files could not be cleaned", stats.Total)
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVarP(&recursiveFlag, "recursive", "r", true, "Descend into subfolders")
	sweepCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "List the files without cleaning them")

	rootCmd.AddCommand(sweepCmd)
}
