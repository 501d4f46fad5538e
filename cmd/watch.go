package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"metaclean/internal"
)

var (
	watchRecursiveFlag bool
	settleFlag         time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Clean images and videos as they appear in a folder",
	Args:  cobra.ExactArgs(1),
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

		orch := internal.NewOrchestrator(conf, internal.WithLogger(logger))
		accept := func(path string) bool { return !internal.IsCleanedName(path, conf.OutputPrefix) }

		watcher, err := internal.NewWatcher(folder, watchRecursiveFlag, settleFlag, accept)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", folder, err)
		}
		defer watcher.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Watching %s (Ctrl-C to stop)\n", folder)

		stats := internal.NewErrorStats()
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(w, "Stopped")
				if stats.Total > 0 {
					fmt.Fprintln(w, stats.GenerateReport())
				}
				return nil

			case err := <-watcher.Errors():
				logger.Warn("watcher error: %v", err)

			case ev := <-watcher.Events():
				if ev.Type != internal.EventCreate {
					continue
				}
				det := orch.Detector().Detect(ev.Path)
				if det.Kind == internal.KindUnsupported {
					logger.Debug("ignoring %s: not an image or video", ev.Path)
					continue
				}

				out := orch.Clean(ctx, ev.Path)
				printOutcome(w, out)
				recordOutcome(stats, out)
				if abort, reason := stats.ShouldAbort(); abort {
					logger.Error("watch stopped: %s", reason)
					fmt.Fprintln(w, stats.GenerateReport())
					return fmt.Errorf("watch stopped: %s", reason)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().BoolVarP(&watchRecursiveFlag, "recursive", "r", false, "Also watch subfolders")
	watchCmd.Flags().DurationVar(&settleFlag, "settle", internal.DefaultSettle, "How long a new file must stay unchanged before it is cleaned")

	rootCmd.AddCommand(watchCmd)
}
