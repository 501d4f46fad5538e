package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"metaclean/internal"
)

var (
	outDirFlag        string
	removePartialFlag bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file]...",
	Short: "Write metadata-free copies of the given files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, logger, err := loadRuntime(func(c *internal.Config) {
			if cmd.Flags().Changed("out-dir") {
				c.OutputDir = outDirFlag
			}
			if cmd.Flags().Changed("remove-partial") {
				c.RemovePartial = removePartialFlag
			}
		})
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		orch := internal.NewOrchestrator(conf, internal.WithLogger(logger))

		failed := 0
		for _, path := range args {
			out, err := cleanOne(ctx, orch, path)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), out)
			if !out.OK() {
				failed++
			}
			if ctx.Err() != nil {
				break
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be cleaned", failed, len(args))
		}
		return nil
	},
}

// cleanOne runs the request in the background and waits for it. An
// interrupt stops the loop after the running request, which is never
// abandoned halfway.
func cleanOne(ctx context.Context, orch *internal.Orchestrator, path string) (internal.Outcome, error) {
	done := make(chan internal.Outcome, 1)
	if err := orch.CleanAsync(ctx, path, func(out internal.Outcome) { done <- out }); err != nil {
		return internal.Outcome{}, err
	}

	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "Interrupted, waiting for %s to finish...\n", path)
		return <-done, nil
	}
}

func init() {
	cleanCmd.Flags().StringVar(&outDirFlag, "out-dir", "", "Write cleaned files here instead of beside the originals")
	cleanCmd.Flags().BoolVar(&removePartialFlag, "remove-partial", false, "Delete a partially written video after a failed conversion")

	rootCmd.AddCommand(cleanCmd)
}
