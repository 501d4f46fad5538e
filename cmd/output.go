package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"metaclean/internal"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	skipColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

// printOutcome writes one line per request, plus the suggestion on failure.
func printOutcome(w io.Writer, out internal.Outcome) {
	switch {
	case out.OK():
		okColor.Fprint(w, "✓ ")
		fmt.Fprintf(w, "%s -> %s ", out.Source, out.Output)
		dimColor.Fprintf(w, "(%s, %s)\n", out.Kind, humanize.Bytes(uint64(out.Size)))

	case out.State == internal.StateRejected:
		skipColor.Fprint(w, "- ")
		fmt.Fprintf(w, "%s: %s\n", out.Source, out.Message())

	default:
		failColor.Fprint(w, "✗ ")
		fmt.Fprintf(w, "%s: %s\n", out.Source, out.Message())
		var ce *internal.CleanError
		if errors.As(out.Err, &ce) && ce.Suggestion != "" {
			dimColor.Fprintf(w, "  %s\n", ce.Suggestion)
		}
	}
}

// recordOutcome feeds failures into stats and resets the consecutive count
// on success.
func recordOutcome(stats *internal.ErrorStats, out internal.Outcome) {
	if out.OK() {
		stats.ResetConsecutive()
		return
	}
	var ce *internal.CleanError
	if errors.As(out.Err, &ce) {
		stats.Add(ce)
		return
	}
	stats.Add(&internal.CleanError{
		FilePath: out.Source,
		Category: internal.ErrorCategoryProcessing,
		Severity: internal.ErrorSeverityError,
		Err:      out.Err,
	})
}
