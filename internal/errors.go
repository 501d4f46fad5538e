package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory represents the type of error encountered
type ErrorCategory string

const (
	ErrorCategoryUnsupported     ErrorCategory = "unsupported_media" // Detection said neither image nor video
	ErrorCategoryToolUnavailable ErrorCategory = "tool_unavailable"  // Video tool missing or failed its version probe
	ErrorCategoryExecution       ErrorCategory = "execution_error"   // Process could not be started
	ErrorCategoryProcessing      ErrorCategory = "processing_error"  // Decode/encode failure or non-zero tool exit
	ErrorCategoryIO              ErrorCategory = "io_error"          // File system, permissions, disk space
)

// ErrorSeverity indicates how critical the error is
type ErrorSeverity string

const (
	ErrorSeverityCritical ErrorSeverity = "critical" // System-level issues (disk full, permissions)
	ErrorSeverityError    ErrorSeverity = "error"    // File-level issues (corruption, unreadable)
	ErrorSeverityWarning  ErrorSeverity = "warning"  // Skippable input
)

// ErrBusy is returned when a cleaning request is submitted while another runs.
var ErrBusy = errors.New("another file is being cleaned")

// CleanError is the typed failure of one cleaning request.
type CleanError struct {
	FilePath   string
	Category   ErrorCategory
	Severity   ErrorSeverity
	Err        error
	Detail     string // Diagnostic text, e.g. captured tool stderr
	Suggestion string // User-friendly suggestion to fix

	// PartialOutput is a destination the failed step left on disk.
	PartialOutput string
}

func (e *CleanError) Error() string {
	msg := fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.FilePath)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *CleanError) Unwrap() error { return e.Err }

// Message is the short text shown to the end user.
func (e *CleanError) Message() string {
	switch e.Category {
	case ErrorCategoryUnsupported:
		return "Unsupported file: select an image or a video."
	case ErrorCategoryToolUnavailable:
		return "Video tool not found: place it beside the program, in its subfolder, or on the PATH."
	case ErrorCategoryExecution:
		return "The video tool could not be started."
	case ErrorCategoryProcessing:
		return "The file could not be processed."
	case ErrorCategoryIO:
		return "The cleaned file could not be written."
	}
	return "Unexpected error."
}

func newCleanError(path string, cat ErrorCategory, sev ErrorSeverity, err error, suggestion string) *CleanError {
	return &CleanError{
		FilePath:   path,
		Category:   cat,
		Severity:   sev,
		Err:        err,
		Suggestion: suggestion,
	}
}

func UnsupportedMediaError(path string) *CleanError {
	return newCleanError(path, ErrorCategoryUnsupported, ErrorSeverityWarning,
		errors.New("unsupported media type"),
		"Only images (jpg, png, webp, bmp, tiff) and videos (mp4, mov, m4v, mkv, avi, webm) are accepted")
}

func ToolUnavailableError(path, tool string, err error) *CleanError {
	if err == nil {
		err = fmt.Errorf("%s not available", tool)
	}
	return newCleanError(path, ErrorCategoryToolUnavailable, ErrorSeverityCritical, err,
		fmt.Sprintf("Install %s or place it beside the program (or in its %q subfolder)", tool, tool))
}

func ExecutionError(path string, err error) *CleanError {
	return newCleanError(path, ErrorCategoryExecution, ErrorSeverityCritical, err,
		"Check that the video tool is executable and not blocked")
}

func ProcessingError(path string, err error, detail string) *CleanError {
	e := newCleanError(path, ErrorCategoryProcessing, ErrorSeverityError, err,
		"The file may be corrupted or in a format the tool cannot copy")
	e.Detail = strings.TrimSpace(detail)
	return e
}

// CategorizeIOError classifies a file system error by its message.
func CategorizeIOError(filePath string, err error) *CleanError {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	e := newCleanError(filePath, ErrorCategoryIO, ErrorSeverityError, err, "")

	switch {
	case strings.Contains(errStr, "no space left"):
		e.Severity = ErrorSeverityCritical
		e.Suggestion = "Free up disk space on the destination drive and retry"
	case strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "access is denied"):
		e.Severity = ErrorSeverityCritical
		e.Suggestion = "Check write permissions on the destination folder"
	case strings.Contains(errStr, "read-only file system"):
		e.Severity = ErrorSeverityCritical
		e.Suggestion = "Destination filesystem is read-only - check mount options"
	case strings.Contains(errStr, "no such file"):
		e.Suggestion = "Source file disappeared - check if an external drive was disconnected"
	default:
		e.Suggestion = "Unexpected I/O error - check logs for details"
	}

	return e
}

func categoryOf(err error) (ErrorCategory, bool) {
	var e *CleanError
	if errors.As(err, &e) {
		return e.Category, true
	}
	return "", false
}

func isCategory(err error, cat ErrorCategory) bool {
	c, ok := categoryOf(err)
	return ok && c == cat
}

func IsUnsupported(err error) bool     { return isCategory(err, ErrorCategoryUnsupported) }
func IsToolUnavailable(err error) bool { return isCategory(err, ErrorCategoryToolUnavailable) }
func IsExecution(err error) bool       { return isCategory(err, ErrorCategoryExecution) }
func IsProcessing(err error) bool      { return isCategory(err, ErrorCategoryProcessing) }
func IsIO(err error) bool              { return isCategory(err, ErrorCategoryIO) }

// ErrorStats tracks failures across a multi-file run
type ErrorStats struct {
	Total       int
	Critical    int
	Errors      int
	Warnings    int
	ByCategory  map[ErrorCategory]int
	LastErrors  []*CleanError // Last 5 errors for quick diagnosis
	Consecutive int           // Consecutive errors (for circuit breaker)
}

func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ByCategory: make(map[ErrorCategory]int),
		LastErrors: make([]*CleanError, 0, 5),
	}
}

func (s *ErrorStats) Add(err *CleanError) {
	s.Total++
	s.Consecutive++
	s.ByCategory[err.Category]++

	switch err.Severity {
	case ErrorSeverityCritical:
		s.Critical++
	case ErrorSeverityError:
		s.Errors++
	case ErrorSeverityWarning:
		s.Warnings++
	}

	// Keep last 5 errors
	if len(s.LastErrors) >= 5 {
		s.LastErrors = s.LastErrors[1:]
	}
	s.LastErrors = append(s.LastErrors, err)
}

func (s *ErrorStats) ResetConsecutive() {
	s.Consecutive = 0
}

// ShouldAbort returns true if the run should stop based on error patterns
func (s *ErrorStats) ShouldAbort() (bool, string) {
	if s.Critical > 0 {
		return true, "Critical error detected - aborting, remaining files would fail the same way"
	}

	if s.Consecutive >= 10 {
		return true, "10 consecutive errors detected - likely systemic issue (disk full, permissions, etc.)"
	}

	return false, ""
}

// GenerateReport creates a human-readable error report
func (s *ErrorStats) GenerateReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("\nCleaning encountered %d errors:\n\n", s.Total))

	if s.Critical > 0 {
		report.WriteString(fmt.Sprintf("  Critical: %d (system-level issues)\n", s.Critical))
	}
	if s.Errors > 0 {
		report.WriteString(fmt.Sprintf("  Errors:   %d (file-level issues)\n", s.Errors))
	}
	if s.Warnings > 0 {
		report.WriteString(fmt.Sprintf("  Warnings: %d (skipped files)\n", s.Warnings))
	}

	report.WriteString("\nError categories:\n")
	for cat, count := range s.ByCategory {
		report.WriteString(fmt.Sprintf("  - %s: %d\n", cat, count))
	}

	report.WriteString("\nRecent errors:\n")
	for i, err := range s.LastErrors {
		report.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, err.FilePath))
		report.WriteString(fmt.Sprintf("   Category: %s | Severity: %s\n", err.Category, err.Severity))
		report.WriteString(fmt.Sprintf("   Error: %v\n", err.Err))
		if err.Suggestion != "" {
			report.WriteString(fmt.Sprintf("   Suggestion: %s\n", err.Suggestion))
		}
	}

	return report.String()
}
