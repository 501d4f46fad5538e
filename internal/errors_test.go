package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategorizeIOError_DiskSpace(t *testing.T) {
	err := errors.New("write failed: no space left on device")
	cleanErr := CategorizeIOError("/test/file.jpg", err)

	if cleanErr.Category != ErrorCategoryIO {
		t.Errorf("Expected IO category, got %s", cleanErr.Category)
	}
	if cleanErr.Severity != ErrorSeverityCritical {
		t.Errorf("Expected critical severity, got %s", cleanErr.Severity)
	}
	if !strings.Contains(cleanErr.Suggestion, "disk space") {
		t.Errorf("Expected disk space suggestion, got: %s", cleanErr.Suggestion)
	}
}

func TestCategorizeIOError_Permission(t *testing.T) {
	err := errors.New("open /out/file.jpg: permission denied")
	cleanErr := CategorizeIOError("/test/file.jpg", err)

	if cleanErr.Category != ErrorCategoryIO {
		t.Errorf("Expected IO category, got %s", cleanErr.Category)
	}
	if cleanErr.Severity != ErrorSeverityCritical {
		t.Errorf("Expected critical severity, got %s", cleanErr.Severity)
	}
}

func TestCategorizeIOError_MissingSource(t *testing.T) {
	err := errors.New("stat /in/file.jpg: no such file or directory")
	cleanErr := CategorizeIOError("/in/file.jpg", err)

	if cleanErr.Severity != ErrorSeverityError {
		t.Errorf("Expected error severity, got %s", cleanErr.Severity)
	}
	if !strings.Contains(cleanErr.Suggestion, "disappeared") {
		t.Errorf("Unexpected suggestion: %s", cleanErr.Suggestion)
	}
}

func TestCategorizeIOError_Nil(t *testing.T) {
	if CategorizeIOError("/x", nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestCategoryHelpers(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"unsupported", UnsupportedMediaError("/a.txt"), IsUnsupported},
		{"tool", ToolUnavailableError("/a.mp4", "ffmpeg", nil), IsToolUnavailable},
		{"execution", ExecutionError("/a.mp4", cause), IsExecution},
		{"processing", ProcessingError("/a.jpg", cause, "bad data"), IsProcessing},
		{"io", CategorizeIOError("/a.jpg", cause), IsIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("helper did not match %v", tt.err)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("helper did not match wrapped %v", wrapped)
			}
			if IsUnsupported(tt.err) && tt.name != "unsupported" {
				t.Errorf("%s error matched IsUnsupported", tt.name)
			}
		})
	}

	if IsIO(cause) {
		t.Error("plain error must not match a category")
	}
}

func TestCleanError_UnwrapAndDetail(t *testing.T) {
	cause := errors.New("exit status 1")
	err := ProcessingError("/v.mp4", cause, "  Invalid data found when processing input\n")

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
	if err.Detail != "Invalid data found when processing input" {
		t.Errorf("Detail not trimmed: %q", err.Detail)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("Error() should carry the detail, got %q", err.Error())
	}
	if err.Message() == "" || strings.Contains(err.Message(), "Invalid data") {
		t.Errorf("Message should be short and free of tool output, got %q", err.Message())
	}
}

func TestErrorStats_ShouldAbort_Critical(t *testing.T) {
	stats := NewErrorStats()

	// Add a critical error
	criticalErr := &CleanError{
		FilePath: "/test/file.jpg",
		Category: ErrorCategoryIO,
		Severity: ErrorSeverityCritical,
	}
	stats.Add(criticalErr)

	shouldAbort, reason := stats.ShouldAbort()
	if !shouldAbort {
		t.Error("Expected abort on critical error")
	}
	if !strings.Contains(reason, "Critical") {
		t.Errorf("Expected 'Critical' in reason, got: %s", reason)
	}
}

func TestErrorStats_ShouldAbort_ConsecutiveErrors(t *testing.T) {
	stats := NewErrorStats()

	for i := 0; i < 9; i++ {
		stats.Add(ProcessingError(fmt.Sprintf("/test/file%d.jpg", i), errors.New("decode"), ""))
	}
	if abort, _ := stats.ShouldAbort(); abort {
		t.Fatal("Should not abort after 9 errors")
	}

	stats.Add(ProcessingError("/test/file9.jpg", errors.New("decode"), ""))
	abort, reason := stats.ShouldAbort()
	if !abort {
		t.Fatal("Expected abort after 10 consecutive errors")
	}
	if !strings.Contains(reason, "consecutive") {
		t.Errorf("Expected 'consecutive' in reason, got: %s", reason)
	}
}

func TestErrorStats_ResetConsecutive(t *testing.T) {
	stats := NewErrorStats()

	for i := 0; i < 5; i++ {
		stats.Add(ProcessingError("/test/file.jpg", errors.New("decode"), ""))
	}
	stats.ResetConsecutive()
	for i := 0; i < 5; i++ {
		stats.Add(ProcessingError("/test/file.jpg", errors.New("decode"), ""))
	}

	if abort, _ := stats.ShouldAbort(); abort {
		t.Error("Should not abort when a success broke the run")
	}
	if stats.Total != 10 {
		t.Errorf("Expected total 10, got %d", stats.Total)
	}
}

func TestErrorStats_LastErrorsKeepsFive(t *testing.T) {
	stats := NewErrorStats()
	for i := 0; i < 7; i++ {
		stats.Add(UnsupportedMediaError(fmt.Sprintf("/f%d.txt", i)))
	}

	if len(stats.LastErrors) != 5 {
		t.Fatalf("Expected 5 recent errors, got %d", len(stats.LastErrors))
	}
	if stats.LastErrors[0].FilePath != "/f2.txt" {
		t.Errorf("Expected oldest kept to be /f2.txt, got %s", stats.LastErrors[0].FilePath)
	}
	if stats.Warnings != 7 {
		t.Errorf("Expected 7 warnings, got %d", stats.Warnings)
	}
}

func TestErrorStats_GenerateReport(t *testing.T) {
	stats := NewErrorStats()
	stats.Add(CategorizeIOError("/out/a.jpg", errors.New("no space left on device")))
	stats.Add(UnsupportedMediaError("/in/b.txt"))

	report := stats.GenerateReport()
	for _, want := range []string{"Cleaning encountered 2 errors", "Critical: 1", "Warnings: 1", "io_error", "unsupported_media", "/out/a.jpg", "Suggestion:"} {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q:\n%s", want, report)
		}
	}
}
