package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// ToolLocator resolves the video tool, preferring a copy shipped beside the
// program over the inherited search path.
type ToolLocator struct {
	fs         afero.Fs
	programDir string
	tool       string
	subdir     string
	goos       string
}

// NewToolLocator uses cfg.ToolDir as the program directory, or the directory
// of the running executable when it is empty.
func NewToolLocator(fs afero.Fs, cfg *Config) *ToolLocator {
	dir := cfg.ToolDir
	if dir == "" {
		dir = ProgramDir()
	}
	return &ToolLocator{
		fs:         fs,
		programDir: dir,
		tool:       cfg.ToolName,
		subdir:     cfg.ToolSubdir,
		goos:       runtime.GOOS,
	}
}

// ProgramDir is the directory holding the running executable.
func ProgramDir() string {
	exe, err := os.Executable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	abs, err := filepath.Abs(os.Args[0])
	if err != nil {
		return "."
	}
	return filepath.Dir(abs)
}

func (l *ToolLocator) binaryName() string {
	if l.goos == "windows" {
		return l.tool + ".exe"
	}
	return l.tool
}

// Candidates lists the bundled locations in lookup order.
func (l *ToolLocator) Candidates() []string {
	bin := l.binaryName()
	out := []string{filepath.Join(l.programDir, bin)}
	if l.subdir != "" {
		out = append(out, filepath.Join(l.programDir, l.subdir, bin))
	}
	return out
}

// Locate returns the first bundled candidate that exists as a regular file,
// else the bare tool name for the search path.
func (l *ToolLocator) Locate() string {
	for _, c := range l.Candidates() {
		info, err := l.fs.Stat(c)
		if err == nil && !info.IsDir() {
			return c
		}
	}
	return l.tool
}

// ToolResult is what one external process produced.
type ToolResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an external command. A non-zero exit is reported in the
// result; err is set only when the process could not be started.
type Runner interface {
	Run(ctx context.Context, argv []string) (*ToolResult, error)
}

// ExecRunner runs commands with os/exec. Stdin is the null device, output is
// captured, and on Windows no console window is created.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv []string) (*ToolResult, error) {
	if len(argv) == 0 {
		return nil, ExecutionError("", errors.New("empty argument list"))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureProcess(cmd)

	err := cmd.Run()
	res := &ToolResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, ExecutionError(argv[0], fmt.Errorf("failed to start %s: %w", argv[0], err))
	}
	return res, nil
}
