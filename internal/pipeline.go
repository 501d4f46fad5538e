package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/afero"
)

// State is one step of a cleaning request.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateValidated
	StateRejected
	StateSanitizing
	StateStripping
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateValidated:
		return "validated"
	case StateRejected:
		return "rejected"
	case StateSanitizing:
		return "sanitizing"
	case StateStripping:
		return "stripping"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateDone || s == StateFailed
}

// maxNameAttempts bounds the redraws when a generated name is already taken.
const maxNameAttempts = 8

// OutputDescriptor is where one request will write.
type OutputDescriptor struct {
	Source      string
	Destination string
	Kind        MediaKind
}

// Outcome is the single result value of a cleaning request.
type Outcome struct {
	Source    string
	Output    string // absolute path of the cleaned file, set when State is StateDone
	Kind      MediaKind
	Detection DetectionResult
	State     State
	Size      int64
	Err       error
}

func (o Outcome) OK() bool {
	return o.State == StateDone && o.Err == nil
}

// Message is the short text for the end user. Tool diagnostics stay in Err.
func (o Outcome) Message() string {
	if o.OK() {
		return "Cleaned file saved to " + o.Output
	}
	if errors.Is(o.Err, ErrBusy) {
		return "Another file is being cleaned, try again when it finishes."
	}
	var ce *CleanError
	if errors.As(o.Err, &ce) {
		msg := ce.Message()
		if ce.PartialOutput != "" {
			msg += " A partial file was left at " + ce.PartialOutput + "."
		}
		return msg
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return "Cleaning did not finish."
}

// StateObserver is told about every state a request enters.
type StateObserver interface {
	StateChanged(path string, s State)
}

// ObserverFunc adapts a function to StateObserver.
type ObserverFunc func(path string, s State)

func (f ObserverFunc) StateChanged(path string, s State) { f(path, s) }

// Orchestrator runs cleaning requests one at a time.
type Orchestrator struct {
	cfg      *Config
	fs       afero.Fs
	runner   Runner
	tokens   TokenSource
	detector *Detector
	images   Stripper
	videos   Stripper
	observer StateObserver
	log      *Logger

	busy atomic.Bool
}

type Option func(*Orchestrator)

func WithFs(fsys afero.Fs) Option           { return func(o *Orchestrator) { o.fs = fsys } }
func WithRunner(r Runner) Option            { return func(o *Orchestrator) { o.runner = r } }
func WithTokenSource(t TokenSource) Option  { return func(o *Orchestrator) { o.tokens = t } }
func WithObserver(obs StateObserver) Option { return func(o *Orchestrator) { o.observer = obs } }
func WithLogger(l *Logger) Option           { return func(o *Orchestrator) { o.log = l } }
func WithImageStripper(s Stripper) Option   { return func(o *Orchestrator) { o.images = s } }
func WithVideoStripper(s Stripper) Option   { return func(o *Orchestrator) { o.videos = s } }

// NewOrchestrator wires the default collaborators (OS filesystem, os/exec
// runner, crypto/rand tokens) unless options replace them.
func NewOrchestrator(cfg *Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.runner == nil {
		o.runner = ExecRunner{}
	}
	if o.tokens == nil {
		o.tokens = NewTokenSource(nil)
	}
	if o.images == nil {
		images := NewImageStripper(o.fs, cfg)
		images.Log = o.log
		o.images = images
	}
	if o.videos == nil {
		o.videos = NewVideoStripper(o.fs, o.runner, cfg, o.log)
	}
	o.detector = NewDetector(o.fs, cfg)
	return o
}

// Detector exposes the classifier the orchestrator uses.
func (o *Orchestrator) Detector() *Detector { return o.detector }

// Busy reports whether a request is running.
func (o *Orchestrator) Busy() bool { return o.busy.Load() }

// Clean runs one request synchronously. It returns an ErrBusy outcome when
// another request is still running.
func (o *Orchestrator) Clean(ctx context.Context, path string) Outcome {
	if !o.busy.CompareAndSwap(false, true) {
		return Outcome{Source: path, State: StateFailed, Err: ErrBusy}
	}
	defer o.busy.Store(false)
	return o.clean(ctx, path)
}

// CleanAsync starts the request on its own goroutine and hands the outcome to
// done. The orchestrator is free again before done is called.
func (o *Orchestrator) CleanAsync(ctx context.Context, path string, done func(Outcome)) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	go func() {
		out := o.clean(ctx, path)
		o.busy.Store(false)
		if done != nil {
			done(out)
		}
	}()
	return nil
}

func (o *Orchestrator) clean(ctx context.Context, path string) Outcome {
	out := Outcome{Source: path}
	o.enter(&out, StateIdle)

	abs, err := filepath.Abs(path)
	if err != nil {
		return o.fail(&out, CategorizeIOError(path, err))
	}
	out.Source = abs

	o.enter(&out, StateDetecting)
	info, err := o.fs.Stat(abs)
	if err != nil {
		return o.fail(&out, CategorizeIOError(abs, err))
	}
	if info.IsDir() {
		return o.reject(&out, UnsupportedMediaError(abs))
	}

	det := o.detector.Detect(abs)
	out.Detection = det
	out.Kind = det.Kind
	o.log.Debug("%s detected as %s (mime=%q ext=%q content=%t)", abs, det.Kind, det.MIME, det.Ext, det.ByContent)
	if det.Kind == KindUnsupported {
		return o.reject(&out, UnsupportedMediaError(abs))
	}
	o.enter(&out, StateValidated)

	o.enter(&out, StateSanitizing)
	desc, err := o.Plan(abs, det)
	if err != nil {
		return o.fail(&out, err)
	}

	if err := ctx.Err(); err != nil {
		return o.fail(&out, fmt.Errorf("cleaning cancelled before start: %w", err))
	}

	o.enter(&out, StateStripping)
	stripper := o.images
	if desc.Kind == KindVideo {
		stripper = o.videos
	}
	written, err := stripper.Strip(ctx, desc.Source, desc.Destination)
	if err != nil {
		return o.fail(&out, err)
	}

	out.Output = written
	if fi, err := o.fs.Stat(written); err == nil {
		out.Size = fi.Size()
	}
	o.enter(&out, StateDone)
	o.log.Info("cleaned %s -> %s", abs, written)
	return out
}

// Plan computes the destination for path, creating the output directory.
// A name that already exists is redrawn with a fresh token.
func (o *Orchestrator) Plan(path string, det DetectionResult) (*OutputDescriptor, error) {
	dir := o.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, CategorizeIOError(path, err)
	}
	if err := o.fs.MkdirAll(dir, 0755); err != nil {
		return nil, CategorizeIOError(dir, fmt.Errorf("failed to create output directory: %w", err))
	}

	name := Sanitize(filepath.Base(path), o.cfg.PlaceholderName)

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		token, err := o.tokens.NewToken()
		if err != nil {
			return nil, ProcessingError(path, err, "")
		}
		dst := filepath.Join(dir, OutputName(o.cfg.OutputPrefix, token, name))
		if dst == path {
			continue
		}
		if _, err := o.fs.Stat(dst); errors.Is(err, fs.ErrNotExist) {
			return &OutputDescriptor{Source: path, Destination: dst, Kind: det.Kind}, nil
		}
		o.log.Debug("output name %s taken, drawing a new token", dst)
	}
	return nil, CategorizeIOError(path, fmt.Errorf("no free output name in %s after %d attempts", dir, maxNameAttempts))
}

func (o *Orchestrator) enter(out *Outcome, s State) {
	out.State = s
	o.log.Debug("%s: %s", out.Source, s)
	if o.observer != nil {
		o.observer.StateChanged(out.Source, s)
	}
}

func (o *Orchestrator) reject(out *Outcome, err error) Outcome {
	out.Err = err
	o.enter(out, StateRejected)
	o.log.Info("rejected %s: %v", out.Source, err)
	return *out
}

func (o *Orchestrator) fail(out *Outcome, err error) Outcome {
	out.Err = err
	o.enter(out, StateFailed)
	o.log.Error("failed to clean %s: %v", out.Source, err)
	return *out
}
