package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp"
)

// Stripper writes a metadata-free copy of src. It returns the path written.
type Stripper interface {
	Strip(ctx context.Context, src, dst string) (string, error)
}

// ImageStripper re-encodes pixel data only. No EXIF, XMP, ICC or text chunk
// of the source survives, since none of the encoders write one.
type ImageStripper struct {
	Fs         afero.Fs
	Quality    int
	AutoOrient bool
	Log        *Logger
}

func NewImageStripper(fs afero.Fs, cfg *Config) *ImageStripper {
	return &ImageStripper{Fs: fs, Quality: cfg.JPEGQuality, AutoOrient: cfg.AutoOrient}
}

// encoders maps image.DecodeConfig format names to the format written.
// imaging cannot write webp; it goes through nativewebp (lossless VP8L,
// no VP8X container) and its pixels are normalized as for PNG.
var encoders = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"tiff": imaging.TIFF,
	"bmp":  imaging.BMP,
	"webp": imaging.PNG,
}

// extFormats is the format a destination extension suggests.
var extFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".tif":  "tiff",
	".tiff": "tiff",
	".bmp":  "bmp",
	".webp": "webp",
}

func (s *ImageStripper) Strip(ctx context.Context, src, dst string) (string, error) {
	data, err := afero.ReadFile(s.Fs, src)
	if err != nil {
		return "", CategorizeIOError(src, err)
	}

	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ProcessingError(src, fmt.Errorf("failed to decode image: %w", err), "")
	}
	format, ok := encoders[name]
	if !ok {
		return "", ProcessingError(src, fmt.Errorf("no encoder for %s images", name), "")
	}
	if want, ok := extFormats[lowerExt(dst)]; ok && want != name {
		s.Log.Warn("%s holds %s data under a %s name, writing %s", src, name, lowerExt(dst), name)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(s.AutoOrient))
	if err != nil {
		return "", ProcessingError(src, fmt.Errorf("failed to decode image: %w", err), "")
	}
	img = normalizeColor(img, format)

	if err := s.writeAtomic(dst, img, name, format); err != nil {
		return "", err
	}
	return dst, nil
}

// writeAtomic encodes into a temp file beside dst and renames it into place,
// so a failed encode never leaves a partial destination.
func (s *ImageStripper) writeAtomic(dst string, img image.Image, name string, format imaging.Format) error {
	tmp, err := afero.TempFile(s.Fs, filepath.Dir(dst), ".metaclean-*.tmp")
	if err != nil {
		return CategorizeIOError(dst, err)
	}
	tmpName := tmp.Name()

	if err := s.encode(tmp, img, name, format); err != nil {
		tmp.Close()
		s.Fs.Remove(tmpName)
		return classifyWriteError(dst, fmt.Errorf("failed to encode %s: %w", name, err))
	}
	if err := tmp.Close(); err != nil {
		s.Fs.Remove(tmpName)
		return CategorizeIOError(dst, err)
	}
	if err := s.Fs.Rename(tmpName, dst); err != nil {
		s.Fs.Remove(tmpName)
		return CategorizeIOError(dst, err)
	}
	return nil
}

func (s *ImageStripper) encode(w io.Writer, img image.Image, name string, format imaging.Format) error {
	if name != "webp" {
		return imaging.Encode(w, img, format, imaging.JPEGQuality(s.Quality))
	}
	// nativewebp ignores write errors, so buffer and write once
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// classifyWriteError keeps disk problems as I/O errors and everything else
// as a processing failure of the encoder.
func classifyWriteError(path string, err error) *CleanError {
	var pathErr *os.PathError
	msg := strings.ToLower(err.Error())
	if errors.As(err, &pathErr) || strings.Contains(msg, "no space left") || strings.Contains(msg, "permission denied") {
		return CategorizeIOError(path, err)
	}
	return ProcessingError(path, err, "")
}

// normalizeColor drops palettes and, for JPEG, flattens alpha onto white.
// GIF keeps its palette since the encoder needs one anyway.
func normalizeColor(img image.Image, format imaging.Format) image.Image {
	if format == imaging.GIF {
		return img
	}
	if format == imaging.JPEG && !isOpaque(img) {
		flat := imaging.Clone(img)
		bg := imaging.New(flat.Bounds().Dx(), flat.Bounds().Dy(), color.White)
		return imaging.Overlay(bg, flat, image.Pt(0, 0), 1.0)
	}
	if _, ok := img.(*image.Paletted); ok {
		return imaging.Clone(img)
	}
	return img
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// VideoArgs is the stream-copy invocation: overwrite, no prompts or banner,
// errors only, drop global metadata and chapters, copy every stream.
func VideoArgs(tool, src, dst string) []string {
	return []string{
		tool,
		"-y",
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-map_metadata", "-1",
		"-map_chapters", "-1",
		"-c", "copy",
		dst,
	}
}

// VideoStripper copies audio/video streams through the external tool.
type VideoStripper struct {
	Fs            afero.Fs
	Runner        Runner
	Locator       *ToolLocator
	Marker        string
	ProbeTimeout  time.Duration
	RemovePartial bool
	Log           *Logger
}

func NewVideoStripper(fs afero.Fs, runner Runner, cfg *Config, log *Logger) *VideoStripper {
	return &VideoStripper{
		Fs:            fs,
		Runner:        runner,
		Locator:       NewToolLocator(fs, cfg),
		Marker:        cfg.VersionMarker,
		ProbeTimeout:  cfg.ProbeTimeout,
		RemovePartial: cfg.RemovePartial,
		Log:           log,
	}
}

// ToolStatus is the result of a version probe.
type ToolStatus struct {
	Path    string
	Version string // first line of the probe output
}

// Probe resolves the tool and runs "<tool> -version". The tool counts as
// available when the marker appears in stdout or stderr, whatever the exit
// code.
func (v *VideoStripper) Probe(ctx context.Context) (*ToolStatus, error) {
	tool := v.Locator.Locate()

	timeout := v.ProbeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := v.Runner.Run(ctx, []string{tool, "-version"})
	if err != nil {
		return nil, ToolUnavailableError("", v.Locator.tool, err)
	}

	combined := res.Stdout + "\n" + res.Stderr
	idx := strings.Index(combined, v.Marker)
	if v.Marker == "" || idx < 0 {
		return nil, ToolUnavailableError("", v.Locator.tool,
			fmt.Errorf("%s -version did not report %q (exit %d)", tool, v.Marker, res.ExitCode))
	}

	line := combined[idx:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return &ToolStatus{Path: tool, Version: strings.TrimSpace(line)}, nil
}

// Strip probes the tool first and fails with a tool-unavailable error before
// anything is written. Once launched the conversion is not cancelled.
func (v *VideoStripper) Strip(ctx context.Context, src, dst string) (string, error) {
	status, err := v.Probe(ctx)
	if err != nil {
		var ce *CleanError
		if errors.As(err, &ce) {
			ce.FilePath = src
		}
		return "", err
	}
	v.Log.Debug("using %s (%s)", status.Path, status.Version)

	res, err := v.Runner.Run(context.WithoutCancel(ctx), VideoArgs(status.Path, src, dst))
	if err != nil {
		var ce *CleanError
		if errors.As(err, &ce) {
			ce.FilePath = src
			return "", ce
		}
		return "", ExecutionError(src, err)
	}
	if res.ExitCode == 0 {
		return dst, nil
	}

	v.Log.Warn("%s exited with status %d for %s: %s", status.Path, res.ExitCode, src, strings.TrimSpace(res.Stderr))
	perr := ProcessingError(src, fmt.Errorf("%s exited with status %d", filepath.Base(status.Path), res.ExitCode), res.Stderr)
	if _, statErr := v.Fs.Stat(dst); statErr == nil {
		if v.RemovePartial {
			if rmErr := v.Fs.Remove(dst); rmErr != nil {
				v.Log.Warn("failed to remove partial output %s: %v", dst, rmErr)
				perr.PartialOutput = dst
			}
		} else {
			perr.PartialOutput = dst
		}
	}
	if perr.PartialOutput != "" {
		perr.Suggestion = fmt.Sprintf("A partial file was left at %s; delete it before retrying", perr.PartialOutput)
	}
	return "", perr
}
