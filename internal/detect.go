package internal

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// MediaKind is the classification of one input file.
type MediaKind int

const (
	KindUnsupported MediaKind = iota
	KindImage
	KindVideo
)

func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unsupported"
	}
}

// DetectionResult is produced once per input path.
type DetectionResult struct {
	Kind      MediaKind
	Ext       string // lower-cased extension of the path, with the dot
	MIME      string // sniffed type; empty when the extension decided
	ByContent bool
}

// Classifier gives an opinion about a path. ok is false when it has none and
// the next classifier should be asked.
type Classifier interface {
	Classify(path string) (res DetectionResult, ok bool)
}

type firstOf []Classifier

// FirstOf asks each classifier in turn and returns the first opinion.
func FirstOf(cs ...Classifier) Classifier {
	return firstOf(cs)
}

func (f firstOf) Classify(path string) (DetectionResult, bool) {
	for _, c := range f {
		if res, ok := c.Classify(path); ok {
			return res, true
		}
	}
	return DetectionResult{Kind: KindUnsupported, Ext: lowerExt(path)}, false
}

// ContentClassifier sniffs the byte signature of a file. It has no opinion
// when the file cannot be read or the bytes carry no binary signature.
type ContentClassifier struct {
	Fs afero.Fs
}

func (c ContentClassifier) Classify(path string) (DetectionResult, bool) {
	f, err := c.Fs.Open(path)
	if err != nil {
		return DetectionResult{}, false
	}
	defer f.Close()

	// mimetype reads a bounded prefix only
	m, err := mimetype.DetectReader(f)
	if err != nil || !hasSignature(m) {
		return DetectionResult{}, false
	}

	res := DetectionResult{
		Ext:       lowerExt(path),
		MIME:      m.String(),
		ByContent: true,
	}
	switch {
	case strings.HasPrefix(m.String(), "image/"):
		res.Kind = KindImage
	case strings.HasPrefix(m.String(), "video/"):
		res.Kind = KindVideo
	default:
		res.Kind = KindUnsupported
	}
	return res, true
}

// hasSignature is false for the octet-stream root and for anything that is
// only text (plain text, JSON, SVG...), which has no magic number.
func hasSignature(m *mimetype.MIME) bool {
	if m == nil || m.Is("application/octet-stream") {
		return false
	}
	for p := m; p != nil; p = p.Parent() {
		if p.Is("text/plain") {
			return false
		}
	}
	return true
}

// ExtensionClassifier matches the lower-cased extension against fixed
// allow-lists. It always has an opinion.
type ExtensionClassifier struct {
	Image map[string]bool
	Video map[string]bool
}

func NewExtensionClassifier(imageExt, videoExt []string) ExtensionClassifier {
	c := ExtensionClassifier{Image: map[string]bool{}, Video: map[string]bool{}}
	for _, e := range normalizeExtensions(imageExt) {
		c.Image[e] = true
	}
	for _, e := range normalizeExtensions(videoExt) {
		c.Video[e] = true
	}
	return c
}

func (c ExtensionClassifier) Classify(path string) (DetectionResult, bool) {
	ext := lowerExt(path)
	res := DetectionResult{Kind: KindUnsupported, Ext: ext}
	switch {
	case c.Image[ext]:
		res.Kind = KindImage
	case c.Video[ext]:
		res.Kind = KindVideo
	}
	return res, true
}

// Detector classifies paths by content first, then by extension.
type Detector struct {
	classifier Classifier
}

func NewDetector(fs afero.Fs, cfg *Config) *Detector {
	return &Detector{
		classifier: FirstOf(
			ContentClassifier{Fs: fs},
			NewExtensionClassifier(cfg.ImageExt, cfg.VideoExt),
		),
	}
}

func (d *Detector) Detect(path string) DetectionResult {
	res, _ := d.classifier.Classify(path)
	return res
}

func lowerExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
