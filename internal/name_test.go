package internal

import (
	"bytes"
	"math/rand"
	"regexp"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"My Photo! (1).jpeg", "My_Photo_1.jpeg"},
		{"", "arquivo"},
		{"***", "arquivo"},
		{"   ", "arquivo"},
		{"...", "arquivo"},
		{"***.jpg", "arquivo.jpg"},
		{"  holiday   pics .PNG  ", "holiday_pics.PNG"},
		{"a\tb\nc.mov", "a_b_c.mov"},
		{"---x---.mp4", "x.mp4"},
		{"archive.tar.gz", "archive.tar.gz"},
		{".bashrc", "bashrc"},
		{"café crème.jpg", "caf_crme.jpg"},
		{"photo.JPG", "photo.JPG"},
		{"foto(2)!.Mp4", "foto2.Mp4"},
		{"no_extension", "no_extension"},
		{"name.", "name."},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Sanitize(tt.raw, "arquivo"); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

var allowedBase = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func sanitizeCorpus() []string {
	corpus := []string{
		"My Photo! (1).jpeg", "", "***", " .jpg", "._x.y", "a .b", "a. b", ".. .b",
		"日本語の写真.png", "tab\there.webp", "emoji 😀 shot.HEIC", "__init__.py",
		"a..b..c", "-.-.-", "spaces   inside   name.mov", "x y z.bmp",
	}
	r := rand.New(rand.NewSource(1))
	alphabet := []rune("aZ09 ._-!@#()\t\néü😀")
	for i := 0; i < 500; i++ {
		n := r.Intn(16)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteRune(alphabet[r.Intn(len(alphabet))])
		}
		corpus = append(corpus, sb.String())
	}
	return corpus
}

func TestSanitize_BaseUsesAllowSet(t *testing.T) {
	for _, raw := range sanitizeCorpus() {
		got := Sanitize(raw, "arquivo")
		base, ext := splitExt(got)
		if !allowedBase.MatchString(base) {
			t.Errorf("Sanitize(%q) = %q: base %q outside allow-set", raw, got, base)
		}
		_, rawExt := splitExt(strings.TrimSpace(raw))
		if ext != rawExt {
			t.Errorf("Sanitize(%q) changed extension %q to %q", raw, rawExt, ext)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, raw := range sanitizeCorpus() {
		once := Sanitize(raw, "arquivo")
		if twice := Sanitize(once, "arquivo"); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{6}$`)

func TestNewToken_Format(t *testing.T) {
	src := NewTokenSource(nil)
	for i := 0; i < 100; i++ {
		tok, err := src.NewToken()
		if err != nil {
			t.Fatalf("NewToken failed: %v", err)
		}
		if !tokenPattern.MatchString(tok) {
			t.Fatalf("token %q is not 6 lowercase hex characters", tok)
		}
	}
}

func TestNewToken_Distribution(t *testing.T) {
	src := NewTokenSource(nil)
	seen := make(map[string]bool, 10000)
	dups := 0
	for i := 0; i < 10000; i++ {
		tok, err := src.NewToken()
		if err != nil {
			t.Fatalf("NewToken failed: %v", err)
		}
		if seen[tok] {
			dups++
		}
		seen[tok] = true
	}
	// a uniform 24-bit draw gives about 3 collisions in 10,000 tokens
	if dups > 15 {
		t.Errorf("%d duplicates in 10000 tokens, expected about 3", dups)
	}
}

func TestNewToken_FromReader(t *testing.T) {
	src := NewTokenSource(bytes.NewReader([]byte{0xa3, 0xf9, 0x1b, 0x00, 0x0f}))

	tok, err := src.NewToken()
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}
	if tok != "a3f91b" {
		t.Errorf("Expected a3f91b, got %s", tok)
	}

	if _, err := src.NewToken(); err == nil {
		t.Error("Expected an error when the source runs dry")
	}
}

func TestOutputName(t *testing.T) {
	got := OutputName("[CLEANED]", "a3f91b", "My_Photo_1.jpeg")
	if got != "[CLEANED]a3f91b_My_Photo_1.jpeg" {
		t.Errorf("OutputName = %q", got)
	}
}
