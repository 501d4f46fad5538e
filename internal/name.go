package internal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	whitespaceRun   = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// Sanitize turns a display name into a portable file name. The extension
// (from the last dot) is kept verbatim; the base is reduced to
// [A-Za-z0-9._-] and replaced by placeholder when nothing is left.
func Sanitize(raw, placeholder string) string {
	name := strings.TrimSpace(raw)
	base, ext := splitExt(name)

	base = whitespaceRun.ReplaceAllString(base, "_")
	base = disallowedChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "._-")
	if base == "" {
		base = placeholder
	}
	return base + ext
}

// splitExt splits at the last dot. Leading dots belong to the base, so
// ".bashrc" has no extension.
func splitExt(name string) (base, ext string) {
	first := strings.IndexFunc(name, func(r rune) bool { return r != '.' })
	i := strings.LastIndex(name, ".")
	if first < 0 || i < first {
		return name, ""
	}
	return name[:i], name[i:]
}

// TokenSource draws the random bytes behind output tokens. crypto/rand.Reader
// is safe for concurrent use.
type TokenSource interface {
	NewToken() (string, error)
}

type randomTokens struct {
	r io.Reader
}

// NewTokenSource returns a source backed by crypto/rand, or by r when given.
func NewTokenSource(r io.Reader) TokenSource {
	if r == nil {
		r = rand.Reader
	}
	return randomTokens{r: r}
}

// NewToken returns 6 lowercase hex characters (3 random bytes).
func (t randomTokens) NewToken() (string, error) {
	var b [3]byte
	if _, err := io.ReadFull(t.r, b[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// OutputName builds <prefix><token>_<sanitized name>.
func OutputName(prefix, token, sanitized string) string {
	return prefix + token + "_" + sanitized
}
