package main

import (
	_ "embed"
	"strings"

	"metaclean/cmd"
)

//go:embed VERSION
var embeddedVersion string

// version may be set with -ldflags "-X main.version=..." and then wins over
// the VERSION file.
var version string

func init() {
	v := version
	if v == "" {
		v = strings.TrimSpace(embeddedVersion)
	}
	if v != "" {
		cmd.Version = v
	}
	cmd.ApplyVersion()
}
