package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const tempPrefix = ".metaclean-"

// IsCleanedName reports whether name is one of our own outputs or temp files.
func IsCleanedName(name, prefix string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, tempPrefix) || (prefix != "" && strings.HasPrefix(base, prefix))
}

// ScanMediaFiles walks root for files the detector accepts, skipping outputs
// of earlier runs. Subdirectories are entered only when recursive is set.
func ScanMediaFiles(fs afero.Fs, root string, detector *Detector, prefix string, recursive bool) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || IsCleanedName(path, prefix) {
			return nil
		}

		if detector.Detect(path).Kind != KindUnsupported {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning files: %w", err)
	}
	return files, nil
}
