package internal

import (
	"fmt"
	"sort"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/spf13/afero"
)

// Tag is one metadata field found in a file.
type Tag struct {
	Name  string
	Value string
}

type tagCollector struct {
	tags []Tag
}

func (c *tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.tags = append(c.tags, Tag{Name: string(name), Value: tag.String()})
	return nil
}

// InspectEXIF lists the EXIF tags of path, sorted by name. A file without an
// EXIF block yields no tags and no error.
func InspectEXIF(fs afero.Fs, path string) ([]Tag, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, CategorizeIOError(path, err)
	}
	defer f.Close()

	// non-critical errors still return the tags that could be read
	x, err := exif.Decode(f)
	if err != nil && (exif.IsCriticalError(err) || x == nil) {
		return nil, nil
	}

	c := &tagCollector{}
	if err := x.Walk(c); err != nil {
		return nil, fmt.Errorf("failed to walk EXIF tags: %w", err)
	}
	sort.Slice(c.tags, func(i, j int) bool { return c.tags[i].Name < c.tags[j].Name })
	return c.tags, nil
}

// Informational fields exiftool reports for every file, metadata or not.
var exiftoolFileFields = map[string]bool{
	"SourceFile": true, "ExifToolVersion": true, "FileName": true, "Directory": true,
	"FileSize": true, "FileModifyDate": true, "FileAccessDate": true,
	"FileInodeChangeDate": true, "FilePermissions": true, "FileType": true,
	"FileTypeExtension": true, "MIMEType": true,
}

// InspectExiftool lists every field the exiftool binary reports for path,
// leaving out the file-system fields it adds for any file. binary may be
// empty to use exiftool from the search path.
func InspectExiftool(binary, path string) ([]Tag, error) {
	var opts []func(*exiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, ToolUnavailableError(path, "exiftool", err)
	}
	defer et.Close()

	metas := et.ExtractMetadata(path)
	if len(metas) == 0 {
		return nil, nil
	}
	if metas[0].Err != nil {
		return nil, ProcessingError(path, metas[0].Err, "")
	}

	tags := make([]Tag, 0, len(metas[0].Fields))
	for name, v := range metas[0].Fields {
		if exiftoolFileFields[name] {
			continue
		}
		tags = append(tags, Tag{Name: name, Value: fmt.Sprint(v)})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}
