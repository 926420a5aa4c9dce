// Package archive unpacks an uploaded ZIP of employee photographs into named
// binary image entries. Extraction is deliberately separate from image
// validation (which belongs to the matcher) so a corrupt-archive failure is
// distinguishable from a corrupt-image failure.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNoImages is returned when the archive opens but contains no usable
// image entries. An empty photo bundle fails the whole operation.
var ErrNoImages = errors.New("archive contains no image files")

// imageExts are the photo formats the card pipeline accepts.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Entry is one image file found inside the uploaded archive.
// FileName is the base name; directory structure inside the archive is
// ignored, not errored.
type Entry struct {
	FileName string
	Data     []byte
}

// Extract unpacks archive bytes into image entries.
//
// Folders, hidden OS files and non-image entries are silently skipped. A
// single unreadable inner entry is reported as a per-file warning, not a
// whole-operation failure; only an unopenable or image-less archive is fatal.
func Extract(data []byte) ([]Entry, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}

	var (
		entries  []Entry
		warnings []string
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if skipEntry(f.Name) {
			continue
		}

		base := path.Base(f.Name)
		if !imageExts[strings.ToLower(path.Ext(base))] {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read archive entry %q: %v", base, err))
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read archive entry %q: %v", base, err))
			continue
		}

		entries = append(entries, Entry{FileName: base, Data: content})
	}

	if len(entries) == 0 {
		return nil, warnings, ErrNoImages
	}
	return entries, warnings, nil
}

// skipEntry filters out OS metadata that macOS and Windows sneak into zips.
func skipEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.EqualFold(base, "thumbs.db") || strings.EqualFold(base, "desktop.ini")
}
