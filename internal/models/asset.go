package models

import (
	"path"
	"strings"
	"time"
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
}

// FileAsset describes an uploaded file kept on the storage backend.
type FileAsset struct {
	ID          int64
	MediaFile   string // storage key
	Extension   string
	Title       string
	AltText     string
	Description string
	Size        int64
	DateMade    time.Time
	DateEdit    time.Time
}

func (f *FileAsset) String() string {
	return f.Title
}

// Filename returns the base name of the stored file.
func (f *FileAsset) Filename() string {
	return path.Base(f.MediaFile)
}

// IsImage reports whether the extension is a browser renderable image.
func (f *FileAsset) IsImage() bool {
	return imageExtensions[f.Extension]
}

// ExtensionOf returns the lowercased text after the last dot of name.
func ExtensionOf(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// ImageExtensions lists the extensions IsImage accepts.
func ImageExtensions() []string {
	return []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}
}
