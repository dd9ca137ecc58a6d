package media

import (
	"path/filepath"
	"strings"
)

// DefaultMimeType is served when a content ID cannot be resolved to a
// catalog entry carrying a recorded mime type.
const DefaultMimeType = "audio/mpeg"

// audioMimeTypes doubles as the walker's extension allow-list: a file
// is a sync candidate iff its lowercased extension has a key here.
var audioMimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
	".wma":  "audio/x-ms-wma",
}

// IsAudioFile reports whether the path carries one of the known audio
// file extensions. The comparison is case-insensitive.
func IsAudioFile(path string) bool {
	_, ok := audioMimeTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// MimeTypeFor derives the mime type for a media file from its
// extension, falling back to DefaultMimeType for anything unknown.
func MimeTypeFor(path string) string {
	if mimeType, ok := audioMimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mimeType
	}

	return DefaultMimeType
}
