package util

import (
	"path/filepath"
	"strings"
)

var audioMimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".weba": "audio/webm",
	".webm": "audio/webm",
}

var imageMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
}

// AudioMimeType maps a filename to its audio MIME type, empty when the
// extension is not a recognized audio format.
func AudioMimeType(filename string) string {
	return audioMimeTypes[strings.ToLower(filepath.Ext(filename))]
}

// ImageMimeType maps a filename to its image MIME type, empty when the
// extension is not a recognized image format.
func ImageMimeType(filename string) string {
	return imageMimeTypes[strings.ToLower(filepath.Ext(filename))]
}

// SanitizeFilename strips path separators and control characters so uploaded
// names are safe to use as file names on disk.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
