package appdirs

import (
	"path/filepath"
	"strings"
)

const (
	UploadRootName = "uploads"
	ToolsDirName   = "tools"
	audioDirName   = "audio"
	imageDirName   = "images"
)

func UploadRootFor(paths Paths) string {
	return filepath.Join(normalizeDataDir(paths.DataDir), UploadRootName)
}

func AudioDirFor(paths Paths) string {
	return filepath.Join(UploadRootFor(paths), audioDirName)
}

func ImageDirFor(paths Paths) string {
	return filepath.Join(UploadRootFor(paths), imageDirName)
}

func ToolsDirFor(paths Paths) string {
	return filepath.Join(normalizeDataDir(paths.DataDir), ToolsDirName)
}

func normalizeDataDir(dataDir string) string {
	cleaned := strings.TrimSpace(dataDir)
	if cleaned == "" {
		return "library"
	}
	return filepath.Clean(cleaned)
}
