package handler

import (
	"os"
	"path/filepath"
	"strings"

	"storyreel/internal/appdirs"
)

var appDirsResolver = appdirs.Resolve

// uploadRootCandidates lists the directories uploads may live under: the
// resolved data dir first, the relative default as fallback.
func uploadRootCandidates() []string {
	candidates := make([]string, 0, 2)
	if dirs, err := appDirsResolver(); err == nil {
		candidates = append(candidates, appdirs.UploadRootFor(dirs))
	}
	candidates = append(candidates, filepath.Join("library", appdirs.UploadRootName))
	return uniquePaths(candidates...)
}

// resolveDownloadPath maps a requested display-handle path ("audio/x.mp3",
// "images/y.png") to a file inside an upload root. Traversal outside the
// root is refused before any filesystem access.
func resolveDownloadPath(requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	requested = strings.TrimPrefix(requested, string(filepath.Separator))
	requested = strings.TrimPrefix(requested, "/")
	if hasParentTraversal(requested) {
		return "", false
	}
	requested = filepath.Clean(requested)
	if requested == "." || requested == "" {
		return "", false
	}
	requested = filepath.FromSlash(filepath.ToSlash(requested))

	var fallback string
	for _, rootDir := range uploadRootCandidates() {
		candidate := filepath.Clean(filepath.Join(rootDir, requested))
		if !isPathWithinRoot(rootDir, candidate) {
			continue
		}
		if fallback == "" {
			fallback = candidate
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	if fallback == "" {
		return "", false
	}
	return fallback, true
}

func uniquePaths(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	paths := make([]string, 0, len(values))
	for _, value := range values {
		cleaned := strings.TrimSpace(value)
		if cleaned == "" {
			continue
		}
		cleaned = filepath.Clean(cleaned)
		if _, exists := seen[cleaned]; exists {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

func isPathWithinRoot(root, candidate string) bool {
	root = filepath.Clean(root)
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasParentTraversal(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	parts := strings.Split(normalized, "/")
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}
