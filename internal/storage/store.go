// Package storage keeps uploaded narration audio and gallery images on disk
// and hands back the display handles clients use to fetch them. Files are the
// only thing that outlives a request; project state itself stays in memory.
package storage

import (
	"io"
	"os"
	"path/filepath"

	"storyreel/internal/appdirs"
	"storyreel/log"
	"storyreel/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "storyreel/pkg/errors"
)

var appDirsResolver = appdirs.Resolve

// SavedFile describes one stored upload.
type SavedFile struct {
	Name string // sanitized original filename
	Path string // location on disk
	URL  string // display handle served by the file endpoint
	Size int64
}

// FileStore owns the upload directory layout:
//
//	<data>/uploads/audio/<id>_<name>
//	<data>/uploads/images/<id>_<name>
type FileStore struct {
	root     string
	audioDir string
	imageDir string
}

func NewFileStore() (*FileStore, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return nil, err
	}
	return newFileStore(dirs)
}

// NewFileStoreAt builds a store rooted at an explicit data directory instead
// of the resolved application paths.
func NewFileStoreAt(dataDir string) (*FileStore, error) {
	return newFileStore(appdirs.Paths{DataDir: dataDir})
}

func newFileStore(dirs appdirs.Paths) (*FileStore, error) {
	store := &FileStore{
		root:     appdirs.UploadRootFor(dirs),
		audioDir: appdirs.AudioDirFor(dirs),
		imageDir: appdirs.ImageDirFor(dirs),
	}
	for _, dir := range []string{store.audioDir, store.imageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to create upload directory", err)
		}
	}
	return store, nil
}

// Root is the directory the file endpoint serves from.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) SaveAudio(src io.Reader, originalName string) (SavedFile, error) {
	return s.save(src, originalName, s.audioDir, "audio")
}

func (s *FileStore) SaveImage(src io.Reader, originalName string) (SavedFile, error) {
	return s.save(src, originalName, s.imageDir, "images")
}

func (s *FileStore) save(src io.Reader, originalName, dir, urlDir string) (SavedFile, error) {
	name := util.SanitizeFilename(originalName)
	diskName := uuid.NewString()[:8] + "_" + name
	path := filepath.Join(dir, diskName)

	dst, err := os.Create(path)
	if err != nil {
		return SavedFile{}, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to create upload file", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return SavedFile{}, apperrors.Wrap(apperrors.CodeFileWriteError, "failed to write upload file", err)
	}

	return SavedFile{
		Name: name,
		Path: path,
		URL:  "/api/file/" + urlDir + "/" + diskName,
		Size: size,
	}, nil
}

// Release deletes superseded uploads. Best effort: a file that is already
// gone is fine, anything else is logged and skipped.
func (s *FileStore) Release(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.GetLogger().Warn("failed to remove superseded upload",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}
