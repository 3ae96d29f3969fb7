package service

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyreel/internal/dto"
	"storyreel/internal/studio"
	"storyreel/internal/taskrunner"
	"storyreel/internal/timeline"
	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
	"storyreel/pkg/util"
)

const fallbackAnalysisTimeout = 120 * time.Second

// Upload is one incoming multipart file, already opened by the handler.
type Upload struct {
	Reader io.Reader
	Name   string
}

// UploadAudio installs a new narration track: store the file, reset the
// project, probe the duration, then hand the analysis job to the runner.
// The previous track's files are released once the reset succeeds.
func (s *Service) UploadAudio(ctx context.Context, upload Upload) (dto.UploadAudioData, error) {
	mimeType := util.AudioMimeType(upload.Name)
	if mimeType == "" {
		return dto.UploadAudioData{}, apperrors.WrapWithDetail(apperrors.CodeUnsupportedAudio,
			"Unsupported audio format", upload.Name, nil)
	}

	saved, err := s.Store.SaveAudio(upload.Reader, upload.Name)
	if err != nil {
		return dto.UploadAudioData{}, err
	}

	generation, released := s.Session.ResetForAudio(studio.AudioSource{
		Path: saved.Path,
		URL:  saved.URL,
		Mime: mimeType,
		Name: saved.Name,
	})
	s.Store.Release(released)

	duration, err := s.Prober.Duration(ctx, saved.Path)
	if err != nil {
		s.Session.FailAnalysis(generation, apperrors.GetMessage(err))
		return dto.UploadAudioData{}, err
	}

	s.Session.BeginAnalysis(generation, duration)

	payload := taskrunner.AnalysisPayload{
		Generation: generation,
		AudioPath:  saved.Path,
		MimeType:   mimeType,
	}
	if err := s.runner.Submit(payload); err != nil {
		s.Session.FailAnalysis(generation, "Narration analysis could not be scheduled")
		return dto.UploadAudioData{}, apperrors.Wrap(apperrors.CodeAnalysisFailed, "failed to schedule analysis", err)
	}

	log.GetLogger().Info("narration uploaded",
		zap.Uint64("generation", generation),
		zap.String("name", saved.Name),
		zap.Float64("duration", duration))

	return dto.UploadAudioData{
		AudioURL: saved.URL,
		Duration: duration,
		Status:   types.StatusAnalyzing.String(),
	}, nil
}

// runAnalysis executes one queued analysis job. All outcomes land in the
// session as status transitions; nothing propagates to the caller.
func (s *Service) runAnalysis(payload taskrunner.AnalysisPayload) {
	audio, err := os.ReadFile(payload.AudioPath)
	if err != nil {
		log.GetLogger().Error("failed to read uploaded narration",
			zap.Uint64("generation", payload.Generation),
			zap.Error(err))
		s.Session.FailAnalysis(payload.Generation, "Uploaded audio could not be read")
		return
	}

	timeout := s.analysisTimeout
	if timeout <= 0 {
		timeout = fallbackAnalysisTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	drafts, err := s.Analyzer.AnalyzeNarration(ctx, audio, payload.MimeType)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = apperrors.Wrap(apperrors.CodeAnalysisTimeout, apperrors.ErrAnalysisTimeout.Message, err)
		}
		log.GetLogger().Error("narration analysis failed",
			zap.Uint64("generation", payload.Generation),
			zap.Error(err))
		s.Session.FailAnalysis(payload.Generation, apperrors.GetMessage(err))
		return
	}

	filled, applied := s.Session.ApplyAnalysis(payload.Generation, drafts)
	if !applied {
		log.GetLogger().Warn("discarding analysis result from a superseded upload",
			zap.Uint64("generation", payload.Generation))
		return
	}
	log.GetLogger().Info("narration analysis applied",
		zap.Uint64("generation", payload.Generation),
		zap.Int("segments", len(drafts)),
		zap.Int("auto_filled", filled))
}

// AddImages stores the uploads, appends them to the gallery in input order
// and auto-fills unassigned segments. Filenames are validated up front so a
// bad batch leaves nothing behind.
func (s *Service) AddImages(uploads []Upload) (dto.AddImagesData, error) {
	if len(uploads) == 0 {
		return dto.AddImagesData{}, apperrors.New(apperrors.CodeInvalidParams, "No images in request")
	}
	for _, upload := range uploads {
		if util.ImageMimeType(upload.Name) == "" {
			return dto.AddImagesData{}, apperrors.WrapWithDetail(apperrors.CodeImageUploadFailed,
				"Unsupported image format", upload.Name, nil)
		}
	}

	images := make([]types.GalleryImage, 0, len(uploads))
	for _, upload := range uploads {
		saved, err := s.Store.SaveImage(upload.Reader, upload.Name)
		if err != nil {
			return dto.AddImagesData{}, err
		}
		images = append(images, types.GalleryImage{
			ID:       uuid.NewString(),
			Name:     saved.Name,
			URL:      saved.URL,
			MimeType: util.ImageMimeType(upload.Name),
			Size:     saved.Size,
			Path:     saved.Path,
		})
	}

	filled := s.Session.AddImages(images)
	log.GetLogger().Info("gallery images added",
		zap.Int("added", len(images)),
		zap.Int("auto_filled", filled))

	return dto.AddImagesData{
		Added:      dto.GalleryDataFrom(images),
		AutoFilled: filled,
	}, nil
}

// AssignImage binds an image to a segment. Unknown segment ids are a silent
// no-op; the caller still gets a success with assigned=false.
func (s *Service) AssignImage(segmentID, imageID string) dto.AssignImageData {
	return dto.AssignImageData{Assigned: s.Session.AssignImage(segmentID, imageID)}
}

// Seek clamps the requested time into [0, duration] and moves the clock.
func (s *Service) Seek(t float64) float64 {
	duration := s.Session.Snapshot().Duration
	if t < 0 {
		t = 0
	}
	if t > duration {
		t = duration
	}
	s.Session.Seek(t)
	return t
}

// UpdateTime applies an external playback tick.
func (s *Service) UpdateTime(t float64) {
	s.Session.SetTime(t)
}

func (s *Service) Play() {
	s.Session.Play()
}

func (s *Service) Pause() {
	s.Session.Pause()
}

// FinishPlayback handles the end-of-audio signal: clock to the end, transport
// idle.
func (s *Service) FinishPlayback() {
	s.Session.SetTime(s.Session.Snapshot().Duration)
	s.Session.Pause()
}

func (s *Service) Project() dto.ProjectData {
	return dto.ProjectDataFrom(s.Session.Snapshot())
}

func (s *Service) Status() dto.ProjectStatusData {
	snap := s.Session.Snapshot()
	return dto.ProjectStatusData{
		Status:  snap.Status.String(),
		Message: snap.StatusMsg,
	}
}

func (s *Service) Playback() dto.PlaybackData {
	return dto.PlaybackDataFrom(s.Session.PlaybackView())
}

func (s *Service) Gallery() []dto.ImageData {
	return dto.GalleryDataFrom(s.Session.Snapshot().Gallery)
}

// Timeline builds the positioned track view for the current project.
func (s *Service) Timeline() timeline.View {
	snap := s.Session.Snapshot()
	return timeline.Layout(snap.Segments, snap.Duration)
}

// DropImage resolves a drop gesture at track pixel x to a segment and binds
// the image there. A drop over a gap assigns nothing.
func (s *Service) DropImage(x float64, imageID string) dto.TimelineDropData {
	snap := s.Session.Snapshot()
	seg, ok := timeline.SegmentAt(snap.Segments, x)
	if !ok {
		return dto.TimelineDropData{}
	}
	return dto.TimelineDropData{
		Assigned:  s.Session.AssignImage(seg.ID, imageID),
		SegmentID: seg.ID,
	}
}

// ClearProject drops all state and releases every stored file.
func (s *Service) ClearProject() {
	released := s.Session.Clear()
	s.Store.Release(released)
}

// Export is deliberately unimplemented; rendering the slideshow to a video
// file happens outside this service.
func (s *Service) Export() error {
	return apperrors.ErrExportUnsupported
}
