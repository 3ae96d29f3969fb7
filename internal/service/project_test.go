package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storyreel/internal/mocks"
	"storyreel/internal/storage"
	"storyreel/internal/taskrunner"
	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
)

func init() {
	log.InitLogger()
}

type stubProber struct {
	duration float64
	err      error
}

func (p stubProber) Duration(ctx context.Context, path string) (float64, error) {
	return p.duration, p.err
}

func newTestService(t *testing.T, analyzer types.NarrationAnalyzer, prober DurationProber) *Service {
	t.Helper()

	store, err := storage.NewFileStoreAt(t.TempDir())
	require.NoError(t, err)

	svc := NewServiceWith(store, prober, analyzer, 5*time.Second, taskrunner.Config{QueueSize: 4, Concurrency: 1})
	t.Cleanup(svc.Close)
	return svc
}

func twoDrafts() []types.SegmentDraft {
	return []types.SegmentDraft{
		{StartTime: 0, EndTime: 6, Text: "a", VisualDescription: "lighthouse", Emotion: "calm"},
		{StartTime: 6, EndTime: 12, Text: "b", VisualDescription: "storm", Emotion: "tense"},
	}
}

func audioUpload() Upload {
	return Upload{Reader: bytes.NewReader([]byte("fake-mp3")), Name: "story.mp3"}
}

func imageUpload(name string) Upload {
	return Upload{Reader: bytes.NewReader([]byte("fake-png")), Name: name}
}

func waitForStatus(t *testing.T, svc *Service, status string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return svc.Status().Status == status
	}, 3*time.Second, 10*time.Millisecond, "status never became %s", status)
}

func TestUploadAudioRunsAnalysis(t *testing.T) {
	analyzer := &mocks.MockNarrationAnalyzer{}
	analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, "audio/mpeg").Return(twoDrafts(), nil)

	svc := newTestService(t, analyzer, stubProber{duration: 12})

	data, err := svc.UploadAudio(context.Background(), audioUpload())
	require.NoError(t, err)
	assert.Equal(t, 12.0, data.Duration)
	assert.Equal(t, "analyzing", data.Status)
	assert.NotEmpty(t, data.AudioURL)

	waitForStatus(t, svc, "ready")

	project := svc.Project()
	require.Len(t, project.Segments, 2)
	assert.Equal(t, "a", project.Segments[0].Text)
	assert.Empty(t, project.Segments[0].AssignedImageID)
	analyzer.AssertExpectations(t)
}

func TestUploadAudioRejectsUnsupportedFormat(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})

	_, err := svc.UploadAudio(context.Background(), Upload{Reader: bytes.NewReader([]byte("x")), Name: "notes.txt"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnsupportedAudio))
}

func TestUploadAudioProbeFailureSetsErrorStatus(t *testing.T) {
	probeErr := apperrors.New(apperrors.CodeAudioProbeFailed, "file reports no duration")
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{err: probeErr})

	_, err := svc.UploadAudio(context.Background(), audioUpload())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeAudioProbeFailed))

	status := svc.Status()
	assert.Equal(t, "error", status.Status)
	assert.NotEmpty(t, status.Message)
}

func TestAnalysisFailureLeavesSegmentsUntouched(t *testing.T) {
	analyzer := &mocks.MockNarrationAnalyzer{}
	analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.New(apperrors.CodeAnalysisFailed, "Narration analysis failed"))

	svc := newTestService(t, analyzer, stubProber{duration: 12})

	_, err := svc.UploadAudio(context.Background(), audioUpload())
	require.NoError(t, err)

	waitForStatus(t, svc, "error")

	status := svc.Status()
	assert.Equal(t, "Narration analysis failed", status.Message)
	assert.Empty(t, svc.Project().Segments)
}

func TestAnalysisDeadlineReportsTimeout(t *testing.T) {
	analyzer := &mocks.MockNarrationAnalyzer{}
	analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, context.DeadlineExceeded)

	store, err := storage.NewFileStoreAt(t.TempDir())
	require.NoError(t, err)
	svc := NewServiceWith(store, stubProber{duration: 12}, analyzer, 50*time.Millisecond,
		taskrunner.Config{QueueSize: 4, Concurrency: 1})
	t.Cleanup(svc.Close)

	_, err = svc.UploadAudio(context.Background(), audioUpload())
	require.NoError(t, err)

	waitForStatus(t, svc, "error")
	assert.Equal(t, "Narration analysis timed out", svc.Status().Message)
}

func TestUploadAudioKeepsExistingGallery(t *testing.T) {
	analyzer := &mocks.MockNarrationAnalyzer{}
	analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, mock.Anything).Return(twoDrafts(), nil)

	svc := newTestService(t, analyzer, stubProber{duration: 12})

	added, err := svc.AddImages([]Upload{imageUpload("early1.png"), imageUpload("early2.png")})
	require.NoError(t, err)
	require.Len(t, added.Added, 2)
	assert.Equal(t, 0, added.AutoFilled, "nothing to fill before analysis")

	_, err = svc.UploadAudio(context.Background(), audioUpload())
	require.NoError(t, err)
	waitForStatus(t, svc, "ready")

	project := svc.Project()
	require.Len(t, project.Gallery, 2, "audio upload must not discard the gallery")
	require.Len(t, project.Segments, 2)
	assert.Equal(t, added.Added[0].ID, project.Segments[0].AssignedImageID)
	assert.Equal(t, added.Added[1].ID, project.Segments[1].AssignedImageID)
}

func TestAutoFillOneImageThenSecondImage(t *testing.T) {
	analyzer := &mocks.MockNarrationAnalyzer{}
	analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, mock.Anything).Return(twoDrafts(), nil)

	svc := newTestService(t, analyzer, stubProber{duration: 12})

	_, err := svc.UploadAudio(context.Background(), audioUpload())
	require.NoError(t, err)
	waitForStatus(t, svc, "ready")

	// One image: both segments pick it up.
	added, err := svc.AddImages([]Upload{imageUpload("cover.png")})
	require.NoError(t, err)
	require.Len(t, added.Added, 1)
	assert.Equal(t, 2, added.AutoFilled)

	firstID := added.Added[0].ID
	project := svc.Project()
	assert.Equal(t, firstID, project.Segments[0].AssignedImageID)
	assert.Equal(t, firstID, project.Segments[1].AssignedImageID)

	// A second image changes nothing already assigned.
	added2, err := svc.AddImages([]Upload{imageUpload("extra.jpg")})
	require.NoError(t, err)
	assert.Equal(t, 0, added2.AutoFilled)

	project = svc.Project()
	assert.Equal(t, firstID, project.Segments[0].AssignedImageID)
	assert.Equal(t, firstID, project.Segments[1].AssignedImageID)
}

func TestAutoFillRoundRobinAfterImagesArrive(t *testing.T) {
	drafts := []types.SegmentDraft{
		{StartTime: 0, EndTime: 4, Text: "a", VisualDescription: "v", Emotion: "calm"},
		{StartTime: 4, EndTime: 8, Text: "b", VisualDescription: "v", Emotion: "calm"},
		{StartTime: 8, EndTime: 12, Text: "c", VisualDescription: "v", Emotion: "calm"},
	}
	analyzer := &mocks.MockNarrationAnalyzer{}
	analyzer.On("AnalyzeNarration", mock.Anything, mock.Anything, mock.Anything).Return(drafts, nil)

	svc := newTestService(t, analyzer, stubProber{duration: 12})

	_, err := svc.UploadAudio(context.Background(), audioUpload())
	require.NoError(t, err)
	waitForStatus(t, svc, "ready")
	for _, seg := range svc.Project().Segments {
		assert.Empty(t, seg.AssignedImageID)
	}

	added, err := svc.AddImages([]Upload{imageUpload("one.png"), imageUpload("two.png")})
	require.NoError(t, err)
	require.Len(t, added.Added, 2)
	assert.Equal(t, 3, added.AutoFilled)

	segments := svc.Project().Segments
	assert.Equal(t, added.Added[0].ID, segments[0].AssignedImageID)
	assert.Equal(t, added.Added[1].ID, segments[1].AssignedImageID)
	assert.Equal(t, added.Added[0].ID, segments[2].AssignedImageID)
}

func TestAddImagesRejectsUnsupportedFormat(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})

	_, err := svc.AddImages([]Upload{imageUpload("good.png"), imageUpload("bad.exe")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeImageUploadFailed))
	assert.Empty(t, svc.Gallery())
}

func TestAssignImageUnknownSegmentIsNoOp(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})

	result := svc.AssignImage("no-such-segment", "some-image")
	assert.False(t, result.Assigned)
}

func TestSeekClampsIntoDuration(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})
	svc.Session.BeginAnalysis(0, 40)

	assert.Equal(t, 40.0, svc.Seek(100))
	assert.Equal(t, 0.0, svc.Seek(-3))
	assert.Equal(t, 20.0, svc.Seek(20))
	assert.Equal(t, 20.0, svc.Playback().Time)
}

func TestDropImageHitsSegmentWindow(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})
	svc.Session.BeginAnalysis(0, 12)
	_, applied := svc.Session.ApplyAnalysis(0, twoDrafts())
	require.True(t, applied)

	added, err := svc.AddImages([]Upload{imageUpload("drop.png")})
	require.NoError(t, err)
	imageID := added.Added[0].ID

	// 75px at 50px/s is 1.5s, inside the first segment.
	result := svc.DropImage(75, imageID)
	assert.True(t, result.Assigned)
	assert.Equal(t, svc.Project().Segments[0].ID, result.SegmentID)

	// Beyond the last segment nothing is hit.
	miss := svc.DropImage(5000, imageID)
	assert.False(t, miss.Assigned)
	assert.Empty(t, miss.SegmentID)
}

func TestFinishPlaybackForcesIdleAtEnd(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})
	svc.Session.BeginAnalysis(0, 12)

	svc.Play()
	svc.FinishPlayback()

	playback := svc.Playback()
	assert.Equal(t, "idle", playback.State)
	assert.Equal(t, 12.0, playback.Time)
}

func TestClearProjectReleasesStoredFiles(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})

	added, err := svc.AddImages([]Upload{imageUpload("gone.png")})
	require.NoError(t, err)
	require.Len(t, added.Added, 1)

	svc.ClearProject()

	project := svc.Project()
	assert.Empty(t, project.Gallery)
	assert.Empty(t, project.Segments)
	assert.Equal(t, "idle", project.Status)
}

func TestExportIsUnsupported(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})

	err := svc.Export()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeExportUnsupported))
}

func TestTimelineViewReflectsProject(t *testing.T) {
	svc := newTestService(t, &mocks.MockNarrationAnalyzer{}, stubProber{duration: 12})
	svc.Session.BeginAnalysis(0, 12)
	_, applied := svc.Session.ApplyAnalysis(0, twoDrafts())
	require.True(t, applied)

	view := svc.Timeline()
	assert.Equal(t, 800.0, view.TrackWidth) // 12s * 50px/s stays under the minimum
	require.Len(t, view.Blocks, 2)
	assert.Equal(t, 300.0, view.Blocks[1].Left)
	assert.Equal(t, 300.0, view.Blocks[1].Width)
}
