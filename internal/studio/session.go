package studio

import (
	"sync"

	"storyreel/internal/types"
)

// AudioSource describes a freshly stored narration upload.
type AudioSource struct {
	Path string
	URL  string
	Mime string
	Name string
}

// PlaybackView is the resolved playback position: the clock, the transport
// state, and whatever segment/image the clock currently lands on.
type PlaybackView struct {
	Time          float64
	State         types.PlaybackState
	ActiveSegment *types.Segment
	CurrentImage  *types.GalleryImage
}

// Session is the single owner of the project. Every mutation and snapshot
// goes through its lock, so handlers and the analysis worker never observe a
// half-applied update.
type Session struct {
	mu      sync.Mutex
	project *types.Project
}

func NewSession() *Session {
	return &Session{project: newProject()}
}

// ResetForAudio replaces the project around a new narration upload: segments
// cleared, clock zeroed, generation bumped. The gallery is append-only and
// carries over, so images uploaded before the audio still auto-fill once
// analysis lands. Returns the new generation and the superseded audio path
// so the caller can release it.
func (s *Session) ResetForAudio(src AudioSource) (uint64, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var released []string
	if s.project.AudioPath != "" {
		released = append(released, s.project.AudioPath)
	}

	fresh := newProject()
	fresh.Generation = s.project.Generation + 1
	fresh.Gallery = s.project.Gallery
	fresh.AudioPath = src.Path
	fresh.AudioURL = src.URL
	fresh.AudioMime = src.Mime
	fresh.AudioName = src.Name
	s.project = fresh

	return fresh.Generation, released
}

// BeginAnalysis records the probed duration and marks the project analyzing.
// Returns false when the upload was superseded in the meantime.
func (s *Session) BeginAnalysis(generation uint64, duration float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project.Generation != generation {
		return false
	}
	s.project.Duration = duration
	s.project.Status = types.StatusAnalyzing
	s.project.StatusMsg = ""
	return true
}

// ApplyAnalysis installs the analyzer output and auto-fills from whatever
// gallery already exists. Results from a superseded upload are discarded.
// Returns how many segments were auto-filled and whether the result applied.
func (s *Session) ApplyAnalysis(generation uint64, drafts []types.SegmentDraft) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project.Generation != generation {
		return 0, false
	}
	s.project.Segments = mintSegments(drafts)
	filled := autoFill(s.project)
	s.project.Status = types.StatusReady
	s.project.StatusMsg = ""
	return filled, true
}

// FailAnalysis moves the project to the error state with a user-facing
// message. Existing segments are left untouched.
func (s *Session) FailAnalysis(generation uint64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project.Generation != generation {
		return false
	}
	s.project.Status = types.StatusError
	s.project.StatusMsg = message
	return true
}

// AddImages appends to the gallery in upload order, then auto-fills any
// unassigned segments. Returns how many segments picked up an image.
func (s *Session) AddImages(images []types.GalleryImage) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.project.Gallery = append(s.project.Gallery, images...)
	return autoFill(s.project)
}

// AssignImage binds an image to a segment, replacing any previous binding.
// Unknown segment ids report false without erroring.
func (s *Session) AssignImage(segmentID, imageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return assignImage(s.project, segmentID, imageID)
}

func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.Playback = types.PlaybackPlaying
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.Playback = types.PlaybackIdle
}

// Seek moves the clock to t. Callers clamp t into [0, duration] before
// calling; the session stores what it is given.
func (s *Session) Seek(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project.CurrentTime = t
}

// SetTime applies an external playback tick. Reaching the end of the audio
// forces the transport back to idle even when no pause event arrives.
func (s *Session) SetTime(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project.Duration > 0 && t >= s.project.Duration {
		s.project.CurrentTime = s.project.Duration
		s.project.Playback = types.PlaybackIdle
		return
	}
	s.project.CurrentTime = t
}

// Snapshot returns a copy of the project that is safe to read lock-free.
func (s *Session) Snapshot() types.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := *s.project
	snap.Segments = copySegments(s.project.Segments)
	snap.Gallery = copyGallery(s.project.Gallery)
	return snap
}

// PlaybackView resolves the active segment and its image at the current time.
func (s *Session) PlaybackView() PlaybackView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := PlaybackView{
		Time:  s.project.CurrentTime,
		State: s.project.Playback,
	}
	seg, ok := ActiveSegmentIn(s.project.Segments, s.project.CurrentTime)
	if !ok {
		return view
	}
	segCopy := seg
	view.ActiveSegment = &segCopy
	if img, found := ImageByID(s.project.Gallery, seg.AssignedImageID); found {
		imgCopy := img
		view.CurrentImage = &imgCopy
	}
	return view
}

// Clear drops the whole project and returns the files it held. The
// generation still advances so in-flight analysis results get discarded.
func (s *Session) Clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := releasablePaths(s.project)
	fresh := newProject()
	fresh.Generation = s.project.Generation + 1
	s.project = fresh
	return released
}

// Generation returns the current upload generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Generation
}
