package types

// PlaybackState models the transport state of the narration audio. Time only
// advances through external updates, so the state machine is just idle/playing.
type PlaybackState uint8

const (
	PlaybackIdle PlaybackState = iota
	PlaybackPlaying
)

func (s PlaybackState) String() string {
	if s == PlaybackPlaying {
		return "playing"
	}
	return "idle"
}

// ProjectStatus tracks the analysis lifecycle of the current project.
type ProjectStatus uint8

const (
	StatusIdle ProjectStatus = iota + 1
	StatusAnalyzing
	StatusReady
	StatusError
)

func (s ProjectStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAnalyzing:
		return "analyzing"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func (s ProjectStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// Segment is one narration beat with its assigned visual.
// Segments keep the order the analyzer produced; timing is trusted as-is.
type Segment struct {
	ID              string  `json:"id"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	Text            string  `json:"text"`
	VisualPrompt    string  `json:"visual_prompt"`
	Emotion         string  `json:"emotion"`
	AssignedImageID string  `json:"assigned_image_id,omitempty"`
}

// Contains reports whether t falls inside the segment's half-open window.
func (s Segment) Contains(t float64) bool {
	return t >= s.StartTime && t < s.EndTime
}

func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// GalleryImage is one uploaded image available for segment assignment.
// Path is where the file lives on disk, URL is the handle clients render.
type GalleryImage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Path     string `json:"-"`
}

// Project is the single editing session: one narration track, its analyzed
// segments, the image gallery, and the playback clock. Nothing here survives
// a process restart.
type Project struct {
	AudioPath string
	AudioURL  string
	AudioMime string
	AudioName string
	Duration  float64

	Segments []Segment
	Gallery  []GalleryImage

	CurrentTime float64
	Playback    PlaybackState

	Status    ProjectStatus
	StatusMsg string

	// Generation increments on every audio upload; analysis results carrying
	// a stale generation are discarded instead of clobbering a newer upload.
	Generation uint64
}
