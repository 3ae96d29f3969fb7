// Package timeline maps between narration time and horizontal track pixels
// for the editing view: track sizing, ruler ticks, segment block layout and
// hit-testing for click-to-seek and drop-to-assign gestures.
package timeline

import (
	"fmt"
	"math"

	"storyreel/internal/studio"
	"storyreel/internal/types"
)

const (
	// PixelsPerSecond is the fixed horizontal zoom of the track.
	PixelsPerSecond = 50.0

	// MinTrackWidth keeps short narrations from collapsing the track.
	MinTrackWidth = 800.0

	// TickIntervalSeconds is the spacing of ruler tick marks.
	TickIntervalSeconds = 5.0
)

// Tick is one ruler mark on the track.
type Tick struct {
	Seconds float64 `json:"seconds"`
	X       float64 `json:"x"`
	Label   string  `json:"label"`
}

// Block is one segment positioned on the track.
type Block struct {
	SegmentID       string  `json:"segment_id"`
	Left            float64 `json:"left"`
	Width           float64 `json:"width"`
	Text            string  `json:"text"`
	Emotion         string  `json:"emotion"`
	AssignedImageID string  `json:"assigned_image_id,omitempty"`
}

// View is the full render model of the track for the current project.
type View struct {
	PixelsPerSecond float64 `json:"pixels_per_second"`
	TrackWidth      float64 `json:"track_width"`
	Duration        float64 `json:"duration"`
	Ticks           []Tick  `json:"ticks"`
	Blocks          []Block `json:"blocks"`
}

// TrackWidth is the track's content width: proportional to the narration,
// never below the minimum.
func TrackWidth(duration float64) float64 {
	width := duration * PixelsPerSecond
	if width < MinTrackWidth {
		return MinTrackWidth
	}
	return width
}

func TimeToPixel(t float64) float64 {
	return t * PixelsPerSecond
}

func PixelToTime(x float64) float64 {
	return x / PixelsPerSecond
}

// SeekTime maps a click at offsetX inside a rendered element of width
// renderedWidth to a playback time. The click is read as a fraction of the
// rendered element and clamped into [0, 1], so a click halfway across always
// seeks to the middle of the audio no matter how the track was sized.
func SeekTime(offsetX, renderedWidth, duration float64) float64 {
	if renderedWidth <= 0 || duration <= 0 {
		return 0
	}
	fraction := offsetX / renderedWidth
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fraction * duration
}

// Ticks returns ruler marks at fixed intervals from zero through duration.
func Ticks(duration float64) []Tick {
	if duration < 0 {
		duration = 0
	}
	count := int(math.Floor(duration/TickIntervalSeconds)) + 1
	ticks := make([]Tick, 0, count)
	for i := 0; i < count; i++ {
		seconds := float64(i) * TickIntervalSeconds
		ticks = append(ticks, Tick{
			Seconds: seconds,
			X:       TimeToPixel(seconds),
			Label:   formatTickLabel(seconds),
		})
	}
	return ticks
}

// Layout positions every segment on the track and bundles the full view.
func Layout(segments []types.Segment, duration float64) View {
	blocks := make([]Block, 0, len(segments))
	for _, seg := range segments {
		blocks = append(blocks, Block{
			SegmentID:       seg.ID,
			Left:            TimeToPixel(seg.StartTime),
			Width:           TimeToPixel(seg.Duration()),
			Text:            seg.Text,
			Emotion:         seg.Emotion,
			AssignedImageID: seg.AssignedImageID,
		})
	}
	return View{
		PixelsPerSecond: PixelsPerSecond,
		TrackWidth:      TrackWidth(duration),
		Duration:        duration,
		Ticks:           Ticks(duration),
		Blocks:          blocks,
	}
}

// SegmentAt hit-tests a horizontal pixel position against the segment
// windows. It shares the playback resolution rule, so a drop lands on
// exactly the segment the player would show at that time.
func SegmentAt(segments []types.Segment, x float64) (types.Segment, bool) {
	return studio.ActiveSegmentIn(segments, PixelToTime(x))
}

func formatTickLabel(seconds float64) string {
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
