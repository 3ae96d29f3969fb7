package types

import (
	"context"
	"errors"
	"strings"
)

// SegmentDraft is one row of analyzer output before segment ids are minted.
type SegmentDraft struct {
	StartTime         float64 `json:"start_time"`
	EndTime           float64 `json:"end_time"`
	Text              string  `json:"text"`
	VisualDescription string  `json:"visual_description"`
	Emotion           string  `json:"emotion"`
}

// Validate checks the textual fields every draft must carry. Timing values
// are passed through untouched, segment order and contiguity are the
// analyzer's responsibility.
func (d SegmentDraft) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return errors.New("segment text is empty")
	}
	if strings.TrimSpace(d.VisualDescription) == "" {
		return errors.New("segment visual_description is empty")
	}
	if strings.TrimSpace(d.Emotion) == "" {
		return errors.New("segment emotion is empty")
	}
	return nil
}

// NarrationAnalyzer turns raw narration audio into an ordered list of timed
// story segments. Implementations call an external model and must return
// either a fully valid list or an error, never a partial one.
type NarrationAnalyzer interface {
	AnalyzeNarration(ctx context.Context, audio []byte, mimeType string) ([]SegmentDraft, error)
}

// NarrationAnalysisPrompt is the fixed instruction sent with the audio on
// every analysis request.
var NarrationAnalysisPrompt = `You are a narration analysis assistant for a slideshow studio.
Listen to the attached narration audio, transcribe it, and split the transcript into consecutive story segments. Cut at natural sentence or topic boundaries.

For every segment provide:
1. "start_time": segment start in seconds from the beginning of the audio, as a number.
2. "end_time": segment end in seconds, as a number.
3. "text": the transcribed narration for this segment.
4. "visual_description": a short prompt describing an image that would fit this part of the story.
5. "emotion": one or two words naming the emotional tone (e.g. "calm", "tense", "joyful").

Return ONLY a JSON array of segment objects, ordered by start_time, with all five fields present on every object. No markdown, no commentary.

Example output:
[
  {
    "start_time": 0,
    "end_time": 6.4,
    "text": "Once upon a time a lighthouse keeper lived alone on a rocky island.",
    "visual_description": "A weathered lighthouse on a small rocky island at dusk, waves crashing",
    "emotion": "calm"
  }
]`
