package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
	"storyreel/pkg/util"
)

const enrichmentSystemPrompt = `You are a narration analysis assistant for a slideshow studio.
You receive transcribed narration segments. For each segment, in the given order, provide:
1. "visual_description": a short prompt describing an image that would fit this part of the story.
2. "emotion": one or two words naming the emotional tone.

Return ONLY a JSON object of the shape {"segments": [{"visual_description": "...", "emotion": "..."}, ...]} with exactly one entry per input segment, same order. No markdown, no commentary.`

var mimeExtensions = map[string]string{
	"audio/mpeg": "mp3",
	"audio/wav":  "wav",
	"audio/mp4":  "m4a",
	"audio/aac":  "aac",
	"audio/ogg":  "ogg",
	"audio/flac": "flac",
	"audio/webm": "webm",
}

type enrichmentRow struct {
	VisualDescription string `json:"visual_description"`
	Emotion           string `json:"emotion"`
}

type enrichmentReply struct {
	Segments []enrichmentRow `json:"segments"`
}

// AnalyzeNarration transcribes the audio with Whisper and enriches every
// timed row with a visual prompt and an emotion tag. Transcription failure
// fails the whole call; enrichment failure degrades to neutral tags so the
// segments still come back usable.
func (c *Client) AnalyzeNarration(ctx context.Context, audio []byte, mimeType string) ([]types.SegmentDraft, error) {
	if len(audio) == 0 {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "no audio data to analyze")
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.whisperModel,
		Reader:   bytes.NewReader(audio),
		FilePath: "narration." + extensionForMime(mimeType),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAnalysisFailed, "transcription failed", err)
	}
	if len(resp.Segments) == 0 {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "transcription returned no segments")
	}

	drafts := make([]types.SegmentDraft, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		drafts = append(drafts, types.SegmentDraft{
			StartTime:         seg.Start,
			EndTime:           seg.End,
			Text:              text,
			VisualDescription: text,
			Emotion:           "neutral",
		})
	}
	if len(drafts) == 0 {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "transcription returned only empty segments")
	}

	c.enrich(ctx, drafts)
	return drafts, nil
}

// enrich asks the chat model for visual/emotion tags and applies them in
// place. Any failure leaves the neutral defaults.
func (c *Client) enrich(ctx context.Context, drafts []types.SegmentDraft) {
	rows := make([]map[string]any, 0, len(drafts))
	for i, draft := range drafts {
		rows = append(rows, map[string]any{"index": i, "text": draft.Text})
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enrichmentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(encoded)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.GetLogger().Warn("segment enrichment failed, keeping neutral tags", zap.Error(err))
		return
	}
	if len(resp.Choices) == 0 {
		return
	}

	var reply enrichmentReply
	cleaned := util.ExtractJSONFromText(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		log.GetLogger().Warn("unreadable enrichment reply, keeping neutral tags", zap.Error(err))
		return
	}
	if len(reply.Segments) != len(drafts) {
		log.GetLogger().Warn("enrichment reply length mismatch, keeping neutral tags",
			zap.Int("expected", len(drafts)),
			zap.Int("got", len(reply.Segments)))
		return
	}

	for i := range drafts {
		if visual := strings.TrimSpace(reply.Segments[i].VisualDescription); visual != "" {
			drafts[i].VisualDescription = visual
		}
		if emotion := strings.TrimSpace(reply.Segments[i].Emotion); emotion != "" {
			drafts[i].Emotion = emotion
		}
	}
}

func extensionForMime(mimeType string) string {
	base := mimeType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	if ext, ok := mimeExtensions[strings.TrimSpace(strings.ToLower(base))]; ok {
		return ext
	}
	return "mp3"
}

var _ types.NarrationAnalyzer = (*Client)(nil)
