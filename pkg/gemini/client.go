// Package gemini calls the Gemini generateContent API to turn narration
// audio into timed story segments. The model is treated as a black box:
// instruction plus audio in, strict JSON segment array out.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storyreel/internal/types"
	"storyreel/log"
	apperrors "storyreel/pkg/errors"
	"storyreel/pkg/util"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Client struct {
	client *resty.Client
	apiKey string
	model  string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		apiKey: apiKey,
		model:  model,
	}
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type schemaProperty struct {
	Type string `json:"type"`
}

type responseSchema struct {
	Type  string `json:"type"`
	Items struct {
		Type       string                    `json:"type"`
		Properties map[string]schemaProperty `json:"properties"`
		Required   []string                  `json:"required"`
	} `json:"items"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"response_mime_type"`
	ResponseSchema   responseSchema `json:"response_schema"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func segmentSchema() responseSchema {
	schema := responseSchema{Type: "ARRAY"}
	schema.Items.Type = "OBJECT"
	schema.Items.Properties = map[string]schemaProperty{
		"start_time":         {Type: "NUMBER"},
		"end_time":           {Type: "NUMBER"},
		"text":               {Type: "STRING"},
		"visual_description": {Type: "STRING"},
		"emotion":            {Type: "STRING"},
	}
	schema.Items.Required = []string{"start_time", "end_time", "text", "visual_description", "emotion"}
	return schema
}

// AnalyzeNarration submits the audio with the fixed analysis instruction and
// parses the model's JSON reply. Either a fully valid segment list comes back
// or an error; a malformed reply never yields a partial result.
func (c *Client) AnalyzeNarration(ctx context.Context, audio []byte, mimeType string) ([]types.SegmentDraft, error) {
	if len(audio) == 0 {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "no audio data to analyze")
	}

	body := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: types.NarrationAnalysisPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   segmentSchema(),
		},
	}

	var parsed generateContentResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&parsed).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAnalysisFailed, "analysis request failed", err)
	}
	if resp.IsError() {
		detail := strings.TrimSpace(string(resp.Body()))
		if parsed.Error != nil {
			detail = parsed.Error.Message
		}
		return nil, apperrors.WrapWithDetail(apperrors.CodeAnalysisFailed,
			fmt.Sprintf("analysis service returned %d", resp.StatusCode()), detail, nil)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "analysis service returned no candidates")
	}

	raw := parsed.Candidates[0].Content.Parts[0].Text
	drafts, err := parseSegmentDrafts(raw)
	if err != nil {
		log.GetLogger().Error("gemini returned an unusable segment list",
			zap.String("model", c.model),
			zap.Error(err))
		return nil, err
	}
	return drafts, nil
}

func parseSegmentDrafts(raw string) ([]types.SegmentDraft, error) {
	cleaned := util.ExtractJSONFromText(raw)

	var drafts []types.SegmentDraft
	if err := json.Unmarshal([]byte(cleaned), &drafts); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAnalysisFailed, "analysis reply is not a JSON segment array", err)
	}
	if len(drafts) == 0 {
		return nil, apperrors.New(apperrors.CodeAnalysisFailed, "analysis reply contains no segments")
	}
	for i, draft := range drafts {
		if err := draft.Validate(); err != nil {
			return nil, apperrors.WrapWithDetail(apperrors.CodeAnalysisFailed,
				"analysis reply violates the segment schema",
				fmt.Sprintf("segment %d: %v", i, err), nil)
		}
	}
	return drafts, nil
}
