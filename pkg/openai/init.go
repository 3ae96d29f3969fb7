// Package openai implements narration analysis on the OpenAI stack: Whisper
// supplies the timed transcript, one chat completion supplies the visual and
// emotion tags per segment.
package openai

import (
	"net/http"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client       *openai.Client
	whisperModel string
	chatModel    string
}

func NewClient(baseUrl, apiKey, whisperModel, chatModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}

	// No client-side timeout here; the caller bounds every request through
	// its context.
	cfg.HTTPClient = &http.Client{
		Transport: &http.Transport{},
	}

	if whisperModel == "" {
		whisperModel = openai.Whisper1
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	return &Client{
		client:       openai.NewClientWithConfig(cfg),
		whisperModel: whisperModel,
		chatModel:    chatModel,
	}
}
