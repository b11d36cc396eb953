package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL selects the
// public API.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// SpeechModels returns the sorted IDs of the text-to-speech capable models
func (l *Lister) SpeechModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .mcqvideo.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var speech []string
	for _, model := range models.Models {
		if strings.Contains(model.ID, "tts") || strings.Contains(model.ID, "audio") {
			speech = append(speech, model.ID)
		}
	}
	sort.Strings(speech)
	return speech, nil
}

// ListSpeechModels prints the speech models to w
func (l *Lister) ListSpeechModels(ctx context.Context, w io.Writer) error {
	speech, err := l.SpeechModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available OpenAI Text-to-Speech Models:")
	if len(speech) == 0 {
		fmt.Fprintln(w, "  No TTS models found")
		return nil
	}
	for _, model := range speech {
		fmt.Fprintf(w, "  %s\n", model)
	}
	fmt.Fprintln(w, "\nModels accepting voice instructions: gpt-4o-mini-tts")
	return nil
}
