package audio

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/genai"

	"codeberg.org/snonux/mcqvideo/internal/executor"
)

const geminiDefaultSampleRate = 24000

// GeminiProvider implements Provider with the Gemini speech generation
// models. Gemini returns raw PCM which is transcoded with ffmpeg.
type GeminiProvider struct {
	config *Config
	exec   executor.Executor

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini TTS provider
func NewGeminiProvider(config *Config, exec executor.Executor) (Provider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	return &GeminiProvider{config: config, exec: exec}, nil
}

// GenerateAudio asks Gemini to speak text and writes the result to outputFile
func (p *GeminiProvider) GenerateAudio(ctx context.Context, text, language, outputFile string) error {
	client, err := p.getClient(ctx)
	if err != nil {
		return err
	}

	resp, err := client.Models.GenerateContent(ctx, p.config.GeminiModel, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: language,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: p.config.GeminiVoice},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("Gemini TTS API error: %w", err)
	}

	blob := firstAudioBlob(resp)
	if blob == nil || len(blob.Data) == 0 {
		return fmt.Errorf("no audio data received from Gemini")
	}

	return p.writeAudio(ctx, blob.Data, blob.MIMEType, outputFile)
}

// writeAudio stores PCM samples in a scratch file and converts them
func (p *GeminiProvider) writeAudio(ctx context.Context, pcm []byte, mimeType, outputFile string) error {
	tempPCM := tempSibling(outputFile, "_temp.pcm")
	if err := os.WriteFile(tempPCM, pcm, 0644); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	defer os.Remove(tempPCM)

	format := &rawPCM{SampleRate: sampleRate(mimeType), Channels: 1}
	return transcode(ctx, p.exec, p.config.FFmpegBinary, tempPCM, outputFile, format)
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if Gemini is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

func firstAudioBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// sampleRate extracts rate=N from a MIME type like
// "audio/L16;codec=pcm;rate=24000"
func sampleRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "rate") {
			continue
		}
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return geminiDefaultSampleRate
}
