package audio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/snonux/mcqvideo/internal/executor"
	"codeberg.org/snonux/mcqvideo/internal/logger"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// GenerateAudio speaks text in the given language and saves it to outputFile
	GenerateAudio(ctx context.Context, text, language, outputFile string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Provider names accepted in Config.Provider and Config.Fallback
const (
	ProviderESpeak = "espeak"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds common configuration for audio providers
type Config struct {
	Provider string // "espeak", "openai" or "gemini"
	Fallback string // optional second provider, "" for none

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIBaseURL     string  // empty for the public API
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // extra voice instructions for gpt-4o-mini-tts

	// Gemini-specific settings
	GeminiKey   string
	GeminiModel string
	GeminiVoice string

	// eSpeak NG settings
	ESpeakBinary string
	ESpeakSpeed  int // words per minute

	FFmpegBinary string // used to transcode raw synthesizer output to MP3

	// Cloud providers trip after BreakerFailures consecutive failures and
	// reject calls for BreakerTimeout. Zero failures disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:        ProviderESpeak,
		OpenAIModel:     "gpt-4o-mini-tts",
		OpenAIVoice:     "alloy",
		OpenAISpeed:     1.0,
		GeminiModel:     "gemini-2.5-flash-preview-tts",
		GeminiVoice:     "Kore",
		ESpeakBinary:    "espeak-ng",
		ESpeakSpeed:     150,
		FFmpegBinary:    "ffmpeg",
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
	}
}

// NewProvider creates the provider chain described by config: the primary
// provider, wrapped in a circuit breaker when it is a cloud service, and
// optionally followed by a fallback.
func NewProvider(config *Config, exec executor.Executor, log logger.Logger) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	primary, err := newSingleProvider(config.Provider, config, exec)
	if err != nil {
		return nil, err
	}

	fallbackName := strings.TrimSpace(config.Fallback)
	if fallbackName == "" || fallbackName == config.Provider {
		return primary, nil
	}

	fallback, err := newSingleProvider(fallbackName, config, exec)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return NewProviderWithFallback(primary, fallback, log), nil
}

func newSingleProvider(name string, config *Config, exec executor.Executor) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch name {
	case ProviderESpeak:
		return NewESpeakProvider(config, exec), nil
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(config)
	case ProviderGemini:
		p, err = NewGeminiProvider(config, exec)
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", name)
	}
	if err != nil {
		return nil, err
	}

	if config.BreakerFailures > 0 {
		p = NewBreakerProvider(p, config.BreakerFailures, config.BreakerTimeout)
	}
	return p, nil
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   logger.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, log logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   log,
	}
}

// GenerateAudio tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) GenerateAudio(ctx context.Context, text, language, outputFile string) error {
	err := p.primary.GenerateAudio(ctx, text, language, outputFile)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	p.logger.Warn(ctx, "Primary provider (%s) failed: %v. Falling back to %s",
		p.primary.Name(), err, p.fallback.Name())

	if ferr := p.fallback.GenerateAudio(ctx, text, language, outputFile); ferr != nil {
		return fmt.Errorf("primary %s: %v; fallback %s: %w", p.primary.Name(), err, p.fallback.Name(), ferr)
	}
	return nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
