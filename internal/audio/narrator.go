package audio

import (
	"context"
	"fmt"
	"os"
)

// Narrator synthesizes slide text through a Provider. It performs no
// retries; callers decide whether to skip the slide on failure.
type Narrator struct {
	provider Provider
}

// NewNarrator creates a narrator backed by provider
func NewNarrator(provider Provider) *Narrator {
	return &Narrator{provider: provider}
}

// Narrate writes speech for text in language to outputFile. Every failure,
// including invalid input and empty provider output, is returned as a
// *SynthesisError.
func (n *Narrator) Narrate(ctx context.Context, text, language, outputFile string) error {
	wrap := func(err error) error {
		return &SynthesisError{Provider: n.provider.Name(), Path: outputFile, Err: err}
	}

	if err := ValidateText(text); err != nil {
		return wrap(err)
	}
	if err := ValidateLanguage(language); err != nil {
		return wrap(err)
	}

	if err := n.provider.GenerateAudio(ctx, text, language, outputFile); err != nil {
		return wrap(err)
	}

	info, err := os.Stat(outputFile)
	if err != nil {
		return wrap(fmt.Errorf("audio file missing after synthesis: %w", err))
	}
	if info.Size() == 0 {
		return wrap(fmt.Errorf("no audio data written"))
	}
	return nil
}

// Name returns the name of the underlying provider
func (n *Narrator) Name() string {
	return n.provider.Name()
}
