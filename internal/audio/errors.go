package audio

import "fmt"

// SynthesisError reports a failed narration. It wraps the provider error.
type SynthesisError struct {
	Provider string
	Path     string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis for %s failed (%s): %v", e.Path, e.Provider, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
