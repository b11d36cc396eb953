// Package audio narrates slide text. It defines the Provider interface
// implemented by the eSpeak NG, OpenAI and Gemini text-to-speech backends,
// decorators for fallback and circuit breaking, and the Narrator that turns
// every backend failure into a SynthesisError.
package audio
