// Package models lists the OpenAI speech models available to an API key,
// so users can pick a value for audio.openai_model.
package models
