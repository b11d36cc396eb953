package audio

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"codeberg.org/snonux/mcqvideo/internal/executor"
)

// ESpeakProvider implements Provider with the local espeak-ng binary. It
// needs no network access and accepts espeak voice names, which are plain
// language codes such as "en" or "gu".
type ESpeakProvider struct {
	exec   executor.Executor
	binary string
	ffmpeg string
	speed  int
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *Config, exec executor.Executor) *ESpeakProvider {
	binary := config.ESpeakBinary
	if binary == "" {
		binary = "espeak-ng"
	}
	speed := config.ESpeakSpeed
	if speed < 80 {
		speed = 80
	} else if speed > 450 {
		speed = 450
	}

	return &ESpeakProvider{
		exec:   exec,
		binary: binary,
		ffmpeg: config.FFmpegBinary,
		speed:  speed,
	}
}

// GenerateAudio renders a temporary WAV with espeak-ng and converts it to
// the output format
func (p *ESpeakProvider) GenerateAudio(ctx context.Context, text, language, outputFile string) error {
	tempWAV := tempSibling(outputFile, "_temp.wav")
	defer os.Remove(tempWAV)

	args := []string{
		"-v", language,
		"-s", strconv.Itoa(p.speed),
		"-w", tempWAV,
		"--", text,
	}
	if _, err := p.exec.Execute(ctx, p.binary, args...); err != nil {
		return fmt.Errorf("espeak-ng failed: %w", err)
	}

	return transcode(ctx, p.exec, p.ffmpeg, tempWAV, outputFile, nil)
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng and ffmpeg are installed
func (p *ESpeakProvider) IsAvailable() error {
	if err := executor.LookPath(p.binary); err != nil {
		return err
	}
	ffmpeg := p.ffmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return executor.LookPath(ffmpeg)
}
