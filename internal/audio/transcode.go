package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/mcqvideo/internal/executor"
)

// rawPCM describes headerless signed 16-bit little-endian samples
type rawPCM struct {
	SampleRate int
	Channels   int
}

// transcode converts inputFile to the format implied by the extension of
// outputFile using ffmpeg. A nil pcm means the input carries its own header.
func transcode(ctx context.Context, exec executor.Executor, ffmpeg, inputFile, outputFile string, pcm *rawPCM) error {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if pcm != nil {
		args = append(args,
			"-f", "s16le",
			"-ar", fmt.Sprintf("%d", pcm.SampleRate),
			"-ac", fmt.Sprintf("%d", pcm.Channels),
		)
	}
	args = append(args, "-i", inputFile)

	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".wav":
		args = append(args, "-c:a", "pcm_s16le")
	default:
		args = append(args, "-c:a", "libmp3lame", "-q:a", "2")
	}
	args = append(args, outputFile)

	if _, err := exec.Execute(ctx, ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w", err)
	}
	return nil
}

// tempSibling returns a scratch path next to outputFile
func tempSibling(outputFile, suffix string) string {
	return strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + suffix
}
