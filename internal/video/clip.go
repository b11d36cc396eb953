package video

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"codeberg.org/snonux/mcqvideo/internal/executor"
	"codeberg.org/snonux/mcqvideo/internal/logger"
)

// Clip is an encoded slide with its narration
type Clip struct {
	Path     string
	Duration float64
}

// Composer pairs a still image with an audio track
type Composer struct {
	cfg    Config
	exec   executor.Executor
	probe  prober
	logger logger.Logger
}

// NewComposer creates a Composer. A nil logger discards output.
func NewComposer(cfg Config, exec executor.Executor, log logger.Logger) *Composer {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Composer{
		cfg:    cfg,
		exec:   exec,
		probe:  prober{exec: exec, ffprobe: cfg.FFprobe},
		logger: log,
	}
}

// AudioDuration returns the length of audioPath in seconds, or MinDuration
// when it cannot be determined or is not positive
func (c *Composer) AudioDuration(ctx context.Context, audioPath string) float64 {
	d, err := c.probe.duration(ctx, audioPath)
	if err != nil {
		c.logger.Warn(ctx, "Could not read duration of %s, using %.1fs: %v", audioPath, MinDuration, err)
		return MinDuration
	}
	if d <= 0 {
		return MinDuration
	}
	return d
}

// ComposeClip encodes imagePath held for the duration of audioPath into
// outputPath at fps frames per second. A partial output is removed on
// failure.
func (c *Composer) ComposeClip(ctx context.Context, imagePath, audioPath, outputPath string, fps int) (Clip, error) {
	fail := func(err error) (Clip, error) {
		os.Remove(outputPath)
		return Clip{}, &ClipBuildError{Path: outputPath, Err: err}
	}

	for _, in := range []string{imagePath, audioPath} {
		if _, err := os.Stat(in); err != nil {
			return fail(fmt.Errorf("input missing: %w", err))
		}
	}
	if fps <= 0 {
		return fail(fmt.Errorf("invalid frame rate %d", fps))
	}

	duration := c.AudioDuration(ctx, audioPath)
	rate := strconv.Itoa(fps)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-loop", "1",
		"-framerate", rate,
		"-i", imagePath,
		"-i", audioPath,
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-r", rate,
		"-c:v", c.cfg.VideoCodec,
		"-preset", c.cfg.Preset,
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		// yuv420p needs even dimensions
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:a", c.cfg.AudioCodec,
		"-movflags", "+faststart",
		outputPath,
	}

	c.logger.Debug(ctx, "Encoding clip %s (%.2fs)", outputPath, duration)
	if _, err := c.exec.Execute(ctx, c.cfg.FFmpeg, args...); err != nil {
		return fail(err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fail(fmt.Errorf("clip missing after encoding: %w", err))
	}
	if info.Size() == 0 {
		return fail(fmt.Errorf("encoder wrote an empty clip"))
	}

	return Clip{Path: outputPath, Duration: duration}, nil
}
