package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"codeberg.org/snonux/mcqvideo/internal/executor"
	"codeberg.org/snonux/mcqvideo/internal/logger"
)

// Concatenator joins clips into one video
type Concatenator struct {
	cfg    Config
	exec   executor.Executor
	probe  prober
	logger logger.Logger
}

// NewConcatenator creates a Concatenator. A nil logger discards output.
func NewConcatenator(cfg Config, exec executor.Executor, log logger.Logger) *Concatenator {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Concatenator{
		cfg:    cfg,
		exec:   exec,
		probe:  prober{exec: exec, ffprobe: cfg.FFprobe},
		logger: log,
	}
}

// Concat writes clips in order to outputPath. Clips of differing size are
// scaled to fit and padded to the largest frame; all are resampled to the
// highest frame rate.
func (c *Concatenator) Concat(ctx context.Context, clips []string, outputPath string) error {
	if len(clips) == 0 {
		return ErrEmptyInput
	}
	for _, clip := range clips {
		if _, err := os.Stat(clip); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &MissingClipError{Path: clip}
			}
			return &ConcatenationError{Output: outputPath, Err: err}
		}
	}

	fail := func(err error) error {
		os.Remove(outputPath)
		return &ConcatenationError{Output: outputPath, Err: err}
	}

	frames := make([]Frame, 0, len(clips))
	for _, clip := range clips {
		f, err := c.probe.frame(ctx, clip)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", clip, err))
		}
		frames = append(frames, f)
	}
	frame := commonFrame(frames)

	c.logger.Info(ctx, "Concatenating %d clips at %dx%d, %s fps", len(clips), frame.Width, frame.Height, formatRate(frame.FPS))

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, clip := range clips {
		args = append(args, "-i", clip)
	}
	args = append(args,
		"-filter_complex", concatFilter(len(clips), frame),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", c.cfg.VideoCodec,
		"-preset", c.cfg.Preset,
		"-pix_fmt", "yuv420p",
		"-c:a", c.cfg.AudioCodec,
		"-movflags", "+faststart",
		outputPath,
	)

	if _, err := c.exec.Execute(ctx, c.cfg.FFmpeg, args...); err != nil {
		return fail(err)
	}
	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		return fail(fmt.Errorf("encoder produced no output"))
	}
	return nil
}

// concatFilter builds a filter graph that normalizes every input to frame
// and feeds the results to the concat filter in order
func concatFilter(n int, frame Frame) string {
	var parts []string
	var inputs strings.Builder

	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%s[v%d]",
			i, frame.Width, frame.Height, frame.Width, frame.Height, formatRate(frame.FPS), i))
		parts = append(parts, fmt.Sprintf("[%d:a]aresample=44100,aformat=channel_layouts=stereo[a%d]", i, i))
		fmt.Fprintf(&inputs, "[v%d][a%d]", i, i)
	}

	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", inputs.String(), n))
	return strings.Join(parts, ";")
}
