package video

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/snonux/mcqvideo/internal/executor"
)

// MinDuration is used for media whose duration is unknown or not positive
const MinDuration = 1.0

// Frame is the geometry and rate of a video stream
type Frame struct {
	Width  int
	Height int
	FPS    float64
}

type prober struct {
	exec    executor.Executor
	ffprobe string
}

// duration returns the container duration of path in seconds
func (p prober) duration(ctx context.Context, path string) (float64, error) {
	out, err := p.exec.Execute(ctx, p.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}

	value := strings.TrimSpace(out)
	d, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %q: %w", value, err)
	}
	return d, nil
}

// frame returns the geometry of the first video stream of path
func (p prober) frame(ctx context.Context, path string) (Frame, error) {
	out, err := p.exec.Execute(ctx, p.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return Frame{}, fmt.Errorf("ffprobe stream: %w", err)
	}
	return parseFrame(out)
}

// parseFrame parses "width,height,num/den" as printed by ffprobe
func parseFrame(s string) (Frame, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) < 3 {
		return Frame{}, fmt.Errorf("unexpected ffprobe stream output %q", s)
	}

	w, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Frame{}, fmt.Errorf("width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Frame{}, fmt.Errorf("height: %w", err)
	}
	fps, err := parseRate(strings.TrimSpace(fields[2]))
	if err != nil {
		return Frame{}, err
	}
	return Frame{Width: w, Height: h, FPS: fps}, nil
}

func parseRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("frame rate %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("frame rate %q: invalid denominator", s)
	}
	return n / d, nil
}

// commonFrame returns the largest width and height and the highest frame
// rate over frames. Dimensions are rounded up to even numbers for yuv420p.
func commonFrame(frames []Frame) Frame {
	var out Frame
	for _, f := range frames {
		if f.Width > out.Width {
			out.Width = f.Width
		}
		if f.Height > out.Height {
			out.Height = f.Height
		}
		if f.FPS > out.FPS {
			out.FPS = f.FPS
		}
	}
	out.Width += out.Width % 2
	out.Height += out.Height % 2
	return out
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
