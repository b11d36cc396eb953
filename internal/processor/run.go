package processor

import (
	"context"

	"codeberg.org/snonux/mcqvideo/internal/journal"
	"codeberg.org/snonux/mcqvideo/internal/logger"
	"codeberg.org/snonux/mcqvideo/internal/render"
	"codeberg.org/snonux/mcqvideo/internal/video"
)

// run is the mutable state of one invocation
type run struct {
	id       string
	dir      string
	cfg      render.Config
	renderer SlideRenderer
	rec      journal.Recorder

	clips   []video.Clip
	skipped int
}

func (r *run) advance(ctx context.Context, log logger.Logger, job *rowJob, next State) {
	log.Debug(ctx, "Row %d: %s -> %s", job.index, job.state, next)
	job.state = next
	r.record(ctx, log, job, next, nil)
}

func (r *run) record(ctx context.Context, log logger.Logger, job *rowJob, state State, cause error) {
	ev := journal.Event{
		RunID:    r.id,
		Row:      job.index,
		State:    string(state),
		Text:     job.text,
		Duration: job.duration,
	}
	if cause != nil {
		ev.Err = cause.Error()
	}
	if err := r.rec.RecordRow(ctx, ev); err != nil {
		log.Warn(ctx, "Journal: %v", err)
	}
}

func (r *run) totalDuration() float64 {
	var total float64
	for _, c := range r.clips {
		total += c.Duration
	}
	return total
}
