package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/mcqvideo/internal"
	"codeberg.org/snonux/mcqvideo/internal/archive"
	"codeberg.org/snonux/mcqvideo/internal/batch"
	"codeberg.org/snonux/mcqvideo/internal/journal"
	"codeberg.org/snonux/mcqvideo/internal/logger"
	"codeberg.org/snonux/mcqvideo/internal/render"
	"codeberg.org/snonux/mcqvideo/internal/video"
)

// SlideRenderer draws a row onto a slide and returns the text to narrate
type SlideRenderer interface {
	Render(ctx context.Context, cells []string, imagePath string) (string, error)
}

// Narrator speaks text into an audio file
type Narrator interface {
	Narrate(ctx context.Context, text, language, outputFile string) error
}

// ClipComposer holds a slide for the length of its narration
type ClipComposer interface {
	ComposeClip(ctx context.Context, imagePath, audioPath, outputPath string, fps int) (video.Clip, error)
}

// Concatenator joins clips into the final video
type Concatenator interface {
	Concat(ctx context.Context, clips []string, outputPath string) error
}

// Config holds the settings shared by all invocations
type Config struct {
	// Render supplies every value a request does not set
	Render render.Config

	// BaseDir is where output directories are created, "" for the working
	// directory
	BaseDir string

	// Journal records row progress in <output-dir>/mcq_journal.db
	Journal bool

	// Archive moves an existing output directory away before a run
	Archive bool
}

// Deps are the pipeline stages. NewRenderer is called once per invocation
// because requests may change the canvas and font.
type Deps struct {
	NewRenderer  func(render.Config) SlideRenderer
	Narrator     Narrator
	Composer     ClipComposer
	Concatenator Concatenator
	OpenJournal  func(path string) (journal.Recorder, error)
	Logger       logger.Logger
}

// Processor implements Tool
type Processor struct {
	cfg   Config
	deps  Deps
	log   logger.Logger
	locks *dirLocks
}

// New creates a Processor. Missing optional dependencies get defaults: the
// x/image slide renderer, the SQLite journal and a discarding logger.
func New(cfg Config, deps Deps) (*Processor, error) {
	if deps.Narrator == nil || deps.Composer == nil || deps.Concatenator == nil {
		return nil, fmt.Errorf("narrator, composer and concatenator are required")
	}
	if deps.NewRenderer == nil {
		deps.NewRenderer = func(c render.Config) SlideRenderer { return render.NewRenderer(c) }
	}
	if deps.OpenJournal == nil {
		deps.OpenJournal = func(path string) (journal.Recorder, error) { return journal.Open(path) }
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	return &Processor{
		cfg:   cfg,
		deps:  deps,
		log:   deps.Logger,
		locks: newDirLocks(),
	}, nil
}

// Invoke runs one create_mcq_video call. It never panics and never returns
// a Go error; every outcome is a Response.
func (p *Processor) Invoke(ctx context.Context, req Request) (resp Response) {
	id := uuid.NewString()
	ctx = logger.WithInvocation(ctx, id[:8])

	defer func() {
		if r := recover(); r != nil {
			p.log.Error(ctx, "Panic during video generation: %v", r)
			resp = failure("Error: An unexpected error occurred during video generation: %v", r)
		}
	}()

	start := time.Now()
	p.log.Info(ctx, "%s called for %s", ToolName, req.CSVFilePath)

	resp = p.invoke(ctx, id, req)
	if resp.IsError {
		p.log.Error(ctx, "%s", resp.Result)
	} else {
		p.log.Info(ctx, "Final video created at %s in %s", resp.Result, time.Since(start).Round(time.Millisecond))
	}
	return resp
}

func (p *Processor) invoke(ctx context.Context, runID string, req Request) Response {
	rc, outputFilename, err := req.resolve(p.cfg.Render)
	if err != nil {
		return failure("Error: invalid request: %v", err)
	}

	rows, resp, ok := p.preflight(req.CSVFilePath, rc)
	if !ok {
		return resp
	}

	outDir, err := filepath.Abs(filepath.Join(p.cfg.BaseDir, internal.OutputDirName(outputFilename)))
	if err != nil {
		return failure("Error: An unexpected error occurred during video generation: %v", err)
	}

	release, err := p.locks.acquire(ctx, outDir)
	if err != nil {
		return failure("Error: An unexpected error occurred during video generation: %v", err)
	}
	defer release()

	if p.cfg.Archive {
		archived, err := archive.OutputDir(outDir)
		if err != nil {
			return failure("Error: An unexpected error occurred during video generation: %v", err)
		}
		if archived != "" {
			p.log.Info(ctx, "Archived previous output to %s", archived)
		}
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return failure("Error: An unexpected error occurred during video generation: failed to create output directory: %v", err)
	}
	finalPath := filepath.Join(outDir, outputFilename)

	rec := p.openJournal(ctx, outDir)
	defer rec.Close()

	inv := &run{
		id:       runID,
		dir:      outDir,
		cfg:      rc,
		renderer: p.deps.NewRenderer(rc),
		rec:      rec,
	}
	if err := rec.StartRun(ctx, journal.Run{ID: runID, InputPath: req.CSVFilePath, OutputPath: finalPath, Rows: len(rows)}); err != nil {
		p.log.Warn(ctx, "Journal: %v", err)
	}

	resp = p.process(ctx, inv, rows, finalPath)

	if err := rec.FinishRun(ctx, runID, journal.Summary{
		Processed: len(inv.clips),
		Skipped:   inv.skipped,
		Duration:  inv.totalDuration(),
		Result:    resp.Result,
	}); err != nil {
		p.log.Warn(ctx, "Journal: %v", err)
	}
	return resp
}

// preflight performs the global checks. Nothing is written to disk before
// they all pass.
func (p *Processor) preflight(csvPath string, rc render.Config) ([]batch.Row, Response, bool) {
	if _, err := os.Stat(csvPath); err != nil {
		return nil, failure("Error: Input CSV file not found at '%s'", csvPath), false
	}

	if err := render.CheckFont(rc.FontPath); err != nil {
		return nil, failure("Error: Font file not found at '%s'. Please provide a valid path.", rc.FontPath), false
	}

	rows, err := batch.ReadTable(csvPath, nil)
	switch {
	case errors.Is(err, batch.ErrEmptyFile):
		return nil, failure("Error: CSV file '%s' is empty.", csvPath), false
	case errors.Is(err, batch.ErrNoRows):
		return nil, failure("Error: CSV file '%s' seems to be empty or contains no valid data rows.", csvPath), false
	case err != nil:
		return nil, failure("Error reading CSV file '%s': %v", csvPath, err), false
	}
	return rows, Response{}, true
}

func (p *Processor) openJournal(ctx context.Context, dir string) journal.Recorder {
	if !p.cfg.Journal {
		return journal.Nop()
	}
	rec, err := p.deps.OpenJournal(filepath.Join(dir, journal.FileName))
	if err != nil {
		p.log.Warn(ctx, "Journal disabled: %v", err)
		return journal.Nop()
	}
	return rec
}

// process runs every row and then joins the clips
func (p *Processor) process(ctx context.Context, r *run, rows []batch.Row, finalPath string) Response {
	p.log.Info(ctx, "Processing %d rows into %s", len(rows), r.dir)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return failure("Error: An unexpected error occurred during video generation: %v", err)
		}

		job := newRowJob(r.dir, i+1, row)
		p.log.Info(ctx, "Processing row %d/%d", job.index, len(rows))

		if err := p.processRow(ctx, r, job); err != nil {
			if ctx.Err() != nil {
				p.cleanupRow(ctx, job)
				return failure("Error: An unexpected error occurred during video generation: %v", ctx.Err())
			}
			p.skipRow(ctx, r, job, err)
			continue
		}
		r.clips = append(r.clips, video.Clip{Path: job.clipPath, Duration: job.duration})
	}

	p.log.Info(ctx, "Rows processed: %d, skipped: %d, estimated total duration: %.2fs",
		len(r.clips), r.skipped, r.totalDuration())

	if len(r.clips) == 0 {
		return failure("Error: No individual video clips were successfully generated. Final video cannot be created.")
	}

	paths := make([]string, len(r.clips))
	for i, c := range r.clips {
		paths[i] = c.Path
	}

	p.log.Info(ctx, "Concatenating %d clips into %s", len(paths), finalPath)
	if err := p.deps.Concatenator.Concat(ctx, paths, finalPath); err != nil {
		return failure("Error during final video concatenation: %v", err)
	}
	return success(finalPath)
}

// processRow drives one row from pending to done
func (p *Processor) processRow(ctx context.Context, r *run, job *rowJob) error {
	text, err := r.renderer.Render(ctx, job.cells, job.imagePath)
	if err != nil {
		return fmt.Errorf("rendering slide: %w", err)
	}
	if text == "" {
		return errNothingToNarrate
	}
	job.text = text
	r.advance(ctx, p.log, job, StateRendered)

	if err := p.deps.Narrator.Narrate(ctx, text, r.cfg.Language, job.audioPath); err != nil {
		return err
	}
	r.advance(ctx, p.log, job, StateNarrated)

	clip, err := p.deps.Composer.ComposeClip(ctx, job.imagePath, job.audioPath, job.clipPath, r.cfg.FPS)
	if err != nil {
		return err
	}
	job.duration = clip.Duration
	r.advance(ctx, p.log, job, StateClipped)

	r.advance(ctx, p.log, job, StateDone)
	p.log.Info(ctx, "Row %d done (%.2fs)", job.index, job.duration)
	return nil
}

var errNothingToNarrate = errors.New("row has no text to narrate")

func (p *Processor) skipRow(ctx context.Context, r *run, job *rowJob, cause error) {
	p.log.Warn(ctx, "Skipping row %d in state %s: %v", job.index, job.state, cause)
	p.cleanupRow(ctx, job)
	r.skipped++
	r.record(ctx, p.log, job, StateSkipped, cause)
	job.state = StateSkipped
}

func (p *Processor) cleanupRow(ctx context.Context, job *rowJob) {
	for _, err := range job.removeArtifacts() {
		p.log.Warn(ctx, "Failed to remove partial file: %v", err)
	}
}
