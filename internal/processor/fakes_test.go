package processor

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/snonux/mcqvideo/internal/journal"
	"codeberg.org/snonux/mcqvideo/internal/video"
)

type fakeNarrator struct {
	fail  func(text string) error
	delay time.Duration

	mu        sync.Mutex
	texts     []string
	languages []string

	active    int32
	maxActive int32
}

func (f *fakeNarrator) Narrate(ctx context.Context, text, language, outputFile string) error {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.languages = append(f.languages, language)
	f.mu.Unlock()

	// A failing provider may leave a partial file behind
	if err := os.WriteFile(outputFile, []byte("audio"), 0644); err != nil {
		return err
	}
	if f.fail != nil {
		if err := f.fail(text); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNarrator) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeComposer struct {
	duration float64
	err      error

	mu   sync.Mutex
	fps  []int
	outs []string
}

func (f *fakeComposer) ComposeClip(ctx context.Context, imagePath, audioPath, outputPath string, fps int) (video.Clip, error) {
	f.mu.Lock()
	f.fps = append(f.fps, fps)
	f.outs = append(f.outs, outputPath)
	f.mu.Unlock()

	if f.err != nil {
		return video.Clip{}, f.err
	}
	if err := os.WriteFile(outputPath, []byte("clip"), 0644); err != nil {
		return video.Clip{}, err
	}
	d := f.duration
	if d == 0 {
		d = 1.5
	}
	return video.Clip{Path: outputPath, Duration: d}, nil
}

type fakeConcatenator struct {
	err error

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeConcatenator) Concat(ctx context.Context, clips []string, outputPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), clips...))
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("final video"), 0644)
}

func (f *fakeConcatenator) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

type memoryRecorder struct {
	mu       sync.Mutex
	runs     []journal.Run
	events   []journal.Event
	summary  journal.Summary
	finished bool
	closed   bool
}

func (m *memoryRecorder) StartRun(ctx context.Context, run journal.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRecorder) RecordRow(ctx context.Context, ev journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memoryRecorder) FinishRun(ctx context.Context, runID string, s journal.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = s
	m.finished = true
	return nil
}

func (m *memoryRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
