package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"codeberg.org/snonux/mcqvideo/internal/logger"
)

// Options tune a Watcher
type Options struct {
	// MaxConcurrent bounds the tables processed at once, default 1
	MaxConcurrent int

	// Settle is the wait between noticing a file and handling it so the
	// writer can finish, default 500ms
	Settle time.Duration
}

// New creates a new Watcher for inputDir
func New(inputDir string, handler EventHandler, log logger.Logger, opts Options) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	if log == nil {
		log = logger.Nop()
	}

	return &implWatcher{
		inputDir:      inputDir,
		handler:       handler,
		logger:        log,
		watcher:       watcher,
		maxConcurrent: opts.MaxConcurrent,
		settle:        opts.Settle,
		semaphore:     make(chan struct{}, opts.MaxConcurrent),
	}, nil
}
