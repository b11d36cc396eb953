package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codeberg.org/snonux/mcqvideo/internal"
	"codeberg.org/snonux/mcqvideo/internal/logger"
	"codeberg.org/snonux/mcqvideo/internal/processor"
)

type implWatcher struct {
	inputDir      string
	handler       EventHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	settle        time.Duration
	semaphore     chan struct{}
	wg            sync.WaitGroup
}

// Start monitors the input directory until ctx is done
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// Files moved into the directory also arrive as CREATE
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !IsTableFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-table file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New table detected: %s", event.Name)

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(filePath string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					select {
					case <-time.After(w.settle):
					case <-ctx.Done():
						return
					}

					if err := w.handler(ctx, filePath); err != nil {
						w.logger.Error(ctx, "Failed to process %s: %v", filePath, err)
					}
				}(event.Name)
			case <-ctx.Done():
				w.wg.Wait()
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// IsTableFile reports whether path has a supported table extension
func IsTableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

// OutputFilename names the final video of a table: quiz-1.csv becomes
// quiz-1.mp4
func OutputFilename(tablePath string) string {
	base := filepath.Base(tablePath)
	return internal.SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base))) + ".mp4"
}

// ToolHandler returns an EventHandler that runs tool for each table with
// defaults for every argument except the output name
func ToolHandler(tool processor.Tool, log logger.Logger) EventHandler {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, filePath string) error {
		resp := tool.Invoke(ctx, processor.Request{
			CSVFilePath:    filePath,
			OutputFilename: OutputFilename(filePath),
		})
		if resp.IsError {
			return fmt.Errorf("%s", resp.Result)
		}
		log.Info(ctx, "Video for %s written to %s", filepath.Base(filePath), resp.Result)
		return nil
	}
}
