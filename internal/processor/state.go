package processor

import (
	"os"
	"path/filepath"
	"strconv"
)

// State is the progress of one row
type State string

// Row states. A row moves forward one state at a time and may end up
// skipped from any state before done.
const (
	StatePending  State = "pending"
	StateRendered State = "rendered"
	StateNarrated State = "narrated"
	StateClipped  State = "clipped"
	StateDone     State = "done"
	StateSkipped  State = "skipped"
)

// Artifact file names inside the output directory, n is 1-based
func imageName(n int) string { return "mcq_img_" + strconv.Itoa(n) + ".png" }
func audioName(n int) string { return "mcq_audio_" + strconv.Itoa(n) + ".mp3" }
func clipName(n int) string { return "mcq_video_" + strconv.Itoa(n) + ".mp4" }

// rowJob tracks one row through the pipeline
type rowJob struct {
	index int // 1-based
	cells []string
	state State

	imagePath string
	audioPath string
	clipPath  string

	text     string
	duration float64
}

func newRowJob(dir string, index int, cells []string) *rowJob {
	return &rowJob{
		index:     index,
		cells:     cells,
		state:     StatePending,
		imagePath: filepath.Join(dir, imageName(index)),
		audioPath: filepath.Join(dir, audioName(index)),
		clipPath:  filepath.Join(dir, clipName(index)),
	}
}

// removeArtifacts deletes every file the row may have written
func (j *rowJob) removeArtifacts() []error {
	var errs []error
	for _, path := range []string{j.imagePath, j.audioPath, j.clipPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errs
}
