package video

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/mcqvideo/internal/testutil"
)

// mediaExecutor fakes ffprobe with a fixed answer and ffmpeg by writing
// the output file
func mediaExecutor(probeOut string, ffmpegErr error) *testutil.FakeExecutor {
	return &testutil.FakeExecutor{
		Handler: func(name string, args []string) (string, error) {
			switch name {
			case "ffprobe":
				return probeOut, nil
			case "ffmpeg":
				if ffmpegErr != nil {
					testutil.WriteOutput(args)
					return "", ffmpegErr
				}
				return "", testutil.WriteOutput(args)
			}
			return "", errors.New("unexpected command " + name)
		},
	}
}

func createInputs(t *testing.T) (dir, image, audio string) {
	dir = t.TempDir()
	image = filepath.Join(dir, "mcq_img_1.png")
	audio = filepath.Join(dir, "mcq_audio_1.mp3")
	testutil.CreateTestFile(t, image, []byte("png"))
	testutil.CreateTestFile(t, audio, testutil.GenerateAudioData())
	return dir, image, audio
}

func TestComposeClip(t *testing.T) {
	dir, image, audio := createInputs(t)
	out := filepath.Join(dir, "mcq_video_1.mp4")
	exec := mediaExecutor("3.456000\n", nil)

	clip, err := NewComposer(DefaultConfig(), exec, nil).ComposeClip(context.Background(), image, audio, out, 24)
	if err != nil {
		t.Fatalf("ComposeClip() error = %v", err)
	}
	if clip.Path != out || clip.Duration != 3.456 {
		t.Errorf("ComposeClip() = %+v", clip)
	}

	calls := exec.CallsTo("ffmpeg")
	if len(calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(calls))
	}
	args := calls[0].Args
	checks := map[string]string{
		"-t":         "3.456",
		"-r":         "24",
		"-framerate": "24",
		"-c:v":       "libx264",
		"-c:a":       "aac",
		"-pix_fmt":   "yuv420p",
		"-loop":      "1",
	}
	for flag, want := range checks {
		if got := testutil.ArgAfter(args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	testutil.AssertFileContains(t, out, "fake media")
}

func TestComposeClipDurationFloor(t *testing.T) {
	tests := []struct {
		name  string
		probe string
	}{
		{"unknown", "N/A"},
		{"zero", "0.000000"},
		{"negative", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, image, audio := createInputs(t)
			exec := mediaExecutor(tt.probe, nil)

			clip, err := NewComposer(DefaultConfig(), exec, nil).ComposeClip(context.Background(), image, audio, filepath.Join(dir, "c.mp4"), 24)
			if err != nil {
				t.Fatalf("ComposeClip() error = %v", err)
			}
			if clip.Duration != MinDuration {
				t.Errorf("Duration = %v, want %v", clip.Duration, MinDuration)
			}
			if got := testutil.ArgAfter(exec.CallsTo("ffmpeg")[0].Args, "-t"); got != "1.000" {
				t.Errorf("-t = %q, want 1.000", got)
			}
		})
	}
}

func TestComposeClipMissingInput(t *testing.T) {
	dir, image, _ := createInputs(t)
	exec := mediaExecutor("1.0", nil)

	_, err := NewComposer(DefaultConfig(), exec, nil).ComposeClip(context.Background(), image, filepath.Join(dir, "nope.mp3"), filepath.Join(dir, "c.mp4"), 24)

	var buildErr *ClipBuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("ComposeClip() error = %v, want *ClipBuildError", err)
	}
	if len(exec.Calls()) != 0 {
		t.Errorf("no commands expected, got %v", exec.Calls())
	}
}

func TestComposeClipEncoderFailureRemovesPartial(t *testing.T) {
	dir, image, audio := createInputs(t)
	out := filepath.Join(dir, "mcq_video_1.mp4")
	encodeErr := errors.New("exit status 1")
	exec := mediaExecutor("2.0", encodeErr)

	_, err := NewComposer(DefaultConfig(), exec, nil).ComposeClip(context.Background(), image, audio, out, 24)

	var buildErr *ClipBuildError
	if !errors.As(err, &buildErr) || !errors.Is(err, encodeErr) {
		t.Fatalf("ComposeClip() error = %v, want *ClipBuildError wrapping encoder error", err)
	}
	if buildErr.Path != out {
		t.Errorf("Path = %q, want %q", buildErr.Path, out)
	}
	testutil.AssertFileNotExists(t, out)
}
