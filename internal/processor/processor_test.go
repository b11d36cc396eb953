package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/snonux/mcqvideo/internal/journal"
	"codeberg.org/snonux/mcqvideo/internal/render"
	"codeberg.org/snonux/mcqvideo/internal/testutil"
	"codeberg.org/snonux/mcqvideo/internal/video"
)

var header = []string{"Question", "Option A", "Option B", "Answer"}

type fixture struct {
	dir      string
	font     string
	narrator *fakeNarrator
	composer *fakeComposer
	concat   *fakeConcatenator
	proc     *Processor
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	f := &fixture{
		dir:      t.TempDir(),
		narrator: &fakeNarrator{},
		composer: &fakeComposer{},
		concat:   &fakeConcatenator{},
	}
	f.font = testutil.CreateTestFont(t, f.dir)

	if cfg.Render == (render.Config{}) {
		cfg.Render = render.DefaultConfig()
	}
	cfg.Render.FontPath = f.font
	cfg.Render.Width = 320
	cfg.Render.Height = 180
	cfg.Render.FontSize = 12
	if cfg.BaseDir == "" {
		cfg.BaseDir = f.dir
	}

	proc, err := New(cfg, Deps{
		Narrator:     f.narrator,
		Composer:     f.composer,
		Concatenator: f.concat,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.proc = proc
	return f
}

func (f *fixture) csv(t *testing.T, rows ...[]string) string {
	t.Helper()
	return testutil.CreateTestCSV(t, f.dir, header, rows)
}

func (f *fixture) outDir(name string) string {
	return filepath.Join(f.dir, strings.TrimSuffix(name, filepath.Ext(name))+"_output")
}

func intPtr(n int) *int { return &n }

func TestNewRequiresStages(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Error("New() without stages should fail")
	}
}

func TestInvokeSuccess(t *testing.T) {
	f := newFixture(t, Config{})
	csvPath := f.csv(t,
		[]string{"Q1: What is 2+2?", "A: 3", "B: 4", "Answer: B"},
		[]string{"Q2: Capital of France?", "A: Paris", "B: Rome", "Answer: A"},
	)

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "Quiz.mp4", Language: "gu"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}

	outDir := f.outDir("Quiz.mp4")
	want := filepath.Join(outDir, "Quiz.mp4")
	if resp.Result != want {
		t.Errorf("Result = %q, want %q", resp.Result, want)
	}
	if !filepath.IsAbs(resp.Result) {
		t.Errorf("Result %q is not absolute", resp.Result)
	}
	testutil.AssertFileNotEmpty(t, resp.Result)

	for n := 1; n <= 2; n++ {
		testutil.AssertFileExists(t, filepath.Join(outDir, fmt.Sprintf("mcq_img_%d.png", n)))
		testutil.AssertFileExists(t, filepath.Join(outDir, fmt.Sprintf("mcq_audio_%d.mp3", n)))
		testutil.AssertFileExists(t, filepath.Join(outDir, fmt.Sprintf("mcq_video_%d.mp4", n)))
	}

	texts := f.narrator.Texts()
	if len(texts) != 2 || !strings.HasPrefix(texts[0], "Q1:") || !strings.HasPrefix(texts[1], "Q2:") {
		t.Errorf("narrated texts = %q, want Q1 then Q2", texts)
	}
	if texts[0] != "Q1: What is 2+2? A: 3 B: 4 Answer: B" {
		t.Errorf("flattened text = %q", texts[0])
	}
	for _, lang := range f.narrator.languages {
		if lang != "gu" {
			t.Errorf("narrated in %q, want gu", lang)
		}
	}

	calls := f.concat.Calls()
	if len(calls) != 1 {
		t.Fatalf("Concat called %d times, want 1", len(calls))
	}
	wantClips := []string{filepath.Join(outDir, "mcq_video_1.mp4"), filepath.Join(outDir, "mcq_video_2.mp4")}
	if strings.Join(calls[0], ",") != strings.Join(wantClips, ",") {
		t.Errorf("Concat clips = %v, want %v", calls[0], wantClips)
	}
	for _, fps := range f.composer.fps {
		if fps != render.DefaultFPS {
			t.Errorf("clip fps = %d, want %d", fps, render.DefaultFPS)
		}
	}
}

func TestInvokeDefaultOutputFilename(t *testing.T) {
	f := newFixture(t, Config{})
	csvPath := f.csv(t, []string{"Q1", "A", "B", "A"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}
	want := filepath.Join(f.dir, "Gyan_Dariyo_final_video_output", "Gyan_Dariyo_final_video.mp4")
	if resp.Result != want {
		t.Errorf("Result = %q, want %q", resp.Result, want)
	}
}

func TestInvokeGlobalErrors(t *testing.T) {
	f := newFixture(t, Config{})

	emptyFile := filepath.Join(f.dir, "empty.csv")
	testutil.CreateTestFile(t, emptyFile, nil)

	blankRows := filepath.Join(f.dir, "blank.csv")
	testutil.CreateTestFile(t, blankRows, []byte("Question,Answer\n,\n  ,\t\n"))

	good := f.csv(t, []string{"Q1", "A"})
	missingFont := filepath.Join(f.dir, "missing.ttf")
	missingCSV := filepath.Join(f.dir, "missing.csv")

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "missing csv",
			req:  Request{CSVFilePath: missingCSV},
			want: fmt.Sprintf("Error: Input CSV file not found at '%s'", missingCSV),
		},
		{
			name: "missing font",
			req:  Request{CSVFilePath: good, FontPath: missingFont},
			want: fmt.Sprintf("Error: Font file not found at '%s'. Please provide a valid path.", missingFont),
		},
		{
			name: "empty file",
			req:  Request{CSVFilePath: emptyFile},
			want: fmt.Sprintf("Error: CSV file '%s' is empty.", emptyFile),
		},
		{
			name: "only blank rows",
			req:  Request{CSVFilePath: blankRows},
			want: fmt.Sprintf("Error: CSV file '%s' seems to be empty or contains no valid data rows.", blankRows),
		},
		{
			name: "missing csv path",
			req:  Request{},
			want: "Error: invalid request: csv_file_path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.proc.Invoke(context.Background(), tt.req)
			if !resp.IsError || resp.Result != tt.want {
				t.Errorf("Invoke() = %+v, want error %q", resp, tt.want)
			}
			testutil.AssertFileNotExists(t, f.outDir("Gyan_Dariyo_final_video.mp4"))
		})
	}

	t.Run("unreadable table", func(t *testing.T) {
		// A directory passes the existence check but cannot be read as CSV
		dirPath := filepath.Join(f.dir, "table.csv")
		if err := os.Mkdir(dirPath, 0755); err != nil {
			t.Fatal(err)
		}

		resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: dirPath})
		prefix := fmt.Sprintf("Error reading CSV file '%s': ", dirPath)
		if !resp.IsError || !strings.HasPrefix(resp.Result, prefix) {
			t.Errorf("Invoke() = %q, want prefix %q", resp.Result, prefix)
		}
	})
}

func TestInvokeInvalidRequest(t *testing.T) {
	f := newFixture(t, Config{})
	csvPath := f.csv(t, []string{"Q1", "A"})

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"color out of range", Request{CSVFilePath: csvPath, BgColorRGB: []int{300, 0, 0}}, "bg_color_rgb"},
		{"color too short", Request{CSVFilePath: csvPath, FontColorRGB: []int{1, 2}}, "font_color_rgb"},
		{"zero width", Request{CSVFilePath: csvPath, ImgWidth: intPtr(0)}, "canvas size"},
		{"negative font size", Request{CSVFilePath: csvPath, FontSize: intPtr(-3)}, "font size"},
		{"bad output name", Request{CSVFilePath: csvPath, OutputFilename: ".."}, "output_filename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.proc.Invoke(context.Background(), tt.req)
			if !resp.IsError || !strings.HasPrefix(resp.Result, "Error: invalid request: ") || !strings.Contains(resp.Result, tt.want) {
				t.Errorf("Invoke() = %q, want invalid request mentioning %q", resp.Result, tt.want)
			}
		})
	}
}

func TestInvokeBlankRowProducesNoFiles(t *testing.T) {
	f := newFixture(t, Config{})
	csvPath := f.csv(t,
		[]string{"Q1", "A", "B", "A"},
		[]string{"  ", "\t", "", " "},
		[]string{"Q3", "A", "B", "B"},
	)

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "blank.mp4"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}

	files := testutil.ListFiles(t, f.outDir("blank.mp4"))
	want := []string{"blank.mp4", "mcq_audio_1.mp3", "mcq_audio_2.mp3", "mcq_img_1.png", "mcq_img_2.png", "mcq_video_1.mp4", "mcq_video_2.mp4"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestInvokeOneRowFails(t *testing.T) {
	f := newFixture(t, Config{})
	f.narrator.fail = func(text string) error {
		if strings.HasPrefix(text, "Q2") {
			return errors.New("unsupported language")
		}
		return nil
	}
	csvPath := f.csv(t,
		[]string{"Q1", "A", "B", "A"},
		[]string{"Q2", "A", "B", "A"},
		[]string{"Q3", "A", "B", "A"},
	)

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "partial.mp4"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}

	outDir := f.outDir("partial.mp4")
	calls := f.concat.Calls()
	want := []string{filepath.Join(outDir, "mcq_video_1.mp4"), filepath.Join(outDir, "mcq_video_3.mp4")}
	if len(calls) != 1 || strings.Join(calls[0], ",") != strings.Join(want, ",") {
		t.Errorf("Concat calls = %v, want [%v]", calls, want)
	}

	testutil.AssertFileNotExists(t, filepath.Join(outDir, "mcq_img_2.png"))
	testutil.AssertFileNotExists(t, filepath.Join(outDir, "mcq_audio_2.mp3"))
	testutil.AssertFileNotExists(t, filepath.Join(outDir, "mcq_video_2.mp4"))
}

func TestInvokeClipFailureRemovesRowFiles(t *testing.T) {
	f := newFixture(t, Config{})
	f.composer.err = &video.ClipBuildError{Path: "x", Err: errors.New("encoder exploded")}
	csvPath := f.csv(t, []string{"Q1", "A"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "clip.mp4"})
	want := "Error: No individual video clips were successfully generated. Final video cannot be created."
	if !resp.IsError || resp.Result != want {
		t.Errorf("Invoke() = %q, want %q", resp.Result, want)
	}

	files := testutil.ListFiles(t, f.outDir("clip.mp4"))
	if len(files) != 0 {
		t.Errorf("expected no files left, got %v", files)
	}
}

func TestInvokeAllRowsFail(t *testing.T) {
	f := newFixture(t, Config{})
	f.narrator.fail = func(string) error { return errors.New("network down") }
	csvPath := f.csv(t, []string{"Q1", "A"}, []string{"Q2", "B"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath})
	want := "Error: No individual video clips were successfully generated. Final video cannot be created."
	if !resp.IsError || resp.Result != want {
		t.Errorf("Invoke() = %q, want %q", resp.Result, want)
	}
	if n := len(f.concat.Calls()); n != 0 {
		t.Errorf("Concat called %d times, want 0", n)
	}
}

func TestInvokeConcatFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.concat.err = &video.ConcatenationError{Output: "final.mp4", Err: errors.New("exit status 1")}
	csvPath := f.csv(t, []string{"Q1", "A"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath})
	if !resp.IsError || !strings.HasPrefix(resp.Result, "Error during final video concatenation: ") {
		t.Errorf("Invoke() = %q, want concatenation error", resp.Result)
	}
	if !strings.Contains(resp.Result, "exit status 1") {
		t.Errorf("cause missing from %q", resp.Result)
	}
}

func TestInvokeCancelled(t *testing.T) {
	f := newFixture(t, Config{})
	csvPath := f.csv(t, []string{"Q1", "A"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := f.proc.Invoke(ctx, Request{CSVFilePath: csvPath})
	if !resp.IsError || !strings.HasPrefix(resp.Result, "Error: An unexpected error occurred during video generation: ") {
		t.Errorf("Invoke() = %q, want unexpected error", resp.Result)
	}
	if n := len(f.concat.Calls()); n != 0 {
		t.Errorf("Concat called %d times after cancellation", n)
	}
}

func TestInvokeRecoversPanic(t *testing.T) {
	f := newFixture(t, Config{})
	f.proc.deps.NewRenderer = func(render.Config) SlideRenderer { return panicRenderer{} }
	csvPath := f.csv(t, []string{"Q1", "A"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath})
	if !resp.IsError || !strings.Contains(resp.Result, "unexpected error occurred during video generation: boom") {
		t.Errorf("Invoke() = %q, want recovered panic", resp.Result)
	}
}

type panicRenderer struct{}

func (panicRenderer) Render(context.Context, []string, string) (string, error) { panic("boom") }

func TestInvokeSerializesSameOutputDir(t *testing.T) {
	f := newFixture(t, Config{})
	f.narrator.delay = 20 * time.Millisecond
	csvPath := f.csv(t, []string{"Q1", "A"}, []string{"Q2", "B"})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "same.mp4"})
			if resp.IsError {
				t.Errorf("Invoke() error = %s", resp.Result)
			}
		}()
	}
	wg.Wait()

	if peak := f.narrator.maxActive; peak != 1 {
		t.Errorf("max concurrent narrations in one directory = %d, want 1", peak)
	}
	if n := len(f.narrator.Texts()); n != 6 {
		t.Errorf("narrated %d rows, want 6", n)
	}
}

func TestInvokeJournal(t *testing.T) {
	f := newFixture(t, Config{Journal: true})
	rec := &memoryRecorder{}
	var openedAt string
	f.proc.deps.OpenJournal = func(path string) (journal.Recorder, error) {
		openedAt = path
		return rec, nil
	}
	f.narrator.fail = func(text string) error {
		if strings.HasPrefix(text, "Q2") {
			return errors.New("tts failed")
		}
		return nil
	}
	csvPath := f.csv(t, []string{"Q1", "A"}, []string{"Q2", "B"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "j.mp4"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}

	if openedAt != filepath.Join(f.outDir("j.mp4"), journal.FileName) {
		t.Errorf("journal opened at %q", openedAt)
	}
	if len(rec.runs) != 1 || rec.runs[0].Rows != 2 {
		t.Errorf("runs = %+v", rec.runs)
	}

	var states []string
	for _, ev := range rec.events {
		states = append(states, fmt.Sprintf("%d:%s", ev.Row, ev.State))
	}
	want := "1:rendered,1:narrated,1:clipped,1:done,2:rendered,2:skipped"
	if strings.Join(states, ",") != want {
		t.Errorf("events = %s, want %s", strings.Join(states, ","), want)
	}
	if last := rec.events[len(rec.events)-1]; !strings.Contains(last.Err, "tts failed") {
		t.Errorf("skip event error = %q", last.Err)
	}

	if !rec.finished || rec.summary.Processed != 1 || rec.summary.Skipped != 1 || rec.summary.Result != resp.Result {
		t.Errorf("summary = %+v", rec.summary)
	}
	if rec.summary.Duration != 1.5 {
		t.Errorf("summary duration = %v, want 1.5", rec.summary.Duration)
	}
	if !rec.closed {
		t.Error("journal not closed")
	}
}

func TestInvokeSQLiteJournal(t *testing.T) {
	f := newFixture(t, Config{Journal: true})
	csvPath := f.csv(t, []string{"Q1", "A"})

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "db.mp4"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}
	testutil.AssertFileNotEmpty(t, filepath.Join(f.outDir("db.mp4"), journal.FileName))
}

func TestInvokeArchivesPreviousOutput(t *testing.T) {
	f := newFixture(t, Config{Archive: true})
	csvPath := f.csv(t, []string{"Q1", "A"})

	stale := filepath.Join(f.outDir("a.mp4"), "stale.txt")
	testutil.CreateTestFile(t, stale, []byte("old"))

	resp := f.proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "a.mp4"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}

	testutil.AssertFileNotExists(t, stale)
	entries, err := os.ReadDir(filepath.Join(f.dir, "archive"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("archive entries = %v, err = %v", entries, err)
	}
	testutil.AssertFileExists(t, filepath.Join(f.dir, "archive", entries[0].Name(), "stale.txt"))
}

// TestInvokeTimesRowsIndependently drives the real clip composer and
// concatenator through a fake ffmpeg
func TestInvokeTimesRowsIndependently(t *testing.T) {
	durations := map[string]string{
		"mcq_audio_1.mp3": "2.500000",
		"mcq_audio_2.mp3": "4.250000",
	}
	exec := &testutil.FakeExecutor{
		Handler: func(name string, args []string) (string, error) {
			target := filepath.Base(args[len(args)-1])
			switch {
			case name == "ffprobe" && strings.HasPrefix(target, "mcq_audio_"):
				return durations[target], nil
			case name == "ffprobe":
				return "320,180,24/1", nil
			default:
				return "", testutil.WriteOutput(args)
			}
		},
	}

	f := newFixture(t, Config{})
	proc, err := New(f.proc.cfg, Deps{
		Narrator:     f.narrator,
		Composer:     video.NewComposer(video.DefaultConfig(), exec, nil),
		Concatenator: video.NewConcatenator(video.DefaultConfig(), exec, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	csvPath := f.csv(t, []string{"Q1", "A"}, []string{"Q2", "B"})

	resp := proc.Invoke(context.Background(), Request{CSVFilePath: csvPath, OutputFilename: "timed.mp4"})
	if resp.IsError {
		t.Fatalf("Invoke() error = %s", resp.Result)
	}

	var lengths []string
	for _, call := range exec.CallsTo("ffmpeg") {
		if d := testutil.ArgAfter(call.Args, "-t"); d != "" {
			lengths = append(lengths, d)
		}
	}
	if strings.Join(lengths, ",") != "2.500,4.250" {
		t.Errorf("clip lengths = %v, want [2.500 4.250]", lengths)
	}
}
