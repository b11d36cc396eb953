package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Call records one command run through a FakeExecutor
type Call struct {
	Name string
	Args []string
}

// String renders the call like a shell command line
func (c Call) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// FakeExecutor mocks executor.Executor. Handler decides the outcome of each
// command; without one every command succeeds with empty output.
type FakeExecutor struct {
	Handler func(name string, args []string) (string, error)

	mu    sync.Mutex
	calls []Call
}

// Execute records the call and delegates to Handler
func (f *FakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Handler == nil {
		return "", nil
	}
	return f.Handler(name, args)
}

// Calls returns a copy of the recorded calls
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of the named binary
func (f *FakeExecutor) CallsTo(name string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// WriteOutput writes fake media bytes to the last argument, which is where
// ffmpeg takes its output file.
func WriteOutput(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no arguments")
	}
	return os.WriteFile(args[len(args)-1], []byte("fake media"), 0644)
}

// ArgAfter returns the argument following flag, or "" when flag is absent
func ArgAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// GenerateAudioData generates mock audio data
func GenerateAudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}
