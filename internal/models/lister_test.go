package models

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewLister(t *testing.T) {
	lister := NewLister("test-api-key", "")

	if lister == nil {
		t.Fatal("NewLister returned nil")
	}

	if lister.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", lister.apiKey)
	}

	if lister.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestSpeechModels_NoAPIKey(t *testing.T) {
	lister := NewLister("", "")

	_, err := lister.SpeechModels(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	expectedError := "OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .mcqvideo.yaml"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got: %v", expectedError, err)
	}
}

func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"id":"tts-1-hd","object":"model","owned_by":"system"},
			{"id":"gpt-4o","object":"model","owned_by":"system"},
			{"id":"gpt-4o-mini-tts","object":"model","owned_by":"system"},
			{"id":"dall-e-3","object":"model","owned_by":"system"},
			{"id":"gpt-4o-audio-preview","object":"model","owned_by":"system"},
			{"id":"tts-1","object":"model","owned_by":"system"}
		]}`))
	}))
}

func TestSpeechModels(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	lister := NewLister("k", server.URL+"/v1")
	got, err := lister.SpeechModels(context.Background())
	if err != nil {
		t.Fatalf("SpeechModels() error = %v", err)
	}

	want := []string{"gpt-4o-audio-preview", "gpt-4o-mini-tts", "tts-1", "tts-1-hd"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SpeechModels() = %v, want %v", got, want)
	}
}

func TestListSpeechModels(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	var out bytes.Buffer
	if err := NewLister("k", server.URL+"/v1").ListSpeechModels(context.Background(), &out); err != nil {
		t.Fatalf("ListSpeechModels() error = %v", err)
	}

	for _, want := range []string{"Available OpenAI Text-to-Speech Models:", "  tts-1\n", "  gpt-4o-mini-tts\n"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "dall-e-3") {
		t.Error("image models must not be listed")
	}
}
