package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hejijunhao/kimo/pkg/kimo"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCapture(t, args...)
	return out, err
}

// runCapture is run that also returns stderr.
func runCapture(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		historyJSON, voiceTranscript, serveAddr, configPath, debug = false, "", "", "", false
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KIMO_CONFIG", "")
	t.Setenv("KIMO_STORE", "file")
	t.Setenv("KIMO_STORE_PATH", filepath.Join(dir, "state.json"))
	t.Setenv("KIMO_IMAGE_MODEL", filepath.Join(dir, "missing.onnx"))
	t.Setenv("KIMO_LABELS", filepath.Join(dir, "missing.txt"))
	t.Setenv("KIMO_VOCAB", filepath.Join(dir, "missing-vocab.txt"))
	t.Setenv("KIMO_GENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("KIMO_LOG_FILE", filepath.Join(dir, "kimo.log"))
}

func TestThemeToggleCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "theme")
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	if strings.TrimSpace(out) != "light" {
		t.Fatalf("expected light, got %q", out)
	}

	out, err = run(t, "theme", "toggle")
	if err != nil {
		t.Fatalf("theme toggle: %v", err)
	}
	if strings.TrimSpace(out) != "dark" {
		t.Fatalf("expected dark after toggle, got %q", out)
	}

	// Persisted across invocations.
	out, _ = run(t, "theme")
	if strings.TrimSpace(out) != "dark" {
		t.Fatalf("expected persisted dark, got %q", out)
	}
}

func TestStateCommandsSkipModels(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{{"theme", "toggle"}, {"history"}} {
		_, stderr, err := runCapture(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		if strings.Contains(stderr, kimo.DegradedNotice) {
			t.Fatalf("%v: unexpected degraded notice %q", args, stderr)
		}
	}

	// Commands that dispatch still load models and report the missing files.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AbstractText":"ok","RelatedTopics":[]}`))
	}))
	defer srv.Close()
	t.Setenv("KIMO_SEARCH_ENDPOINT", srv.URL)
	_, stderr, err := runCapture(t, "ask", "what is go")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(stderr, kimo.DegradedNotice) {
		t.Fatalf("expected degraded notice for ask, got %q", stderr)
	}
}

func TestAskSearchThenHistory(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AbstractText":"Paris is the capital of France.","RelatedTopics":[]}`))
	}))
	defer srv.Close()
	t.Setenv("KIMO_SEARCH_ENDPOINT", srv.URL)

	out, err := run(t, "ask", "capital", "of", "France")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(out, "Paris is the capital of France.") {
		t.Fatalf("expected abstract in output, got %q", out)
	}

	out, err = run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, `"query": "capital of France"`) {
		t.Fatalf("expected search entry in history, got %q", out)
	}
}

func TestAskWithoutResponderFails(t *testing.T) {
	isolate(t)
	if _, err := run(t, "ask", "tell", "me", "a", "joke"); err != errFailed {
		t.Fatalf("expected errFailed, got %v", err)
	}
}

func TestVoiceTranscriptPrefill(t *testing.T) {
	isolate(t)
	out, err := run(t, "voice", "--transcript", "what is go?")
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	if strings.TrimSpace(out) != "what is go?" {
		t.Fatalf("expected transcript echoed, got %q", out)
	}
}

func TestHistoryEmpty(t *testing.T) {
	isolate(t)
	out, err := run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No history yet.") {
		t.Fatalf("got %q", out)
	}
}
