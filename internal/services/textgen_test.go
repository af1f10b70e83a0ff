package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGemini(t *testing.T, srv *httptest.Server, maxRetries int) *geminiClient {
	t.Helper()
	return &geminiClient{
		log:        testLogger(t),
		baseURL:    srv.URL,
		apiKey:     "test-key",
		model:      "gemini-1.5-flash",
		httpClient: srv.Client(),
		maxRetries: maxRetries,
	}
}

func generateContentBody(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Errorf("unexpected request shape: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(generateContentBody("Your footprint looks manageable.")))
	}))
	defer srv.Close()

	client := newTestGemini(t, srv, 0)
	text, err := client.GenerateText(context.Background(), "analyze my footprint")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "Your footprint looks manageable." {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateTextConcatenatesParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"first "},{"text":"second"}]}}]}`))
	}))
	defer srv.Close()

	client := newTestGemini(t, srv, 0)
	text, err := client.GenerateText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "first second" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(generateContentBody("recovered")))
	}))
	defer srv.Close()

	client := newTestGemini(t, srv, 2)
	text, err := client.GenerateText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateText after retry: %v", err)
	}
	if text != "recovered" {
		t.Fatalf("text = %q", text)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestGenerateTextFailsFastOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid"}}`))
	}))
	defer srv.Close()

	client := newTestGemini(t, srv, 3)
	_, err := client.GenerateText(context.Background(), "hello")
	var httpErr *textGenHTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want textGenHTTPError", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 400)", calls.Load())
	}
}

func TestGenerateTextExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestGemini(t, srv, 1)
	_, err := client.GenerateText(context.Background(), "hello")
	var httpErr *textGenHTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want textGenHTTPError", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2 (initial + 1 retry)", calls.Load())
	}
}

func TestDisabledTextGenAlwaysErrors(t *testing.T) {
	client := NewDisabledTextGenClient(testLogger(t))
	if _, err := client.GenerateText(context.Background(), "analyze my footprint"); err == nil {
		t.Fatal("expected error from unconfigured text generation")
	}
}

func TestGenerateTextEmptyPrompt(t *testing.T) {
	client := &geminiClient{log: testLogger(t)}
	if _, err := client.GenerateText(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank prompt")
	}
}

func TestGenerateTextCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(generateContentBody("never delivered")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestGemini(t, srv, 3)
	if _, err := client.GenerateText(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := jitterSleep(time.Second)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitterSleep(1s) = %v, outside +/-20%%", got)
		}
	}
	if got := jitterSleep(0); got != 0 {
		t.Fatalf("jitterSleep(0) = %v, want 0", got)
	}
}
