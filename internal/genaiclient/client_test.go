package genaiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func candidateResponse(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func TestGenerateSendsKeyInQueryOnly(t *testing.T) {
	var gotPath, gotKey, gotAuth string
	var gotBody generatePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(candidateResponse("hello")))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	text, err := c.Generate(context.Background(), "secret-key", "test-model", Request{
		System:     "you are a narrator",
		Prompt:     "say hello",
		JSONOutput: true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected 'hello', got %q", text)
	}
	if !strings.Contains(gotPath, "test-model:generateContent") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("expected key in query string, got %q", gotKey)
	}
	if gotAuth != "" {
		t.Errorf("credential must not appear in headers, got Authorization=%q", gotAuth)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "you are a narrator" {
		t.Errorf("system instruction not sent: %+v", gotBody.SystemInstruction)
	}
	if gotBody.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Errorf("expected JSON response mime type, got %q", gotBody.GenerationConfig.ResponseMIMEType)
	}
}

func TestGenerateRejectsEmptyKey(t *testing.T) {
	c := NewWithBaseURL("http://127.0.0.1:0")
	if _, err := c.Generate(context.Background(), "", "m", Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestGenerateNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	_, err := c.Generate(context.Background(), "k", "m", Request{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	if _, err := c.Generate(context.Background(), "k", "m", Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error for empty candidate list")
	}
}
