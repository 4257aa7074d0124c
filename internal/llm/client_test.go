package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ranjithr99/SQL-AGENT/internal/config"
)

func TestOpenAIClientGenerate(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"SELECT 1"}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Model: "gpt-4o-mini", Temperature: 0.2, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}

	got, err := client.Generate(context.Background(), "count the rows")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("Generate() = %q", got)
	}
	if gotPath != "/v1/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer k" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPayload["temperature"] != 0.2 {
		t.Fatalf("temperature = %v", gotPayload["temperature"])
	}
}

func TestOpenAIClientSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	if _, err := client.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestGeminiClientGenerate(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"SELECT "},{"text":"2"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "g", Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}

	got, err := client.Generate(context.Background(), "count the rows")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT 2" {
		t.Fatalf("Generate() = %q", got)
	}
	if !strings.Contains(gotPath, "gemini-2.0-flash:generateContent") {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "g" {
		t.Fatalf("api key header = %q", gotKey)
	}
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(GeminiConfig{BaseURL: server.URL, APIKey: "g"})
	if err != nil {
		t.Fatalf("NewGeminiClient() error = %v", err)
	}
	if _, err := client.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestNewSelectsProvider(t *testing.T) {
	client, err := New(config.AIConfig{Provider: "gemini", APIKey: "g", Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := client.(*GeminiClient); !ok {
		t.Fatalf("client type = %T", client)
	}

	client, err = New(config.AIConfig{Provider: "openai", BaseURL: "https://api.openai.com", APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := client.(*OpenAIClient); !ok {
		t.Fatalf("client type = %T", client)
	}

	if _, err := New(config.AIConfig{Provider: "other"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
