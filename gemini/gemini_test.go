package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifyDocumentRequestShape(t *testing.T) {
	imageB64 := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/test-model:generateContent") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in request, got query %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"category\":\"Public\",\"reason\":\"ok\"}"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "test-model")
	client.baseURL = server.URL

	raw, err := client.ClassifyDocument(context.Background(), imageB64, "image/png")
	if err != nil {
		t.Fatalf("ClassifyDocument() error = %v", err)
	}
	if raw != `{"category":"Public","reason":"ok"}` {
		t.Fatalf("unexpected response text: %s", raw)
	}

	if len(captured.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(captured.Contents))
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected instruction + image parts, got %d", len(parts))
	}
	if !strings.Contains(parts[0].Text, "sensitivity") {
		t.Errorf("instruction part missing classification prompt: %q", parts[0].Text)
	}
	if parts[1].InlineData == nil {
		t.Fatal("image part has no inline data")
	}
	if parts[1].InlineData.MimeType != "image/png" {
		t.Errorf("inline data mime = %q, want image/png", parts[1].InlineData.MimeType)
	}
	if parts[1].InlineData.Data != imageB64 {
		t.Error("inline data payload does not match encoded image")
	}

	cfg := captured.GenerationConfig
	if cfg.ResponseMimeType != "application/json" {
		t.Errorf("response mime type = %q, want application/json", cfg.ResponseMimeType)
	}
	if cfg.ResponseSchema == nil {
		t.Fatal("request carries no response schema")
	}
	if len(cfg.ResponseSchema.Required) != 2 {
		t.Errorf("schema required = %v, want category and reason", cfg.ResponseSchema.Required)
	}
	cat, ok := cfg.ResponseSchema.Properties["category"]
	if !ok {
		t.Fatal("schema missing category property")
	}
	if len(cat.Enum) != 4 {
		t.Errorf("category enum = %v, want the four sensitivity labels", cat.Enum)
	}
	if _, ok := cfg.ResponseSchema.Properties["reason"]; !ok {
		t.Error("schema missing reason property")
	}
}

func TestClassifyDocumentFallsBackToV1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1beta/") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient("k", "m")
	client.baseURL = server.URL

	raw, err := client.ClassifyDocument(context.Background(), "aGk=", "image/png")
	if err != nil {
		t.Fatalf("expected v1 fallback to succeed, got %v", err)
	}
	if raw != "{}" {
		t.Fatalf("unexpected response: %s", raw)
	}
}

func TestClassifyDocumentAPIErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("k", "m")
	client.baseURL = server.URL

	_, err := client.ClassifyDocument(context.Background(), "aGk=", "image/png")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected response body in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestClassifyDocumentNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewClient("k", "m")
	client.baseURL = server.URL

	_, err := client.ClassifyDocument(context.Background(), "aGk=", "image/png")
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Fatalf("expected no-candidates error, got %v", err)
	}
}
