package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandevgo/talkdata/internal/core"
)

func TestAzureComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "SQL_START SELECT 1; SQL_END"}},
			},
		})
	}))
	defer server.Close()

	provider := NewAzure(server.URL, "secret", "gpt-4o", "2025-03-01-preview")
	got, err := provider.Complete(t.Context(), core.CompletionRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Temperature:  0.0,
		TopP:         1.0,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if got != "SQL_START SELECT 1; SQL_END" {
		t.Errorf("content = %q", got)
	}
	if gotPath != "/openai/deployments/gpt-4o/chat/completions?api-version=2025-03-01-preview" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("api-key header = %q", gotKey)
	}
	if temp, ok := gotBody["temperature"].(float64); !ok || temp != 0.0 {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
	if msgs, ok := gotBody["messages"].([]any); !ok || len(msgs) != 2 {
		t.Errorf("messages = %v", gotBody["messages"])
	}
}

func TestAzureCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	provider := NewAzure(server.URL, "secret", "gpt-4o", "2025-03-01-preview")
	_, err := provider.Complete(t.Context(), core.CompletionRequest{UserPrompt: "q"})
	if err == nil {
		t.Fatal("expected an error on 429")
	}
}
