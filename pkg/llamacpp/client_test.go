package llamacpp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestGenerate(t *testing.T) {
	image := []byte("fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected /v1/chat/completions, got %s", r.URL.Path)
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "qwen2-vl" {
			t.Errorf("Expected model qwen2-vl, got %s", req.Model)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].MultiContent) != 2 {
			t.Fatalf("Expected one message with two parts, got %+v", req.Messages)
		}

		parts := req.Messages[0].MultiContent
		if parts[0].Type != openai.ChatMessagePartTypeText || parts[0].Text != "identify" {
			t.Errorf("Unexpected text part %+v", parts[0])
		}
		want := "data:image/webp;base64," + base64.StdEncoding.EncodeToString(image)
		if parts[1].ImageURL == nil || parts[1].ImageURL.URL != want {
			t.Errorf("Unexpected image part %+v", parts[1])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: `{"name":"Lavender"}`}},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	text, err := client.Generate(context.Background(), "qwen2-vl", "identify", image, "image/webp")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"name":"Lavender"}` {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestGenerateArrayContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":[{"type":"text","text":"{\"name\":\"Mint\"}"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	text, err := client.Generate(context.Background(), "model", "identify", []byte("img"), "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"name":"Mint"}` {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"out of memory","type":"server_error"}}`, "out of memory"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":""}}]}`, "empty response"},
		{"invalid json", http.StatusOK, `not json`, "llama.cpp request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(server.URL, 0)
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}

			_, err = client.Generate(context.Background(), "model", "identify", []byte("img"), "image/jpeg")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewClientURL(t *testing.T) {
	if _, err := NewClient("", 0); err != nil {
		t.Errorf("Empty URL should fall back to %s: %v", DefaultURL, err)
	}
	if _, err := NewClient("localhost:8080", 0); err == nil {
		t.Error("Expected an error for a URL without scheme")
	}
}
