package llamacpp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/menta2k/plant-identifier/pkg/client"
)

// DefaultURL is used when no server URL is configured
const DefaultURL = "http://localhost:8080"

// Client talks to the OpenAI-compatible API of a llama.cpp server
type Client struct {
	client *openai.Client
}

// NewClient creates a client for a llama.cpp server. A zero timeout keeps the
// transport default.
func NewClient(serverURL string, timeout time.Duration) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid URL: %q", serverURL)
	}

	// llama.cpp does not check the key unless started with --api-key
	config := openai.DefaultConfig("")
	config.BaseURL = strings.TrimSuffix(serverURL, "/") + "/v1"
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client: openai.NewClientWithConfig(config),
	}, nil
}

func (c *Client) Name() string {
	return client.BackendLlamaCpp
}

// Generate sends the prompt and the image, inlined as a data URL, in one chat
// completion request
func (c *Client) Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llama.cpp request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	// Servers answer with either a plain string or an array of parts
	msg := resp.Choices[0].Message
	if msg.Content != "" {
		return msg.Content, nil
	}
	for _, part := range msg.MultiContent {
		if part.Text != "" {
			return part.Text, nil
		}
	}

	return "", errors.New("empty response from llama.cpp server")
}
