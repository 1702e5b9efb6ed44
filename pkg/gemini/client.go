// Package gemini implements the vision client on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/menta2k/plant-identifier/pkg/client"
)

// DefaultModel is the model used when none is configured
const DefaultModel = "gemini-1.5-flash"

// Client sends generateContent calls through the genai SDK
type Client struct {
	client  *genai.Client
	initErr error
	timeout time.Duration
}

type options struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures the client
type Option func(*options)

// WithBaseURL points the client at a different API endpoint
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithTimeout bounds every Generate call. Zero means no bound.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// NewClient builds the SDK client once. It never fails: a construction error
// (typically a missing API key) is kept and returned by every Generate call,
// so a misconfigured key shows up on first use rather than at startup.
func NewClient(ctx context.Context, apiKey string, opts ...Option) *Client {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		err = fmt.Errorf("gemini client: %w", err)
	}

	return &Client{
		client:  c,
		initErr: err,
		timeout: o.timeout,
	}
}

// Name returns the backend name
func (c *Client) Name() string {
	return client.BackendGemini
}

// Generate sends the prompt followed by the image as inline data
func (c *Client) Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	if c.initErr != nil {
		return "", c.initErr
	}
	if model == "" {
		model = DefaultModel
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     image,
		}},
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("empty response from gemini")
	}

	return text, nil
}
