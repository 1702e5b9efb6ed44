package client

import (
	"context"
)

// Backend names, as configured and as reported by VisionClient.Name
const (
	BackendGemini   = "gemini"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// VisionClient sends one prompt together with one image to a vision model and
// returns the model's raw text answer.
type VisionClient interface {
	Generate(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error)
	Name() string
}
