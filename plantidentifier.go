// Package plantidentifier identifies plants in photos with a hosted vision model.
//
// An image is sent to the model together with a fixed prompt asking for a JSON
// description of the plant: its common name, scientific name, family and a few
// care instructions. The JSON object is then cut out of the model's free-text
// answer.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		plantidentifier "github.com/menta2k/plant-identifier"
//	)
//
//	func main() {
//		ctx := context.Background()
//		pi, err := plantidentifier.New(ctx, plantidentifier.Options{
//			Backend: plantidentifier.BackendGemini,
//			APIKey:  os.Getenv("GEMINI_API_KEY"),
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		record, _, err := pi.IdentifyFile(ctx, "monstera.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s (%s), family %s\n", record.Name, record.ScientificName, record.Family)
//	}
//
// The package consists of these components:
//
// 1. Identification (pkg/identification): prompt, model call and JSON extraction
// 2. Backends (pkg/gemini, pkg/ollama, pkg/llamacpp): vision model clients
// 3. Processing (pkg/processing): base64 decoding, image loading and downscaling
//
// The HTTP API lives in cmd/plant-identifier.
package plantidentifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/menta2k/plant-identifier/pkg/client"
	"github.com/menta2k/plant-identifier/pkg/gemini"
	"github.com/menta2k/plant-identifier/pkg/identification"
	"github.com/menta2k/plant-identifier/pkg/llamacpp"
	"github.com/menta2k/plant-identifier/pkg/ollama"
	"github.com/menta2k/plant-identifier/pkg/processing"
	"github.com/menta2k/plant-identifier/pkg/types"
)

// Version of the plant identifier library
const Version = "1.0.0"

// Supported backends
const (
	BackendGemini   = client.BackendGemini
	BackendOllama   = client.BackendOllama
	BackendLlamaCpp = client.BackendLlamaCpp
)

// Options selects and configures the vision backend
type Options struct {
	Backend string
	Model   string
	URL     string
	APIKey  string
	// Timeout bounds each model call; zero leaves it unbounded
	Timeout time.Duration
	// MaxImageDimension enables downscaling of larger images; zero disables it
	MaxImageDimension int
	ImageQuality      int
}

// PlantIdentifier provides a high-level interface for identifying plants
type PlantIdentifier struct {
	identifier *identification.Identifier
	processor  *processing.Processor
}

// New creates a PlantIdentifier for the configured backend
func New(ctx context.Context, opts Options) (*PlantIdentifier, error) {
	visionClient, err := NewVisionClient(ctx, opts)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = gemini.DefaultModel
	}

	return NewWithClient(visionClient, model, processing.NewProcessor(opts.MaxImageDimension, opts.ImageQuality)), nil
}

// NewWithClient creates a PlantIdentifier around an existing vision client
func NewWithClient(visionClient client.VisionClient, model string, processor *processing.Processor) *PlantIdentifier {
	if processor == nil {
		processor = processing.NewProcessor(0, processing.DefaultQuality)
	}
	return &PlantIdentifier{
		identifier: identification.NewIdentifier(visionClient, model, processor),
		processor:  processor,
	}
}

// NewVisionClient builds the client for opts.Backend
func NewVisionClient(ctx context.Context, opts Options) (client.VisionClient, error) {
	switch opts.Backend {
	case BackendGemini, "":
		geminiOpts := []gemini.Option{gemini.WithTimeout(opts.Timeout)}
		if opts.URL != "" {
			geminiOpts = append(geminiOpts, gemini.WithBaseURL(opts.URL))
		}
		return gemini.NewClient(ctx, opts.APIKey, geminiOpts...), nil
	case BackendOllama:
		c, err := ollama.NewClient(opts.URL, opts.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case BackendLlamaCpp:
		c, err := llamacpp.NewClient(opts.URL, opts.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use %s, %s or %s)", opts.Backend, BackendGemini, BackendOllama, BackendLlamaCpp)
	}
}

// Identifier returns the underlying identifier, e.g. to serve it over HTTP
func (p *PlantIdentifier) Identifier() *identification.Identifier {
	return p.identifier
}

// Identify runs one identification for a base64 query and returns the model's JSON
func (p *PlantIdentifier) Identify(ctx context.Context, query types.PlantQuery) (json.RawMessage, error) {
	return p.identifier.Identify(ctx, query)
}

// IdentifyFile identifies the plant in a local image file or an http(s) URL
func (p *PlantIdentifier) IdentifyFile(ctx context.Context, source string) (*types.PlantRecord, json.RawMessage, error) {
	image, mimeType, err := p.processor.LoadImageSmart(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load image: %w", err)
	}

	raw, err := p.identifier.IdentifyImage(ctx, image, mimeType)
	if err != nil {
		return nil, nil, err
	}

	record, err := identification.DecodeRecord(raw)
	if err != nil {
		return nil, raw, err
	}

	return record, raw, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
