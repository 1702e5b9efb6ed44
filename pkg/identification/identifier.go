package identification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/menta2k/plant-identifier/pkg/client"
	"github.com/menta2k/plant-identifier/pkg/processing"
	"github.com/menta2k/plant-identifier/pkg/types"
)

// PlantPrompt is sent with every image
const PlantPrompt = `Please analyze this plant image and provide the following information in JSON format:
      {
        "name": "common name of the plant",
        "scientificName": "scientific name",
        "family": "plant family",
        "care": ["3-4 key care instructions"]
      }`

// Identifier asks a vision model what plant is in an image
type Identifier struct {
	client    client.VisionClient
	model     string
	processor *processing.Processor
}

// NewIdentifier creates a new identifier. processor may be nil, in which case
// image bytes are sent exactly as uploaded.
func NewIdentifier(client client.VisionClient, model string, processor *processing.Processor) *Identifier {
	return &Identifier{
		client:    client,
		model:     model,
		processor: processor,
	}
}

// Backend returns the name of the vision backend in use
func (i *Identifier) Backend() string {
	return i.client.Name()
}

// Model returns the configured model name
func (i *Identifier) Model() string {
	return i.model
}

// Identify decodes the base64 image of the query, calls the model once and
// returns the JSON it answered with. Only a query whose image field is empty
// fails with ErrNoImage; every other failure, including an image that decodes
// to nothing, is an *UpstreamError.
func (i *Identifier) Identify(ctx context.Context, query types.PlantQuery) (json.RawMessage, error) {
	if query.Image == "" {
		return nil, ErrNoImage
	}

	image, err := processing.DecodeBase64(query.Image)
	if err != nil {
		return nil, upstream(err)
	}
	if len(image) == 0 {
		return nil, upstream(errEmptyImage)
	}

	return i.IdentifyImage(ctx, image, query.MimeType)
}

// IdentifyImage is Identify for raw image bytes
func (i *Identifier) IdentifyImage(ctx context.Context, image []byte, mimeType string) (json.RawMessage, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	if i.processor != nil {
		var err error
		image, mimeType, err = i.processor.Prepare(image, mimeType)
		if err != nil {
			return nil, upstream(err)
		}
	}

	text, err := i.client.Generate(ctx, i.model, PlantPrompt, image, mimeType)
	if err != nil {
		return nil, upstream(err)
	}

	plant, err := ExtractJSON(text)
	if err != nil {
		return nil, upstream(err)
	}

	return plant, nil
}

// DecodeRecord reads the model's JSON into a PlantRecord. Missing keys are left
// empty; only JSON that is not an object is rejected.
func DecodeRecord(raw json.RawMessage) (*types.PlantRecord, error) {
	var record types.PlantRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		// A single mistyped field leaves the rest of the record usable
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return nil, fmt.Errorf("failed to decode plant record: %w", err)
		}
	}

	record.Name = strings.TrimSpace(record.Name)
	record.ScientificName = strings.TrimSpace(record.ScientificName)
	record.Family = strings.TrimSpace(record.Family)
	record.Care = normalizeCare(record.Care)

	return &record, nil
}

// normalizeCare trims care instructions and drops empty ones
func normalizeCare(care []string) []string {
	out := make([]string, 0, len(care))
	for _, c := range care {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
