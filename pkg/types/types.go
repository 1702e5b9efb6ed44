package types

// PlantQuery is the body of an identification request. The image is base64
// encoded and the MIME type is forwarded to the model as-is.
type PlantQuery struct {
	Image    string `json:"image" form:"image"`
	MimeType string `json:"mimeType" form:"mimeType"`
}

// PlantRecord is the shape the vision model is asked to answer with
type PlantRecord struct {
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName"`
	Family         string   `json:"family"`
	Care           []string `json:"care"`
}

// ErrorResponse is written for every non-2xx answer of the HTTP API
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health check endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
