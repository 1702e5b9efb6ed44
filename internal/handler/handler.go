package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/plant-identifier/internal/utils"
	"github.com/menta2k/plant-identifier/pkg/identification"
	"github.com/menta2k/plant-identifier/pkg/types"
)

// Response messages of the identify endpoint
const (
	MsgNoImage        = "No image provided"
	MsgIdentifyFailed = "Failed to identify plant"
	MsgBodyTooLarge   = "Request body too large"
	MsgUnknownError   = "Unknown error"
)

// Handler serves the plant identification API
type Handler struct {
	identifier *identification.Identifier
	log        *zap.Logger
}

// NewHandler creates the API handlers around an identifier
func NewHandler(identifier *identification.Identifier, log *zap.Logger) *Handler {
	return &Handler{
		identifier: identifier,
		log:        log,
	}
}

// Identify accepts {image, mimeType} as JSON or form fields and answers with
// the JSON object the model produced.
func (h *Handler) Identify(c *gin.Context) {
	var query types.PlantQuery
	if err := c.ShouldBind(&query); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.log.Warn("Request body too large",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.Int64("limit", maxErr.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: MsgBodyTooLarge})
			return
		}

		// An image that is present but not a string cannot be sent anywhere
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "image" {
			h.fail(c, err)
			return
		}

		// Whatever else could not be bound is treated as absent
		h.log.Debug("Failed to bind request body", zap.Error(err))
	}

	if query.Image == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgNoImage})
		return
	}

	h.log.Debug("Identifying plant",
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.String("mime_type", query.MimeType),
		zap.String("payload", utils.FormatFileSize(int64(len(query.Image)))))

	plant, err := h.identifier.Identify(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", plant)
}

// fail answers 500 with the error message as details
func (h *Handler) fail(c *gin.Context, err error) {
	details := err.Error()
	if details == "" {
		details = MsgUnknownError
	}

	h.log.Error("Error identifying plant",
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.String("backend", h.identifier.Backend()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:   MsgIdentifyFailed,
		Details: details,
	})
}

// HealthCheck reports that the server is up
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{Status: "OK"})
}
