package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/freema/agentlink/internal/engine"
)

var validate = validator.New()

// InvokeHandler exposes the execution engine over HTTP.
type InvokeHandler struct {
	engine *engine.Engine
}

// NewInvokeHandler creates an invoke handler.
func NewInvokeHandler(eng *engine.Engine) *InvokeHandler {
	return &InvokeHandler{engine: eng}
}

// InvokeRequest is the body of POST /api/v1/invoke.
type InvokeRequest struct {
	Client string `json:"client" validate:"required"`
	Role   string `json:"role"`
	Prompt string `json:"prompt" validate:"required"`
}

// InvokeResponse is the normalized invocation outcome.
type InvokeResponse struct {
	InvocationID string         `json:"invocation_id"`
	Client       string         `json:"client"`
	Role         string         `json:"role,omitempty"`
	Text         string         `json:"text"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	FullyParsed  bool           `json:"fully_parsed"`
	ExitCode     int            `json:"exit_code"`
	DurationMS   int64          `json:"duration_ms"`
}

// Invoke handles POST /api/v1/invoke.
func (h *InvokeHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make(map[string]string)
			for _, e := range validationErrs {
				fields[e.Field()] = formatValidationError(e)
			}
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "validation_error",
				"fields": fields,
			})
			return
		}
		writeError(w, http.StatusBadRequest, "validation failed")
		return
	}

	out, err := h.engine.Invoke(r.Context(), req.Client, req.Role, req.Prompt)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InvokeResponse{
		InvocationID: out.InvocationID,
		Client:       out.Client,
		Role:         out.Role,
		Text:         out.Response.Text,
		Metadata:     out.Response.Metadata,
		FullyParsed:  out.Response.FullyParsed,
		ExitCode:     out.ExitCode,
		DurationMS:   out.Duration.Milliseconds(),
	})
}
