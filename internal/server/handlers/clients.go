package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freema/agentlink/internal/clients"
)

// ClientsHandler serves the registry's client listing and reload endpoints.
type ClientsHandler struct {
	registry *clients.Registry
}

// NewClientsHandler creates a clients handler.
func NewClientsHandler(registry *clients.Registry) *ClientsHandler {
	return &ClientsHandler{registry: registry}
}

// List handles GET /api/v1/clients.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clients":  h.registry.List(),
		"failures": h.registry.Failures(),
	})
}

type roleInfo struct {
	PromptPath  string   `json:"prompt_path,omitempty"`
	Args        []string `json:"args,omitempty"`
	Description string   `json:"description,omitempty"`
}

type clientInfo struct {
	Name           string              `json:"name"`
	Command        string              `json:"command"`
	InternalArgs   []string            `json:"internal_args,omitempty"`
	AdditionalArgs []string            `json:"additional_args,omitempty"`
	TimeoutSeconds int                 `json:"timeout_seconds"`
	Parser         string              `json:"parser"`
	Runner         string              `json:"runner"`
	Roles          map[string]roleInfo `json:"roles"`
}

// Get handles GET /api/v1/clients/{name}.
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "client name is required")
		return
	}

	c, err := h.registry.Get(name)
	if err != nil {
		writeAppError(w, err)
		return
	}

	roles := make(map[string]roleInfo, len(c.Roles))
	for roleName, rc := range c.Roles {
		roles[roleName] = roleInfo{
			PromptPath:  rc.PromptPath,
			Args:        rc.Args,
			Description: rc.Description,
		}
	}

	writeJSON(w, http.StatusOK, clientInfo{
		Name:           c.Name,
		Command:        c.Command,
		InternalArgs:   c.InternalArgs,
		AdditionalArgs: c.AdditionalArgs,
		TimeoutSeconds: int(c.Timeout.Seconds()),
		Parser:         c.ParserSpec,
		Runner:         c.RunnerSpec,
		Roles:          roles,
	})
}

// Reload handles POST /api/v1/reload.
func (h *ClientsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	report := h.registry.Reload()
	writeJSON(w, http.StatusOK, report)
}
