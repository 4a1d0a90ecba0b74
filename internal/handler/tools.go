package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/connectcoach/internal/prompt"
)

// ToolResponse describes one coaching tool
type ToolResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ToolsHandler returns the available coaching tools
type ToolsHandler struct{}

// NewToolsHandler creates a new tools handler
func NewToolsHandler() *ToolsHandler {
	return &ToolsHandler{}
}

// ServeHTTP handles GET /api/tools
func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tools := make([]ToolResponse, 0, len(prompt.Tools))
	for _, t := range prompt.Tools {
		tools = append(tools, ToolResponse{ID: string(t), Label: t.Label()})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": tools,
	})
}
