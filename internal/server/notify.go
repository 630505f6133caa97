package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anyclick/anyclick/internal/toast"
)

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

type notifyRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
	// DurationMs overrides the default display time.
	DurationMs int `json:"durationMs,omitempty"`
}

// handleNotify pushes a toast to every connected page. Used by hook
// scripts and the notify CLI command.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	typ := req.Type
	switch typ {
	case toast.TypeSuccess, toast.TypeError, toast.TypeWarning, toast.TypeInfo:
	default:
		typ = toast.TypeInfo
	}

	var id string
	if req.DurationMs > 0 {
		id = s.toasts.PushWithDuration(typ, req.Title, req.Message, msDuration(req.DurationMs))
	} else {
		id = s.toasts.Push(typ, req.Title, req.Message)
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}
