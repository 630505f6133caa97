package server

import (
	"net/http"

	"github.com/anyclick/anyclick/internal/agentproc"
)

type healthResponse struct {
	Status               string `json:"status"`
	CursorAgentInstalled bool   `json:"cursorAgentInstalled"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:               "ok",
		CursorAgentInstalled: agentproc.Installed(),
	})
}
