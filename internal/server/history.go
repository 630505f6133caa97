package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anyclick/anyclick/internal/history"
)

type historyRequest struct {
	Action   string            `json:"action"`
	Messages []history.Message `json:"messages,omitempty"`
}

type saveResponse struct {
	Success      bool      `json:"success"`
	MessageCount int       `json:"messageCount"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type loadResponse struct {
	Messages  []history.Message `json:"messages"`
	Found     bool              `json:"found"`
	CreatedAt *time.Time        `json:"createdAt,omitempty"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
}

type clearResponse struct {
	Success bool `json:"success"`
	Cleared bool `json:"cleared"`
}

// handleHistory is the chat history endpoint. GET is shorthand for a
// load; POST carries an action of save, load, or clear.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	switch r.Method {
	case http.MethodGet:
		s.historyLoad(w, ip)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "save":
		if len(req.Messages) == 0 {
			writeError(w, http.StatusBadRequest, "messages are required for save")
			return
		}
		count, expiresAt := s.history.Save(ip, req.Messages)
		writeJSON(w, http.StatusOK, saveResponse{Success: true, MessageCount: count, ExpiresAt: expiresAt})
	case "load":
		s.historyLoad(w, ip)
	case "clear":
		s.history.Clear(ip)
		writeJSON(w, http.StatusOK, clearResponse{Success: true, Cleared: true})
	default:
		writeError(w, http.StatusBadRequest, "action must be save, load, or clear")
	}
}

func (s *Server) historyLoad(w http.ResponseWriter, ip string) {
	msgs, createdAt, expiresAt, found := s.history.Load(ip)
	resp := loadResponse{Messages: msgs, Found: found}
	if resp.Messages == nil {
		resp.Messages = []history.Message{}
	}
	if found {
		resp.CreatedAt = &createdAt
		resp.ExpiresAt = &expiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}
