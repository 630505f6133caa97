package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/agentproc"
	"github.com/anyclick/anyclick/internal/capture"
	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/payload"
	"github.com/anyclick/anyclick/internal/toast"
)

// maxFeedbackBody caps the request body. Screenshot data URLs dominate
// the size; 20 MB leaves generous headroom over the capture budget.
const maxFeedbackBody = 20 << 20

// renderTimeout bounds the browser round-trips for one submission's
// screenshots.
const renderTimeout = 10 * time.Second

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// feedbackRequest is the submission body. Browser clients send a raw
// element snapshot and let the server assemble the payload; the CLI and
// MCP tools send pre-assembled payload fields instead.
type feedbackRequest struct {
	payload.Feedback
	Snapshot *dom.Element `json:"snapshot,omitempty"`
}

// handleFeedback accepts one feedback submission, assembles the payload
// when a snapshot was sent, captures screenshots, and dispatches to the
// configured adapter chain.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req feedbackRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid feedback payload: "+err.Error())
		return
	}

	var fb *payload.Feedback
	if req.Snapshot != nil {
		built, status, errMsg := s.assemble(&req)
		if errMsg != "" {
			writeError(w, status, errMsg)
			return
		}
		fb = built
		defer s.highlighter.Clear()
	} else {
		fb = &req.Feedback
		if err := fb.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if fb.ID == "" {
			fb.ID = uuid.NewString()
		}
		if fb.CreatedAt.IsZero() {
			fb.CreatedAt = time.Now()
		}
	}

	s.attachScreenshots(r.Context(), fb)

	if s.adapter == nil {
		// No adapter configured: hand the feedback to the local agent
		// when one is running, otherwise just archive it.
		s.dispatchToAgent(w, fb)
		return
	}

	res := s.adapter.Submit(r.Context(), fb)
	if s.archive != nil {
		if err := s.archive.Save(fb, res); err != nil {
			debug.Warn("server", "failed to archive feedback %s: %v", fb.ID, err)
		}
	}

	if res.Success {
		s.toasts.Push(toast.TypeSuccess, "Feedback sent", "Your feedback was submitted.")
		writeJSON(w, http.StatusOK, res)
		return
	}

	s.toasts.Push(toast.TypeError, "Submission failed", "Your feedback could not be delivered.")
	if !s.cfg.Dev {
		res = res.Redacted()
	}
	writeJSON(w, http.StatusInternalServerError, res)
}

// assemble builds the payload from a snapshot submission: link the tree,
// locate the target, run it through the builder, and highlight the
// selection for the duration of the capture. A non-empty error message
// carries the HTTP status to return.
func (s *Server) assemble(req *feedbackRequest) (*payload.Feedback, int, string) {
	if req.Type == "" {
		return nil, http.StatusBadRequest, payload.ErrMissingType.Error()
	}

	req.Snapshot.Link()
	target := findMarkedTarget(req.Snapshot)

	fb, ok := s.builder.Build(target, req.Type, req.Comment, req.Page, req.Metadata)
	if !ok {
		return nil, http.StatusTooManyRequests, "feedback for this element was just submitted"
	}
	if err := fb.Validate(); err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}

	container := dom.FindContainer(target, s.containerOptions())
	s.highlighter.Apply(target, container)

	return fb, 0, ""
}

// attachScreenshots renders the capture targets through a connected page
// and trims the result to the configured budget. Submissions that
// already carry screenshots, and submissions with no page attached, are
// left alone.
func (s *Server) attachScreenshots(ctx context.Context, fb *payload.Feedback) {
	if fb.Screenshots != nil || s.hub.Connected() == 0 {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	shots := capture.CaptureAll(rctx, s.hub.Renderer())
	shots.TrimToBudget(s.captureBudget())
	if len(shots.Shots) > 0 || len(shots.Errors) > 0 {
		fb.Screenshots = &shots
	}
}

// dispatchToAgent forwards feedback text to the interactive cursor-agent
// session when available.
func (s *Server) dispatchToAgent(w http.ResponseWriter, fb *payload.Feedback) {
	if s.archive != nil {
		if err := s.archive.Save(fb, adapter.Result{Success: true, ID: fb.ID}); err != nil {
			debug.Warn("server", "failed to archive feedback %s: %v", fb.ID, err)
		}
	}

	if s.agent != nil && s.agent.State() == agentproc.StateRunning {
		prompt := agentPrompt(fb)
		if err := s.agent.Send(prompt); err != nil {
			debug.Error("server", "agent send failed: %v", err)
			writeError(w, http.StatusInternalServerError, "agent unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": fb.ID})
}

func agentPrompt(fb *payload.Feedback) string {
	prompt := "User feedback (" + fb.Type + ") on " + fb.Page.URL + " targeting " + fb.Element.Selector
	if fb.Comment != "" {
		prompt += ": " + fb.Comment
	}
	return prompt
}
