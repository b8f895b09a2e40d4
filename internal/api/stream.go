package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-finlit/internal/achievement"
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

// StreamRequest asks for a fresh status snapshot. An empty ModuleID means
// every module.
type StreamRequest struct {
	ModuleID string `json:"moduleId,omitempty"`
}

// StreamResponse answers one StreamRequest.
type StreamResponse struct {
	UserID       string                           `json:"userId"`
	Statuses     map[string]progress.ModuleStatus `json:"statuses,omitempty"`
	Achievements *achievement.Summary             `json:"achievements,omitempty"`
	Error        string                           `json:"error,omitempty"`
}

// handleProgressStream upgrades to a WebSocket and answers each request with
// the learner's current statuses and achievements. Statuses are recomputed
// per message so clients see progress saved through the REST API.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	slog.Debug("progress stream opened", "user_id", userID)

	for {
		var req StreamRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				slog.Debug("progress stream closed", "user_id", userID)
				return
			}
			slog.Warn("progress stream read failed", "user_id", userID, "error", err)
			return
		}

		resp := s.streamSnapshot(ctx, userID, req)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			slog.Warn("progress stream write failed", "user_id", userID, "error", err)
			return
		}
	}
}

func (s *Server) streamSnapshot(ctx context.Context, userID string, req StreamRequest) StreamResponse {
	resp := StreamResponse{UserID: userID}

	p, err := s.service.Progress(ctx, userID)
	if err != nil {
		slog.Error("loading progress for stream", "user_id", userID, "error", err)
		resp.Error = "internal error"
		return resp
	}

	modules := s.catalog.Modules(ctx)
	if req.ModuleID != "" {
		m, ok := s.catalog.Module(ctx, req.ModuleID)
		if !ok {
			resp.Error = "module not found"
			return resp
		}
		resp.Statuses = map[string]progress.ModuleStatus{
			m.ID: progress.GetModuleStatus(m.ID, m, p),
		}
	} else {
		resp.Statuses = progress.ModuleStatuses(modules, p)
	}

	sum := achievement.Evaluate(p, len(p.CompletedLessons), progress.OverallProgress(modules, p))
	resp.Achievements = &sum
	return resp
}
