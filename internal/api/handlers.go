package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/threadwise/internal/apperr"
	"github.com/edgard/threadwise/internal/assistant"
	"github.com/edgard/threadwise/internal/scope"
)

const maxBodyBytes = 64 * 1024

// scopeRequest names at most one scope; thread wins over channel over conversation.
type scopeRequest struct {
	ThreadID       int64  `json:"thread_id"       validate:"gte=0"`
	ChannelID      string `json:"channel_id"      validate:"max=128"`
	ConversationID string `json:"conversation_id" validate:"max=128"`
}

func (s scopeRequest) scope() scope.Scope {
	return scope.Resolve(s.ThreadID, s.ChannelID, s.ConversationID)
}

type messageRequest struct {
	scopeRequest
	MessageID int64 `json:"message_id" validate:"required,gt=0"`
}

type toneRequest struct {
	Draft string `json:"draft" validate:"max=10000"`
}

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SuggestReplies handles POST /v1/workspaces/{workspaceID}/suggestions.
func (h *Handler) SuggestReplies(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}

	suggestions, err := h.assistant.SuggestReplies(r.Context(), assistant.SuggestRequest{
		WorkspaceID:     chi.URLParam(r, "workspaceID"),
		Scope:           req.scope(),
		TargetMessageID: req.MessageID,
		RequesterUserID: UserID(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// AutoRespond handles POST /v1/workspaces/{workspaceID}/responses.
func (h *Handler) AutoRespond(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}

	msg, err := h.assistant.AutoRespond(r.Context(), assistant.RespondRequest{
		WorkspaceID:     chi.URLParam(r, "workspaceID"),
		Scope:           req.scope(),
		TargetMessageID: req.MessageID,
		RequesterUserID: UserID(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": messageResponse{
		ID:              msg.ID,
		ChannelID:       msg.ChannelID.String,
		ConversationID:  msg.ConversationID.String,
		ParentMessageID: msg.ParentMessageID.Int64,
		MemberID:        msg.MemberID,
		Body:            msg.Body,
		CreatedAt:       msg.CreatedAt,
	}})
}

// AnalyzeTone handles POST /v1/tone. A null tone means none is available.
func (h *Handler) AnalyzeTone(w http.ResponseWriter, r *http.Request) {
	var req toneRequest
	if !h.decode(w, r, &req) {
		return
	}

	tone, err := h.assistant.AnalyzeTone(r.Context(), req.Draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tone": tone})
}

// Summarize handles POST /v1/workspaces/{workspaceID}/summaries.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req scopeRequest
	if !h.decode(w, r, &req) {
		return
	}
	sc := req.scope()
	if sc.IsZero() {
		writeError(w, http.StatusBadRequest, "one of thread_id, channel_id or conversation_id is required")
		return
	}

	result, err := h.assistant.Summarize(r.Context(), assistant.SummaryRequest{
		WorkspaceID:     chi.URLParam(r, "workspaceID"),
		Scope:           sc,
		RequesterUserID: UserID(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSummary handles GET /v1/workspaces/{workspaceID}/summaries/{scopeType}/{scopeID}.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	t, err := scope.ParseType(chi.URLParam(r, "scopeType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc, err := scope.FromKey(t, chi.URLParam(r, "scopeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.assistant.GetSummary(r.Context(), chi.URLParam(r, "workspaceID"), UserID(r.Context()), sc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// fail maps the error taxonomy onto HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case apperr.IsBackendFailure(err), errors.Is(err, apperr.ErrMalformedOutput):
		status = http.StatusBadGateway
	case apperr.IsCanceled(err):
		status = http.StatusGatewayTimeout
	}

	h.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "status", status, "error", err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
