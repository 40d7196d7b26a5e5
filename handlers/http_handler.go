// Package handlers provides the HTTP handlers for the symptom lookup and the
// browser chat. Handlers only translate between HTTP and the injected core.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/giygas/medbot/chat"
	"github.com/giygas/medbot/interfaces"
	"github.com/giygas/medbot/logging"
	"github.com/giygas/medbot/metrics"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements the interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	advisor       interfaces.Advisor
	chats         interfaces.ChatStore
	validator     interfaces.Validator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(advisor interfaces.Advisor, chats interfaces.ChatStore, validator interfaces.Validator, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		advisor:       advisor,
		chats:         chats,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// DiagnoseRequest is the body of POST /diagnose
type DiagnoseRequest struct {
	Inputs []string `json:"inputs"`
}

// MessageRequest is the body of POST /chat/sessions/{id}/messages
type MessageRequest struct {
	Message string `json:"message"`
}

// SessionResponse is the JSON view of a chat session
type SessionResponse struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	LastActive time.Time      `json:"last_active"`
	Pending    bool           `json:"pending"`
	Messages   []chat.Message `json:"messages"`
	Transcript string         `json:"transcript"`
	Reply      *chat.Message  `json:"reply,omitempty"`
}

// HealthResponse keeps the field order of /health stable
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// ListSymptoms returns the whole catalog in declaration order
func (h *HTTPHandlerImpl) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.advisor.Symptoms())
}

// GetSymptom returns one catalog entry by key
func (h *HTTPHandlerImpl) GetSymptom(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateInput(name); err != nil {
		logging.Warn("Unusual user input", "name", name, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	symptom, ok := h.advisor.Lookup(name)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Symptom not found")
		return
	}
	h.RespondWithJSON(w, http.StatusOK, symptom)
}

// Diagnose runs identify, diagnose and format over the posted fragments
func (h *HTTPHandlerImpl) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validator.ValidateInputs(req.Inputs); err != nil {
		logging.Warn("Rejected diagnose input", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	advice := h.advisor.Advise(req.Inputs)
	metrics.RecordLookup(advice.Symptoms, advice.Diagnosis)

	if advice.Symptoms == nil {
		advice.Symptoms = []string{}
	}
	h.RespondWithJSON(w, http.StatusOK, advice)
}

// OpenSession starts a chat and returns it with the greeting
func (h *HTTPHandlerImpl) OpenSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chats.Open()
	if err != nil {
		h.respondWithChatError(w, err)
		return
	}
	metrics.ChatSessionsActive.Set(float64(h.chats.Count()))

	logging.Debug("Chat session opened", "session_id", session.ID.String())
	h.RespondWithJSON(w, http.StatusCreated, newSessionResponse(session))
}

// GetSession returns the transcript; clients poll it while a reply is pending
func (h *HTTPHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateSessionID(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.chats.Get(id)
	if err != nil {
		h.respondWithChatError(w, err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, newSessionResponse(session))
}

// SendMessage posts a user message. It answers 202 while the bot is
// "thinking" and 200 once the reply is in the transcript.
func (h *HTTPHandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateSessionID(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.ValidateMessage(req.Message); err != nil {
		logging.Warn("Rejected chat message", "session_id", id.String(), "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.chats.Send(id, req.Message)
	if err != nil {
		h.respondWithChatError(w, err)
		return
	}

	resp := newSessionResponse(session)
	if session.Pending {
		h.RespondWithJSON(w, http.StatusAccepted, resp)
		return
	}
	if reply, ok := session.LastReply(); ok {
		resp.Reply = &reply
	}
	h.RespondWithJSON(w, http.StatusOK, resp)
}

// CloseSession drops a chat
func (h *HTTPHandlerImpl) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.validator.ValidateSessionID(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.chats.Close(id); err != nil {
		h.respondWithChatError(w, err)
		return
	}
	metrics.ChatSessionsActive.Set(float64(h.chats.Count()))

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck returns service health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.healthChecker.HealthCheck()

	resp := HealthResponse{Status: status}
	if v, ok := details["uptime"].(string); ok {
		resp.Uptime = v
	}
	if v, ok := details["uptime_seconds"].(int64); ok {
		resp.UptimeSeconds = v
	}
	if v, ok := details["data"].(map[string]any); ok {
		resp.Data = v
	}
	if v, ok := details["system"].(map[string]any); ok {
		resp.System = v
	}

	h.RespondWithJSON(w, code, resp)
}

// respondWithChatError maps chat sentinel errors to HTTP codes
func (h *HTTPHandlerImpl) respondWithChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Chat session not found")
	case errors.Is(err, chat.ErrEmptyMessage):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrReplyPending), errors.Is(err, chat.ErrSessionFull):
		h.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrTooManySessions):
		w.Header().Set("Retry-After", "60")
		h.RespondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logging.Error("Chat store failure", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func newSessionResponse(s chat.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID.String(),
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
		Pending:    s.Pending,
		Messages:   s.Messages,
		Transcript: s.Transcript(),
	}
}

// ChatResponder builds the bot's reply to a free-text chat message, counting
// the lookup in the metrics
func ChatResponder(advisor interfaces.Advisor) chat.Responder {
	return func(text string) string {
		matched := advisor.Identify([]string{text})
		diagnosis := advisor.Diagnose(matched)
		metrics.RecordLookup(matched, diagnosis)
		return advisor.FormatChat(matched)
	}
}
