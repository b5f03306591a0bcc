package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/session"
	"github.com/adalundhe/llcguide/core/transcript"
	"github.com/gin-gonic/gin"
)

// Handlers holds the route handlers
type Handlers struct {
	sessions    Sessions
	transcripts TranscriptLister
	logger      *slog.Logger
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionResponse is returned by POST /v1/sessions
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
}

// MessageRequest is the body of POST /v1/sessions/:id/messages
type MessageRequest struct {
	Message string            `json:"message"`
	Context conversation.Info `json:"context,omitempty"`
}

// TranscriptResponse lists the recorded turns of a session
type TranscriptResponse struct {
	SessionID string            `json:"session_id"`
	Turns     []transcript.Turn `json:"turns"`
}

// Health reports liveness and the live session count
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
}

// CreateSession starts a session
func (h *Handlers) CreateSession(c *gin.Context) {
	s, err := h.sessions.Create()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID(),
		Stage:     conversation.StageInitial.String(),
	})
}

// GetSession returns a session snapshot
func (h *Handlers) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// CloseSession ends a session
func (h *Handlers) CloseSession(c *gin.Context) {
	id := c.Param("sessionId")
	if err := h.sessions.Close(id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed", "session_id": id})
}

// SendMessage runs one conversation turn
func (h *Handlers) SendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	resp, err := h.sessions.Send(c.Request.Context(), c.Param("sessionId"), req.Message, req.Context)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTranscript lists a session's recorded turns. It works for sessions
// that have already ended.
func (h *Handlers) GetTranscript(c *gin.Context) {
	id := c.Param("sessionId")
	turns, err := h.transcripts.List(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if turns == nil {
		turns = []transcript.Turn{}
	}
	c.JSON(http.StatusOK, TranscriptResponse{SessionID: id, Turns: turns})
}

// fail maps an error onto a status code
func (h *Handlers) fail(c *gin.Context, err error) {
	var agentErr *conversation.AgentError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrManagerClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.As(err, &agentErr):
		h.logger.Warn("agent failure", "agent", agentErr.Agent, "stage", agentErr.Stage.String(), "error", agentErr.Err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
