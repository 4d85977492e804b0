package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkpost/inkpost/internal/service"
)

// SessionHandler serves the collaborative editing session endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Register(r gin.IRoutes) {
	r.POST("/sessions", h.start)
	r.POST("/sessions/:sessionId/join", h.join)
	r.POST("/sessions/:sessionId/heartbeat", h.heartbeat)
	r.GET("/posts/:postId/sessions", h.active)
}

func (h *SessionHandler) start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req struct {
		PostID string `json:"post_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.StartSession(c.Request.Context(), uuid.MustParse(req.PostID), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusCreated, session, nil)
}

func (h *SessionHandler) join(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sessionID, ok := pathUUID(c, "sessionId")
	if !ok {
		return
	}

	session, err := h.sessions.JoinSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session, nil)
}

func (h *SessionHandler) heartbeat(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sessionID, ok := pathUUID(c, "sessionId")
	if !ok {
		return
	}

	session, err := h.sessions.Heartbeat(c.Request.Context(), sessionID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session, nil)
}

func (h *SessionHandler) active(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	sessions, err := h.sessions.GetActiveSessions(c.Request.Context(), postID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, sessions, &Meta{Total: int64(len(sessions))})
}
