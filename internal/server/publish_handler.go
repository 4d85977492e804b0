package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpost/inkpost/internal/service"
)

// PublishHandler serves the immediate publish and scheduling endpoints.
type PublishHandler struct {
	publish *service.PublishService
}

func NewPublishHandler(publish *service.PublishService) *PublishHandler {
	return &PublishHandler{publish: publish}
}

func (h *PublishHandler) Register(r gin.IRoutes) {
	r.POST("/posts/:postId/publish", h.publishNow)
	r.POST("/posts/:postId/schedule", h.schedule)
	r.GET("/queue/:queueId", h.getQueueItem)
	r.DELETE("/queue/:queueId", h.cancel)
}

func (h *PublishHandler) publishNow(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	var req struct {
		Platforms []string `json:"platforms"`
	}
	// an empty body publishes without share links
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.publish.PublishNow(c.Request.Context(), postID, req.Platforms)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, result, nil)
}

func (h *PublishHandler) schedule(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	var req struct {
		ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.publish.SchedulePost(c.Request.Context(), postID, req.ScheduledFor)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusCreated, item, nil)
}

func (h *PublishHandler) getQueueItem(c *gin.Context) {
	queueID, ok := pathUUID(c, "queueId")
	if !ok {
		return
	}

	item, err := h.publish.GetQueueItem(c.Request.Context(), queueID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, item, nil)
}

func (h *PublishHandler) cancel(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	queueID, ok := pathUUID(c, "queueId")
	if !ok {
		return
	}

	if err := h.publish.CancelScheduledPost(c.Request.Context(), queueID); err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"cancelled": true}, nil)
}
