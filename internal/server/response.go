package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpost/inkpost/internal/merge"
	"github.com/inkpost/inkpost/internal/service"
)

// APIResponse standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// Meta pagination and additional metadata
type Meta struct {
	Total int64 `json:"total,omitempty"`
}

func successResponse(c *gin.Context, status int, data interface{}, meta *Meta) {
	c.JSON(status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func errorResponse(c *gin.Context, status int, message string, causes ...string) {
	c.JSON(status, APIResponse{
		Error:  message,
		Errors: causes,
	})
}

// serviceError translates domain errors to HTTP statuses. Anything unmapped is
// an internal error and the raw message stays out of the response.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrVersionNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrQueueItemNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoChange),
		errors.Is(err, service.ErrNoCommonAncestor),
		errors.Is(err, service.ErrAlreadyProcessed):
		errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSessionExpired):
		errorResponse(c, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrIncompletePost),
		errors.Is(err, merge.ErrUnknownStrategy):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		errorResponse(c, http.StatusServiceUnavailable, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, "internal server error")
	}
}
