package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkpost/inkpost/internal/merge"
	"github.com/inkpost/inkpost/internal/service"
)

// VersionHandler serves the version history, rollback, diff and merge
// endpoints.
type VersionHandler struct {
	versions *service.VersionService
}

func NewVersionHandler(versions *service.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

func (h *VersionHandler) Register(r gin.IRoutes) {
	r.POST("/posts/:postId/versions", h.createVersion)
	r.GET("/posts/:postId/versions", h.history)
	r.GET("/posts/:postId/versions/latest", h.latest)
	r.POST("/posts/:postId/rollback", h.rollback)
	r.GET("/posts/:postId/diff", h.diff)
	r.POST("/posts/:postId/merge", h.merge)
}

func (h *VersionHandler) createVersion(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	var req struct {
		postRequest
		ParentVersionID *string `json:"parent_version_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var parentID *uuid.UUID
	if req.ParentVersionID != nil {
		id, err := uuid.Parse(*req.ParentVersionID)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid parent_version_id, expected a valid uuid")
			return
		}
		parentID = &id
	}

	version, err := h.versions.CreateVersion(c.Request.Context(), postID, req.fields(), userID, parentID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusCreated, version, nil)
}

func (h *VersionHandler) latest(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	version, err := h.versions.GetLatestVersion(c.Request.Context(), postID)
	if err != nil {
		serviceError(c, err)
		return
	}
	if version == nil {
		errorResponse(c, http.StatusNotFound, service.ErrVersionNotFound.Error())
		return
	}

	successResponse(c, http.StatusOK, version, nil)
}

func (h *VersionHandler) history(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	versions, err := h.versions.GetVersionHistory(c.Request.Context(), postID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, versions, &Meta{Total: int64(len(versions))})
}

func (h *VersionHandler) rollback(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	var req struct {
		VersionID string `json:"version_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.versions.RollbackToVersion(c.Request.Context(), postID, uuid.MustParse(req.VersionID), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusCreated, version, nil)
}

func (h *VersionHandler) diff(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	fromID, err := uuid.Parse(c.Query("from"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid from, expected a valid uuid")
		return
	}
	toID, err := uuid.Parse(c.Query("to"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid to, expected a valid uuid")
		return
	}

	result, err := h.versions.DiffVersions(c.Request.Context(), postID, fromID, toID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, result, nil)
}

type mergeResponse struct {
	Version   interface{}      `json:"version,omitempty"`
	Conflicts []merge.Conflict `json:"conflicts,omitempty"`
	Merged    bool             `json:"merged"`
}

func (h *VersionHandler) merge(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	var req struct {
		postRequest
		BaseVersionID string `json:"base_version_id" binding:"required,uuid"`
		Strategy      string `json:"strategy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	version, conflicts, err := h.versions.MergeVersions(
		c.Request.Context(), postID, uuid.MustParse(req.BaseVersionID),
		req.fields(), userID, merge.Strategy(req.Strategy))
	if err != nil {
		serviceError(c, err)
		return
	}

	resp := mergeResponse{Conflicts: conflicts, Merged: version != nil}
	if version != nil {
		resp.Version = version
	}

	// unresolved manual conflicts are not an error, the caller picks values
	// and retries
	status := http.StatusCreated
	if version == nil {
		status = http.StatusConflict
	}
	successResponse(c, status, resp, nil)
}
