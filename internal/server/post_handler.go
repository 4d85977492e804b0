package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/service"
)

// PostHandler serves the draft CRUD and preview endpoints.
type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) Register(r gin.IRoutes) {
	r.POST("/posts", h.createPost)
	r.GET("/posts", h.listPosts)
	r.GET("/posts/:postId", h.getPost)
	r.DELETE("/posts/:postId", h.deletePost)
	r.GET("/posts/:postId/preview", h.preview)
	r.POST("/subscribers", h.subscribe)
}

type postRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

func (r postRequest) fields() model.PostFields {
	return model.PostFields{
		Title:   r.Title,
		Content: r.Content,
		Excerpt: r.Excerpt,
		Tags:    r.Tags,
	}
}

func (h *PostHandler) createPost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), req.fields(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusCreated, post, nil)
}

func (h *PostHandler) getPost(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, post, nil)
}

func (h *PostHandler) listPosts(c *gin.Context) {
	posts, total, err := h.posts.ListPosts(c.Request.Context(), c.Query("author"))
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, posts, &Meta{Total: total})
}

func (h *PostHandler) deletePost(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), postID); err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func (h *PostHandler) preview(c *gin.Context) {
	postID, ok := pathUUID(c, "postId")
	if !ok {
		return
	}

	html, err := h.posts.Preview(c.Request.Context(), postID)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"html": html}, nil)
}

func (h *PostHandler) subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.posts.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		serviceError(c, err)
		return
	}

	successResponse(c, http.StatusCreated, sub, nil)
}

// pathUUID parses a uuid path parameter, answering 400 on malformed input.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid "+name+", expected a valid uuid")
		return uuid.Nil, false
	}
	return id, true
}
