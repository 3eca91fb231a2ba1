package httpHandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"community-server/auth"
	"community-server/entities"
	"community-server/logging"
	"community-server/middleware"
	"community-server/usecases"
)

type SubHandler struct {
	useCase *usecases.SubUseCase
	log     logging.Logger
}

func NewSubHandler(useCase *usecases.SubUseCase, log logging.Logger) *SubHandler {
	return &SubHandler{useCase: useCase, log: log}
}

type CreateSubRequest struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateSub handles POST /api/subs
func (h *SubHandler) CreateSub(c *gin.Context) {
	var req CreateSubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, h.log, errInvalidBody)
		return
	}

	owner := auth.PrincipalFromContext(c.Request.Context()).User
	sub, err := h.useCase.CreateSub(c.Request.Context(), owner, req.Name, req.Title, req.Description)
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.useCase.View(sub))
}

// GetSub handles GET /api/subs/:name
func (h *SubHandler) GetSub(c *gin.Context) {
	sub, err := h.useCase.GetSub(c.Request.Context(), c.Param("name"))
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.useCase.View(sub))
}

// UploadAsset handles POST /api/subs/:name/upload. Ownership and the file
// itself were checked by the middleware chain.
func (h *SubHandler) UploadAsset(c *gin.Context) {
	ctx := c.Request.Context()

	up, ok := middleware.UploadedFromContext(ctx)
	if !ok {
		middleware.AbortWithError(c, h.log, errors.New("upload missing from request context"))
		return
	}
	sub, ok := middleware.ResourceFromContext[*entities.Sub](ctx)
	if !ok {
		h.useCase.Discard(ctx, up.Name)
		middleware.AbortWithError(c, h.log, errors.New("sub missing from request context"))
		return
	}

	updated, err := h.useCase.ReplaceAsset(ctx, sub, c.PostForm("type"), up.Name)
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.useCase.View(updated))
}
