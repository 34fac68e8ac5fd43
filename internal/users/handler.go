package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches the unauthenticated auth routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
}

// RegisterRoutes attaches routes that require a bearer token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/me", h.me)
}

func (h *Handler) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Err(c, apperr.Validation("invalid request body"))
		return
	}
	result, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.Created(c, result)
}

func (h *Handler) login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Err(c, apperr.Validation("invalid request body"))
		return
	}
	result, err := h.Svc.Login(c.Request.Context(), in)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"user": user.Public()})
}
