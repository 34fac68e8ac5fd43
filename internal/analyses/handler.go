package analyses

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/apperr"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// AIRoutePatterns lists the route patterns that call the AI provider.
var AIRoutePatterns = []string{
	"/api/resume/analyze/:resumeId",
	"/api/resume/match-jd/:resumeId",
	"/api/resume/rewrite/:resumeId",
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resume/analyze/:resumeId", h.analyze)
	rg.POST("/resume/match-jd/:resumeId", h.matchJD)
	rg.GET("/resume/rewrite/:resumeId", h.rewrite)
	rg.GET("/dashboard/analyses", h.list)
	rg.GET("/dashboard/analyses/export", h.export)
	rg.GET("/dashboard/analyses/:resumeId", h.get)
}

func (h *Handler) analyze(c *gin.Context) {
	resumeID := c.Param("resumeId")
	c.Set("resumeId", resumeID)

	analysis, err := h.Svc.Analyze(aiContext(c), middleware.UserIDFromContext(c), resumeID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set("analysisId", analysis.ID)
	respond.OK(c, toAnalyzeResponse(analysis))
}

func (h *Handler) matchJD(c *gin.Context) {
	resumeID := c.Param("resumeId")
	c.Set("resumeId", resumeID)

	var req matchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Err(c, apperr.Validation("invalid request body"))
			return
		}
	}

	outcome, err := h.Svc.MatchJobDescription(aiContext(c), middleware.UserIDFromContext(c), resumeID, req.JobDescription)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set("analysisId", outcome.Analysis.ID)
	respond.OK(c, toMatchResponse(outcome))
}

func (h *Handler) rewrite(c *gin.Context) {
	resumeID := c.Param("resumeId")
	c.Set("resumeId", resumeID)

	result, err := h.Svc.Rewrite(aiContext(c), middleware.UserIDFromContext(c), resumeID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, rewriteResponse{
		BulletImprovements: result.BulletImprovements,
		OverallFeedback:    result.OverallFeedback,
	})
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	resp := make([]summaryResponse, 0, len(list))
	for _, s := range list {
		resp = append(resp, toSummaryResponse(s))
	}
	respond.OK(c, resp)
}

func (h *Handler) export(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Err(c, err)
		return
	}
	payload, err := ExportXLSX(list)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	c.Data(http.StatusOK, exportContentType, payload)
}

func (h *Handler) get(c *gin.Context) {
	resumeID := c.Param("resumeId")
	c.Set("resumeId", resumeID)

	analysis, err := h.Svc.GetForResume(c.Request.Context(), middleware.UserIDFromContext(c), resumeID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	c.Set("analysisId", analysis.ID)
	respond.OK(c, toDetailResponse(analysis))
}

func aiContext(c *gin.Context) context.Context {
	return llm.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}
