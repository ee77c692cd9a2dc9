package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jaswa1/arbitrary-rage/internal/analysis"
)

type AnalysisHandler struct {
	Analyzer *analysis.Analyzer
}

func (h *AnalysisHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/analysis")
	group.POST("/trigger", h.trigger)
}

type triggerRequest struct {
	// Scope is product, category or all (default all).
	Scope string `json:"scope"`
	// ID names the product or category when the scope needs one.
	ID string `json:"id"`
}

// @Summary Trigger a detection run
// @Tags analysis
// @Accept json
// @Success 202 {object} map[string]any
// @Router /api/v1/analysis/trigger [post]
func (h *AnalysisHandler) trigger(c *gin.Context) {
	if h.Analyzer == nil {
		Error(c, http.StatusInternalServerError, "analyzer unavailable", nil)
		return
	}

	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
			return
		}
	}
	req.Scope = strings.ToLower(strings.TrimSpace(req.Scope))
	req.ID = strings.TrimSpace(req.ID)

	switch req.Scope {
	case "product":
		if req.ID == "" {
			Error(c, http.StatusBadRequest, "product scope requires an id", nil)
			return
		}
		opp, err := h.Analyzer.AnalyzeProduct(c.Request.Context(), req.ID)
		if err != nil {
			Fail(c, err)
			return
		}
		if opp == nil {
			Accepted(c, map[string]any{"opportunity": nil, "reason": "margin below minimum"})
			return
		}
		Accepted(c, opp)
	case "category":
		if req.ID == "" {
			Error(c, http.StatusBadRequest, "category scope requires an id", nil)
			return
		}
		report, err := h.Analyzer.AnalyzeAll(c.Request.Context(), &req.ID)
		if err != nil {
			Fail(c, err)
			return
		}
		Accepted(c, report)
	case "", "all":
		report, err := h.Analyzer.AnalyzeAll(c.Request.Context(), nil)
		if err != nil {
			Fail(c, err)
			return
		}
		Accepted(c, report)
	default:
		Error(c, http.StatusBadRequest, "scope must be product, category or all", nil)
	}
}
