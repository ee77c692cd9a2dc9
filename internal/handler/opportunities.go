package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/opportunity"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

type OpportunityHandler struct {
	Repo    repository.Repository
	Manager *opportunity.Manager
}

func (h *OpportunityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/opportunities")
	group.GET("", h.listOpportunities)
	group.GET("/stats", h.stats)
	group.GET("/expiring-soon", h.expiringSoon)
	group.GET("/:id", h.getOpportunity)
	group.POST("/:id/execute", h.executeOpportunity)
	group.POST("/:id/cancel", h.cancelOpportunity)
}

// @Summary List opportunities
// @Tags opportunities
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities [get]
func (h *OpportunityHandler) listOpportunities(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"margin_pct": "margin_pct",
		"confidence": "confidence",
		"created_at": "created_at",
		"updated_at": "updated_at",
		"expires_at": "expires_at",
	})
	asc := strings.EqualFold(c.Query("order"), "asc")

	params := repository.ListOpportunitiesParams{
		Limit:         intQuery(c, "limit", 50),
		Offset:        intQuery(c, "offset", 0),
		Status:        strQueryPtr(c, "status"),
		Category:      strQueryPtr(c, "category"),
		MinMarginPct:  decimalQueryPtr(c, "min_margin_pct"),
		MaxMarginPct:  decimalQueryPtr(c, "max_margin_pct"),
		MinConfidence: floatQueryPtr(c, "min_confidence"),
		MaxRisk:       strQueryPtr(c, "max_risk"),
		Since:         timeQueryPtr(c, "since"),
		Until:         timeQueryPtr(c, "until"),
		OrderBy:       orderBy,
		Asc:           boolPtr(asc),
	}

	items, err := h.Repo.ListOpportunities(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	total, err := h.Repo.CountOpportunities(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Get opportunity
// @Tags opportunities
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id} [get]
func (h *OpportunityHandler) getOpportunity(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetOpportunityByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		Fail(c, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "opportunity not found", nil)
		return
	}
	Ok(c, item, nil)
}

type executeRequest struct {
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Notes    *string `json:"notes"`
}

// @Summary Execute an active opportunity
// @Tags opportunities
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id}/execute [post]
func (h *OpportunityHandler) executeOpportunity(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Manager.Execute(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Quantity, req.Notes)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

type cancelRequest struct {
	Notes *string `json:"notes"`
}

// @Summary Cancel an active opportunity
// @Tags opportunities
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id}/cancel [post]
func (h *OpportunityHandler) cancelOpportunity(c *gin.Context) {
	if h.Manager == nil {
		Error(c, http.StatusInternalServerError, "manager unavailable", nil)
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Manager.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Notes)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Aggregate opportunity statistics
// @Tags opportunities
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/stats [get]
func (h *OpportunityHandler) stats(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	stats, err := h.Repo.OpportunityStats(c.Request.Context(), repository.StatsScope{
		Category: strQueryPtr(c, "category"),
		Since:    timeQueryPtr(c, "since"),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{
		"counts_by_status":       stats.CountsByStatus,
		"avg_margin_pct":         stats.AvgMarginPct,
		"avg_confidence":         stats.AvgConfidence,
		"total_potential_profit": stats.TotalPotentialProfit,
		"high_confidence_count":  stats.HighConfidenceCount,
		"low_risk_count":         stats.LowRiskCount,
	}, nil)
}

// @Summary List active opportunities expiring soon
// @Tags opportunities
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/expiring-soon [get]
func (h *OpportunityHandler) expiringSoon(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	hours := intQuery(c, "within_hours", 6)
	if hours <= 0 {
		hours = 6
	}
	cutoff := time.Now().UTC().Add(time.Duration(hours) * time.Hour)

	status := models.OpportunityStatusActive
	items, err := h.Repo.ListOpportunities(c.Request.Context(), repository.ListOpportunitiesParams{
		Limit:   intQuery(c, "limit", 50),
		Status:  &status,
		OrderBy: "expires_at",
		Asc:     boolPtr(true),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	soon := make([]models.Opportunity, 0, len(items))
	for _, item := range items {
		if item.ExpiresAt != nil && item.ExpiresAt.Before(cutoff) {
			soon = append(soon, item)
		}
	}
	Ok(c, soon, map[string]any{"within_hours": hours})
}
