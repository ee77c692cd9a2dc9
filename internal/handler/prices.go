package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jaswa1/arbitrary-rage/internal/ingest"
	"github.com/jaswa1/arbitrary-rage/internal/models"
)

type PriceHandler struct {
	Ingest *ingest.Service
}

func (h *PriceHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/prices")
	group.POST("/observations", h.postObservations)
}

type observationRequest struct {
	ProductID         string           `json:"product_id" binding:"required"`
	Price             decimal.Decimal  `json:"price" binding:"required"`
	Currency          string           `json:"currency"`
	Source            string           `json:"source" binding:"required"`
	SourceURL         *string          `json:"source_url"`
	Condition         string           `json:"condition"`
	SellerCount       *int             `json:"seller_count"`
	AvailableQuantity *int             `json:"available_quantity"`
	ShippingCost      *decimal.Decimal `json:"shipping_cost"`
	QualityWeight     float64          `json:"quality_weight"`
	ObservedAt        *time.Time       `json:"observed_at"`
}

// @Summary Ingest a batch of price observations
// @Tags prices
// @Success 200 {object} map[string]any
// @Router /api/v1/prices/observations [post]
func (h *PriceHandler) postObservations(c *gin.Context) {
	if h.Ingest == nil {
		Error(c, http.StatusInternalServerError, "ingest unavailable", nil)
		return
	}
	var reqs []observationRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	items := make([]models.PriceObservation, 0, len(reqs))
	for _, req := range reqs {
		item := models.PriceObservation{
			ProductID:         req.ProductID,
			Price:             req.Price,
			Currency:          req.Currency,
			Source:            req.Source,
			SourceURL:         req.SourceURL,
			Condition:         req.Condition,
			SellerCount:       req.SellerCount,
			AvailableQuantity: req.AvailableQuantity,
			ShippingCost:      req.ShippingCost,
			QualityWeight:     req.QualityWeight,
		}
		if req.ObservedAt != nil {
			item.ObservedAt = req.ObservedAt.UTC()
		}
		items = append(items, item)
	}

	result, err := h.Ingest.Ingest(c.Request.Context(), items)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}
