package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

type ProductHandler struct {
	Repo repository.Repository
}

func (h *ProductHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/products")
	group.GET("", h.listProducts)
	group.POST("", h.upsertProduct)
	group.GET("/:id", h.getProduct)
	group.GET("/:id/prices", h.listPrices)
	group.GET("/:id/components", h.listComponents)
	group.PUT("/:id/components", h.putComponents)
}

// @Summary List products
// @Tags products
// @Success 200 {object} map[string]any
// @Router /api/v1/products [get]
func (h *ProductHandler) listProducts(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"name":       "name",
		"category":   "category",
		"created_at": "created_at",
		"updated_at": "updated_at",
	})
	asc := strings.EqualFold(c.Query("order"), "asc")

	params := repository.ListProductsParams{
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
		Kind:     strQueryPtr(c, "kind"),
		Category: strQueryPtr(c, "category"),
		Active:   boolQueryPtr(c, "active"),
		Search:   strQueryPtr(c, "search"),
		OrderBy:  orderBy,
		Asc:      boolPtr(asc),
	}

	items, err := h.Repo.ListProducts(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	total, err := h.Repo.CountProducts(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Get product
// @Tags products
// @Success 200 {object} map[string]any
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) getProduct(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "product not found", nil)
		return
	}
	Ok(c, item, nil)
}

type upsertProductRequest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name" binding:"required"`
	SetName       *string `json:"set_name"`
	Kind          string  `json:"kind" binding:"required,oneof=sealed single"`
	Category      string  `json:"category" binding:"required"`
	TCGProductID  *string `json:"tcg_product_id"`
	EbayProductID *string `json:"ebay_product_id"`
	AmazonASIN    *string `json:"amazon_asin"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
	Active        *bool   `json:"active"`
	Featured      *bool   `json:"featured"`
}

// @Summary Create or update a product
// @Tags products
// @Success 201 {object} map[string]any
// @Router /api/v1/products [post]
func (h *ProductHandler) upsertProduct(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req upsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item := &models.Product{
		ID:            strings.TrimSpace(req.ID),
		Name:          strings.TrimSpace(req.Name),
		SetName:       req.SetName,
		Kind:          req.Kind,
		Category:      strings.TrimSpace(req.Category),
		TCGProductID:  req.TCGProductID,
		EbayProductID: req.EbayProductID,
		AmazonASIN:    req.AmazonASIN,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Active:        true,
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.Featured != nil {
		item.Featured = *req.Featured
	}

	if err := h.Repo.UpsertProduct(c.Request.Context(), item); err != nil {
		Fail(c, err)
		return
	}
	Created(c, item)
}

// @Summary List recent price observations for a product
// @Tags products
// @Success 200 {object} map[string]any
// @Router /api/v1/products/{id}/prices [get]
func (h *ProductHandler) listPrices(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListPriceObservations(c.Request.Context(), repository.ListObservationsParams{
		ProductID: strings.TrimSpace(c.Param("id")),
		Source:    strQueryPtr(c, "source"),
		Since:     timeQueryPtr(c, "since"),
		Limit:     intQuery(c, "limit", 100),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary List component mappings for a sealed product
// @Tags products
// @Success 200 {object} map[string]any
// @Router /api/v1/products/{id}/components [get]
func (h *ProductHandler) listComponents(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListComponentMappings(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

type componentMappingRequest struct {
	SingleProductID string   `json:"single_product_id" binding:"required"`
	Quantity        int      `json:"quantity"`
	Guaranteed      *bool    `json:"guaranteed"`
	Rarity          *string  `json:"rarity"`
	PullProbability *float64 `json:"pull_probability"`
}

// @Summary Replace component mappings for a sealed product
// @Tags products
// @Success 200 {object} map[string]any
// @Router /api/v1/products/{id}/components [put]
func (h *ProductHandler) putComponents(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	sealedID := strings.TrimSpace(c.Param("id"))
	product, err := h.Repo.GetProductByID(c.Request.Context(), sealedID)
	if err != nil {
		Fail(c, err)
		return
	}
	if product == nil {
		Error(c, http.StatusNotFound, "product not found", nil)
		return
	}
	if !product.IsSealed() {
		Error(c, http.StatusBadRequest, "product is not sealed", nil)
		return
	}

	var reqs []componentMappingRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	items := make([]models.ComponentMapping, 0, len(reqs))
	for _, req := range reqs {
		m := models.ComponentMapping{
			ID:              uuid.NewString(),
			SealedProductID: sealedID,
			SingleProductID: strings.TrimSpace(req.SingleProductID),
			Quantity:        req.Quantity,
			Guaranteed:      true,
			Rarity:          req.Rarity,
			PullProbability: req.PullProbability,
		}
		if m.Quantity <= 0 {
			m.Quantity = 1
		}
		if req.Guaranteed != nil {
			m.Guaranteed = *req.Guaranteed
		}
		items = append(items, m)
	}

	if err := h.Repo.UpsertComponentMappings(c.Request.Context(), items); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}
