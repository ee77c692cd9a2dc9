package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jaswa1/arbitrary-rage/internal/service"
)

type SettingsHandler struct {
	Settings *service.SystemSettings
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/settings")
	group.GET("", h.listSettings)
	group.PUT("/:key", h.putSetting)
}

// @Summary List system settings
// @Tags settings
// @Success 200 {object} map[string]any
// @Router /api/v1/settings [get]
func (h *SettingsHandler) listSettings(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings unavailable", nil)
		return
	}
	items, err := h.Settings.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

type putSettingRequest struct {
	Value       *bool  `json:"value" binding:"required"`
	Description string `json:"description"`
}

// @Summary Set a boolean system switch
// @Tags settings
// @Success 200 {object} map[string]any
// @Router /api/v1/settings/{key} [put]
func (h *SettingsHandler) putSetting(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "settings unavailable", nil)
		return
	}
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if err := h.Settings.SetBool(c.Request.Context(), key, *req.Value, req.Description); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"key": key, "value": *req.Value}, nil)
}
