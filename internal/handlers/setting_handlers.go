package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SettingHandler serves per-restaurant configuration.
type SettingHandler struct {
	catalogService services.CatalogService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(s services.CatalogService) *SettingHandler {
	return &SettingHandler{catalogService: s}
}

// GetRestaurantSettings returns the restaurant with its service charge rate.
func (h *SettingHandler) GetRestaurantSettings(c *gin.Context) {
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.catalogService.GetRestaurantSettings(c.Request.Context(), restaurantID)
	if err != nil {
		respondServiceError(c, err, "GetRestaurantSettings: Error from catalogService.GetRestaurantSettings", "Failed to fetch restaurant settings.")
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// UpdateRestaurantSettings changes the service charge rate. Orders pick it up on their next recompute.
func (h *SettingHandler) UpdateRestaurantSettings(c *gin.Context) {
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateRestaurantSettingsRequest
	if !bindJSON(c, "UpdateRestaurantSettings", &req) {
		return
	}
	restaurant, err := h.catalogService.UpdateRestaurantSettings(c.Request.Context(), restaurantID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateRestaurantSettings: Error from catalogService.UpdateRestaurantSettings", "Failed to update restaurant settings.")
		return
	}
	c.JSON(http.StatusOK, restaurant)
}
