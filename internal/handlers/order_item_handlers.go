package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderItemHandler exposes the item lifecycle.
type OrderItemHandler struct {
	itemService services.OrderItemService
}

// NewOrderItemHandler creates a new OrderItemHandler.
func NewOrderItemHandler(s services.OrderItemService) *OrderItemHandler {
	return &OrderItemHandler{itemService: s}
}

// AddItem adds an item to the order in the path.
func (h *OrderItemHandler) AddItem(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AddItemRequest
	if !bindJSON(c, "AddItem", &req) {
		return
	}
	result, err := h.itemService.AddItem(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, err, "AddItem: Error from itemService.AddItem", "Failed to add item.")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrderItemHandler) UpdateItemStatus(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateItemStatusRequest
	if !bindJSON(c, "UpdateItemStatus", &req) {
		return
	}
	result, err := h.itemService.UpdateItemStatus(c.Request.Context(), itemID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateItemStatus: Error from itemService.UpdateItemStatus", "Failed to update item status.")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderItemHandler) UpdateItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateItemRequest
	if !bindJSON(c, "UpdateItem", &req) {
		return
	}
	result, err := h.itemService.UpdateItem(c.Request.Context(), itemID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateItem: Error from itemService.UpdateItem", "Failed to update item.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteItem removes the item and returns the recomputed order.
func (h *OrderItemHandler) DeleteItem(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.itemService.DeleteItem(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, err, "DeleteItem: Error from itemService.DeleteItem", "Failed to delete item.")
		return
	}
	c.JSON(http.StatusOK, order)
}
