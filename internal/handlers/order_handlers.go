package handlers

import (
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles the creation of a new order with its initial items.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if !bindJSON(c, "CreateOrder", &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateOrder: Error from orderService.CreateOrder", "Failed to create order.")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders handles fetching orders with filters and pagination.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters

	if !optionalInt64Query(c, "restaurant_id", &filters.RestaurantID) ||
		!optionalInt64Query(c, "staff_id", &filters.StaffID) ||
		!optionalInt64Query(c, "table_id", &filters.TableID) {
		return
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if channel := c.Query("channel"); channel != "" {
		filters.Channel = &channel
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetOrders: Error from orderService.ListOrders", "Failed to fetch orders.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrderByID returns one order with its items and payments.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "GetOrderByID: Error from orderService.GetOrder", "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder is the administrative correction endpoint.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AdminUpdateOrderRequest
	if !bindJSON(c, "UpdateOrder", &req) {
		return
	}
	order, err := h.orderService.AdminUpdateOrder(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateOrder: Error from orderService.AdminUpdateOrder", "Failed to update order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.SubmitOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "SubmitOrder: Error from orderService.SubmitOrder", "Failed to submit order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "CancelOrder: Error from orderService.CancelOrder", "Failed to cancel order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// RecomputeOrder forces a recomputation of totals and status.
func (h *OrderHandler) RecomputeOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.RecomputeOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "RecomputeOrder: Error from orderService.RecomputeOrder", "Failed to recompute order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), orderID); err != nil {
		respondServiceError(c, err, "DeleteOrder: Error from orderService.DeleteOrder", "Failed to delete order.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
