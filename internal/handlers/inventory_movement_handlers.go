package handlers

import (
	"net/http"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockMovementHandler serves the stock ledger.
type StockMovementHandler struct {
	ledger services.StockLedgerService
}

// NewStockMovementHandler creates a new StockMovementHandler.
func NewStockMovementHandler(ledger services.StockLedgerService) *StockMovementHandler {
	return &StockMovementHandler{ledger: ledger}
}

func (h *StockMovementHandler) RecordMovement(c *gin.Context) {
	var req services.RecordMovementRequest
	if !bindJSON(c, "RecordMovement", &req) {
		return
	}
	movement, err := h.ledger.RecordMovement(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "RecordMovement: Error from ledger.RecordMovement", "Failed to record stock movement.")
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func (h *StockMovementHandler) EditMovement(c *gin.Context) {
	movementID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.EditMovementRequest
	if !bindJSON(c, "EditMovement", &req) {
		return
	}
	movement, err := h.ledger.EditMovement(c.Request.Context(), movementID, req)
	if err != nil {
		respondServiceError(c, err, "EditMovement: Error from ledger.EditMovement", "Failed to update stock movement.")
		return
	}
	c.JSON(http.StatusOK, movement)
}

func (h *StockMovementHandler) DeleteMovement(c *gin.Context) {
	movementID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteMovement(c.Request.Context(), movementID); err != nil {
		respondServiceError(c, err, "DeleteMovement: Error from ledger.DeleteMovement", "Failed to delete stock movement.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock movement deleted successfully"})
}

// timeQuery parses an optional from/to query parameter.
func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := utils.ParseTimeParam(raw)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return nil, false
	}
	return &t, true
}

// GetProductMovements lists a product's ledger, optionally limited by ?from=&to=.
func (h *StockMovementHandler) GetProductMovements(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var filters models.MovementFilters
	if filters.From, ok = timeQuery(c, "from"); !ok {
		return
	}
	if filters.To, ok = timeQuery(c, "to"); !ok {
		return
	}
	movements, err := h.ledger.ListMovements(c.Request.Context(), productID, filters)
	if err != nil {
		respondServiceError(c, err, "GetProductMovements: Error from ledger.ListMovements", "Failed to fetch stock movements.")
		return
	}
	c.JSON(http.StatusOK, movements)
}

// GetProductBalance replays the whole ledger of a product.
func (h *StockMovementHandler) GetProductBalance(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	balance, err := h.ledger.ComputeBalance(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, "GetProductBalance: Error from ledger.ComputeBalance", "Failed to compute stock balance.")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// GetProductPeriodBalance replays only the movements recorded inside ?from=&to= (both required).
func (h *StockMovementHandler) GetProductPeriodBalance(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		utils.RespondValidationFailed(c, "from and to are required")
		return
	}
	balance, err := h.ledger.ComputePeriod(c.Request.Context(), productID, *from, *to)
	if err != nil {
		respondServiceError(c, err, "GetProductPeriodBalance: Error from ledger.ComputePeriod", "Failed to compute period balance.")
		return
	}
	c.JSON(http.StatusOK, balance)
}
