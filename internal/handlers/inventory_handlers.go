package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves products and units of measure.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(s services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: s}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, "CreateProduct", &req) {
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateProduct: Error from catalogService.CreateProduct", "Failed to create product.")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists the catalog; ?available=true limits it to sellable products.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context(), c.Query("available") == "true")
	if err != nil {
		respondServiceError(c, err, "GetProducts: Error from catalogService.ListProducts", "Failed to fetch products.")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err, "GetProductByID: Error from catalogService.GetProduct", "Failed to fetch product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateUnit(c *gin.Context) {
	var req services.CreateUnitRequest
	if !bindJSON(c, "CreateUnit", &req) {
		return
	}
	unit, err := h.catalogService.CreateUnit(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateUnit: Error from catalogService.CreateUnit", "Failed to create unit.")
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (h *CatalogHandler) GetUnits(c *gin.Context) {
	units, err := h.catalogService.ListUnits(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetUnits: Error from catalogService.ListUnits", "Failed to fetch units.")
		return
	}
	c.JSON(http.StatusOK, units)
}

func (h *CatalogHandler) GetUnitByID(c *gin.Context) {
	unitID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	unit, err := h.catalogService.GetUnit(c.Request.Context(), unitID)
	if err != nil {
		respondServiceError(c, err, "GetUnitByID: Error from catalogService.GetUnit", "Failed to fetch unit.")
		return
	}
	c.JSON(http.StatusOK, unit)
}
