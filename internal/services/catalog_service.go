package services

import (
	"context"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// CreateProductRequest is used for creating a catalog product.
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	Available     *bool           `json:"available"`
	ControlsStock bool            `json:"controls_stock"`
	BaseUnitID    int64           `json:"base_unit_id" binding:"required"`
}

// CreateUnitRequest is used for registering a unit of measure.
type CreateUnitRequest struct {
	Name             string          `json:"name" binding:"required"`
	Symbol           string          `json:"symbol" binding:"required"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

// UpdateRestaurantSettingsRequest changes a restaurant's service charge rate.
type UpdateRestaurantSettingsRequest struct {
	ServiceChargeRate decimal.NullDecimal `json:"service_charge_rate"`
}

// CatalogService exposes the product catalog, the unit registry and restaurant configuration.
type CatalogService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	ListProducts(ctx context.Context, availableOnly bool) ([]models.Product, error)

	CreateUnit(ctx context.Context, req CreateUnitRequest) (*models.UnitOfMeasure, error)
	GetUnit(ctx context.Context, unitID int64) (*models.UnitOfMeasure, error)
	ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error)

	GetRestaurantSettings(ctx context.Context, restaurantID int64) (*models.Restaurant, error)
	UpdateRestaurantSettings(ctx context.Context, restaurantID int64, req UpdateRestaurantSettingsRequest) (*models.Restaurant, error)
}

type catalogService struct {
	products repositories.ProductRepository
	units    repositories.UnitRepository
	settings repositories.SettingRepository
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(products repositories.ProductRepository, units repositories.UnitRepository, settings repositories.SettingRepository) CatalogService {
	return &catalogService{products: products, units: units, settings: settings}
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if !fitsScale(req.Price, moneyScale) {
		return nil, fmt.Errorf("%w: price %s has more than %d decimal places", ErrValidation, req.Price.String(), moneyScale)
	}
	if _, err := s.units.GetByID(ctx, nil, req.BaseUnitID); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("unit %d", req.BaseUnitID))
	}

	product := &models.Product{
		Name:          strings.TrimSpace(req.Name),
		Price:         req.Price,
		Available:     true,
		ControlsStock: req.ControlsStock,
		BaseUnitID:    req.BaseUnitID,
	}
	if req.Available != nil {
		product.Available = *req.Available
	}
	if err := s.products.Create(ctx, nil, product); err != nil {
		return nil, mapRepoError(err, "creating product")
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("product %d", productID))
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, availableOnly bool) ([]models.Product, error) {
	products, err := s.products.List(ctx, nil, availableOnly)
	if err != nil {
		return nil, mapRepoError(err, "listing products")
	}
	return products, nil
}

func (s *catalogService) CreateUnit(ctx context.Context, req CreateUnitRequest) (*models.UnitOfMeasure, error) {
	if strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: unit name and symbol are required", ErrValidation)
	}
	if !req.ConversionFactor.IsPositive() {
		return nil, fmt.Errorf("%w: conversion factor must be greater than zero", ErrValidation)
	}
	unit := &models.UnitOfMeasure{
		Name:             strings.TrimSpace(req.Name),
		Symbol:           strings.TrimSpace(req.Symbol),
		ConversionFactor: req.ConversionFactor,
	}
	if err := s.units.Create(ctx, nil, unit); err != nil {
		return nil, mapRepoError(err, "creating unit")
	}
	return unit, nil
}

func (s *catalogService) GetUnit(ctx context.Context, unitID int64) (*models.UnitOfMeasure, error) {
	unit, err := s.units.GetByID(ctx, nil, unitID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("unit %d", unitID))
	}
	return unit, nil
}

func (s *catalogService) ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error) {
	units, err := s.units.List(ctx, nil)
	if err != nil {
		return nil, mapRepoError(err, "listing units")
	}
	return units, nil
}

func (s *catalogService) GetRestaurantSettings(ctx context.Context, restaurantID int64) (*models.Restaurant, error) {
	restaurant, err := s.settings.GetRestaurant(ctx, nil, restaurantID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("restaurant %d", restaurantID))
	}
	return restaurant, nil
}

// UpdateRestaurantSettings changes the service charge rate. Existing orders pick
// up the new rate on their next recomputation.
func (s *catalogService) UpdateRestaurantSettings(ctx context.Context, restaurantID int64, req UpdateRestaurantSettingsRequest) (*models.Restaurant, error) {
	if !req.ServiceChargeRate.Valid {
		return nil, fmt.Errorf("%w: service_charge_rate is required", ErrValidation)
	}
	rate := req.ServiceChargeRate.Decimal
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: service charge rate must be between 0 and 1", ErrValidation)
	}
	if err := s.settings.UpdateServiceChargeRate(ctx, nil, restaurantID, rate); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("restaurant %d", restaurantID))
	}
	return s.GetRestaurantSettings(ctx, restaurantID)
}
