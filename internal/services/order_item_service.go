package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// VariationRequest describes a modifier attached to a new item.
type VariationRequest struct {
	Name            string          `json:"name" binding:"required"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
}

// AddItemRequest is used for adding an item to an order.
type AddItemRequest struct {
	ProductID  int64              `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal    `json:"quantity"`
	Note       *string            `json:"note"`
	Variations []VariationRequest `json:"variations" binding:"dive"`
}

// UpdateItemRequest edits an item's quantity and/or note.
type UpdateItemRequest struct {
	Quantity decimal.NullDecimal `json:"quantity"`
	Note     *string             `json:"note"`
}

// UpdateItemStatusRequest moves an item through the kitchen state machine.
type UpdateItemStatusRequest struct {
	Status models.ItemStatus `json:"status" binding:"required"`
}

// ItemMutationResult carries the mutated item together with the recomputed order.
type ItemMutationResult struct {
	Item  *models.OrderItem `json:"item,omitempty"`
	Order *models.Order     `json:"order"`
}

// --- End of DTOs ---

// OrderItemService implements the item lifecycle. Every mutation ends with the
// owning order's aggregate being recomputed.
type OrderItemService interface {
	AddItem(ctx context.Context, orderID int64, req AddItemRequest) (*ItemMutationResult, error)
	UpdateItemStatus(ctx context.Context, itemID int64, req UpdateItemStatusRequest) (*ItemMutationResult, error)
	UpdateItem(ctx context.Context, itemID int64, req UpdateItemRequest) (*ItemMutationResult, error)
	DeleteItem(ctx context.Context, itemID int64) (*models.Order, error)
}

type orderItemService struct {
	aggregator *OrderAggregator
	items      repositories.OrderItemRepository
	products   repositories.ProductRepository
	ledger     *StockLedger
	now        func() time.Time
}

// NewOrderItemService creates a new instance of OrderItemService.
func NewOrderItemService(
	aggregator *OrderAggregator,
	items repositories.OrderItemRepository,
	products repositories.ProductRepository,
	ledger *StockLedger,
) OrderItemService {
	return newOrderItemService(aggregator, items, products, ledger)
}

func newOrderItemService(
	aggregator *OrderAggregator,
	items repositories.OrderItemRepository,
	products repositories.ProductRepository,
	ledger *StockLedger,
) *orderItemService {
	return &orderItemService{
		aggregator: aggregator,
		items:      items,
		products:   products,
		ledger:     ledger,
		now:        time.Now,
	}
}

// Scales of the stored columns: money has 2 decimal places, item quantities 3.
const (
	moneyScale    = 2
	quantityScale = 3
)

// fitsScale reports whether d is stored without rounding at places decimals.
func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

func validateQuantity(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !fitsScale(qty, quantityScale) {
		return fmt.Errorf("%w: quantity %s has more than %d decimal places", ErrValidation, qty.String(), quantityScale)
	}
	return nil
}

// lineTotal is quantity times unit price at the stored money scale.
func lineTotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(moneyScale)
}

func validateAddItem(req AddItemRequest) error {
	if err := validateQuantity(req.Quantity); err != nil {
		return fmt.Errorf("product ID %d: %w", req.ProductID, err)
	}
	for _, v := range req.Variations {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("%w: variation name is required", ErrValidation)
		}
		if v.AdditionalPrice.IsNegative() {
			return fmt.Errorf("%w: variation '%s' has a negative additional price", ErrValidation, v.Name)
		}
		if !fitsScale(v.AdditionalPrice, moneyScale) {
			return fmt.Errorf("%w: variation '%s' price has more than %d decimal places", ErrValidation, v.Name, moneyScale)
		}
	}
	return nil
}

// addItemTx validates and inserts an item inside the order's transaction and
// records its sale movement. It does not recompute the order.
func (s *orderItemService) addItemTx(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, req AddItemRequest) (*models.OrderItem, error) {
	if !order.Status.AcceptsItems() {
		return nil, fmt.Errorf("%w: cannot add items to order %s in status '%s'", ErrInvalidStateTransition, order.Number, order.Status)
	}
	if err := validateAddItem(req); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, executor, req.ProductID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("product %d", req.ProductID))
	}
	if !product.Available {
		return nil, fmt.Errorf("%w: product '%s' (ID: %d) is not available", ErrValidation, product.Name, product.ID)
	}

	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    req.Quantity,
		LineTotal:   lineTotal(req.Quantity, product.Price),
		Note:        req.Note,
		Status:      models.ItemStatusPending,
	}
	for _, v := range req.Variations {
		item.Variations = append(item.Variations, models.Variation{
			Name:            strings.TrimSpace(v.Name),
			AdditionalPrice: v.AdditionalPrice,
		})
	}
	if err := s.items.Create(ctx, executor, item); err != nil {
		return nil, mapRepoError(err, "creating order item")
	}

	reason := fmt.Sprintf("Sale on order %s", order.Number)
	if err := s.ledger.recordSale(ctx, executor, product, item.ID, models.MovementTypeOut, item.Quantity, reason); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *orderItemService) AddItem(ctx context.Context, orderID int64, req AddItemRequest) (*ItemMutationResult, error) {
	if err := validateAddItem(req); err != nil {
		return nil, err
	}

	var created *models.OrderItem
	order, err := s.aggregator.mutate(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		item, err := s.addItemTx(ctx, executor, order, req)
		if err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ItemMutationResult{Item: findItem(order, created.ID, created), Order: order}, nil
}

// loadItemForMutation reads the item inside the order's transaction and checks
// that its order still allows item mutations.
func (s *orderItemService) loadItemForMutation(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, itemID int64) (*models.OrderItem, error) {
	item, err := s.items.GetByID(ctx, executor, itemID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("order item %d", itemID))
	}
	if item.OrderID != order.ID {
		return nil, fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s is '%s' and its items can no longer change", ErrInvalidStateTransition, order.Number, order.Status)
	}
	return item, nil
}

func (s *orderItemService) owningOrder(ctx context.Context, itemID int64) (int64, error) {
	item, err := s.items.GetByID(ctx, nil, itemID)
	if err != nil {
		return 0, mapRepoError(err, fmt.Sprintf("order item %d", itemID))
	}
	return item.OrderID, nil
}

func (s *orderItemService) UpdateItemStatus(ctx context.Context, itemID int64, req UpdateItemStatusRequest) (*ItemMutationResult, error) {
	next := req.Status
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown item status '%s'", ErrValidation, next)
	}
	orderID, err := s.owningOrder(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var updated *models.OrderItem
	order, err := s.aggregator.mutate(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		item, err := s.loadItemForMutation(ctx, executor, order, itemID)
		if err != nil {
			return err
		}
		updated = item
		return s.transitionItem(ctx, executor, order, item, next)
	})
	if err != nil {
		return nil, err
	}
	return &ItemMutationResult{Item: findItem(order, itemID, updated), Order: order}, nil
}

// transitionItem applies one state machine step to item and persists it.
// Requesting the current status is a no-op.
func (s *orderItemService) transitionItem(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, item *models.OrderItem, next models.ItemStatus) error {
	if item.Status == next {
		return nil
	}
	if !item.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: item %d cannot move from '%s' to '%s'", ErrInvalidStateTransition, item.ID, item.Status, next)
	}

	now := s.now()
	switch next {
	case models.ItemStatusPreparing:
		if item.PrepStartedAt == nil {
			item.PrepStartedAt = &now
		}
	case models.ItemStatusReady:
		if item.PrepReadyAt == nil {
			item.PrepReadyAt = &now
		}
	case models.ItemStatusCancelled:
		if err := s.returnStock(ctx, executor, order, item, item.Quantity, "Cancelled item"); err != nil {
			return err
		}
	}
	item.Status = next

	if err := s.items.Update(ctx, executor, item); err != nil {
		return mapRepoError(err, fmt.Sprintf("order item %d", item.ID))
	}
	return nil
}

func (s *orderItemService) UpdateItem(ctx context.Context, itemID int64, req UpdateItemRequest) (*ItemMutationResult, error) {
	if req.Quantity.Valid {
		if err := validateQuantity(req.Quantity.Decimal); err != nil {
			return nil, err
		}
	}
	orderID, err := s.owningOrder(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var updated *models.OrderItem
	order, err := s.aggregator.mutateChecked(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		item, err := s.loadItemForMutation(ctx, executor, order, itemID)
		if err != nil {
			return err
		}

		if req.Quantity.Valid && !req.Quantity.Decimal.Equal(item.Quantity) {
			if item.Status.IsTerminal() {
				return fmt.Errorf("%w: quantity of a '%s' item cannot change", ErrInvalidStateTransition, item.Status)
			}
			delta := req.Quantity.Decimal.Sub(item.Quantity)
			if err := s.adjustStock(ctx, executor, order, item, delta); err != nil {
				return err
			}
			item.Quantity = req.Quantity.Decimal
			item.LineTotal = lineTotal(item.Quantity, item.UnitPrice)
		}
		if req.Note != nil {
			item.Note = req.Note
		}

		if err := s.items.Update(ctx, executor, item); err != nil {
			return mapRepoError(err, fmt.Sprintf("order item %d", item.ID))
		}
		updated = item
		return nil
	}, s.checkCoverage)
	if err != nil {
		return nil, err
	}
	return &ItemMutationResult{Item: findItem(order, itemID, updated), Order: order}, nil
}

func (s *orderItemService) DeleteItem(ctx context.Context, itemID int64) (*models.Order, error) {
	orderID, err := s.owningOrder(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return s.aggregator.mutateChecked(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		item, err := s.loadItemForMutation(ctx, executor, order, itemID)
		if err != nil {
			return err
		}
		if item.Status != models.ItemStatusCancelled {
			if err := s.returnStock(ctx, executor, order, item, item.Quantity, "Removed item"); err != nil {
				return err
			}
		}
		if err := s.items.Delete(ctx, executor, itemID); err != nil {
			return mapRepoError(err, fmt.Sprintf("order item %d", itemID))
		}
		return nil
	}, s.checkCoverage)
}

// checkCoverage runs after changes that can lower the total of an order
// that already holds approved payments.
func (s *orderItemService) checkCoverage(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
	return s.aggregator.reconcilePayments(ctx, executor, order, s.now())
}

// adjustStock records the stock effect of a quantity change: more sold goes out, less sold comes back.
func (s *orderItemService) adjustStock(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, item *models.OrderItem, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	product, err := s.products.GetByID(ctx, executor, item.ProductID)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("product %d", item.ProductID))
	}
	reason := fmt.Sprintf("Quantity change on order %s", order.Number)
	if delta.IsPositive() {
		return s.ledger.recordSale(ctx, executor, product, item.ID, models.MovementTypeOut, delta, reason)
	}
	return s.ledger.recordSale(ctx, executor, product, item.ID, models.MovementTypeIn, delta.Abs(), reason)
}

// returnStock records a compensating inbound movement for qty of the item's product.
func (s *orderItemService) returnStock(ctx context.Context, executor repositories.SQLExecutor, order *models.Order, item *models.OrderItem, qty decimal.Decimal, why string) error {
	product, err := s.products.GetByID(ctx, executor, item.ProductID)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("product %d", item.ProductID))
	}
	reason := fmt.Sprintf("%s on order %s", why, order.Number)
	return s.ledger.recordSale(ctx, executor, product, item.ID, models.MovementTypeIn, qty, reason)
}

// findItem returns the recomputed copy of the item from the order, falling back to fallback.
func findItem(order *models.Order, itemID int64, fallback *models.OrderItem) *models.OrderItem {
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			return &order.Items[i]
		}
	}
	return fallback
}
