package services

import (
	"context"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateOrderRequest is used for creating a new order.
type CreateOrderRequest struct {
	RestaurantID int64               `json:"restaurant_id" binding:"required"`
	Channel      models.OrderChannel `json:"channel"` // defaults to counter
	TableID      *int64              `json:"table_id"`
	StaffID      *int64              `json:"staff_id"`
	Notes        *string             `json:"notes"`
	Items        []AddItemRequest    `json:"items" binding:"dive"`
}

// AdminUpdateOrderRequest is an administrative correction of an order.
// Nil fields are left unchanged.
type AdminUpdateOrderRequest struct {
	Channel  *models.OrderChannel `json:"channel"`
	TableID  *int64               `json:"table_id"`
	StaffID  *int64               `json:"staff_id"`
	Notes    *string              `json:"notes"`
	Taxes    decimal.NullDecimal  `json:"taxes"`
	Discount decimal.NullDecimal  `json:"discount"`
	Status   *models.OrderStatus  `json:"status"`
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Orders     []models.Order `json:"orders"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// --- End of DTOs ---

// OrderService defines the order lifecycle operations that sit around the aggregator.
type OrderService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) (*OrderListResponse, error)
	SubmitOrder(ctx context.Context, orderID int64) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*models.Order, error)
	AdminUpdateOrder(ctx context.Context, orderID int64, req AdminUpdateOrderRequest) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	RecomputeOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

type orderService struct {
	tx         repositories.TxManager
	aggregator *OrderAggregator
	orders     repositories.OrderRepository
	items      repositories.OrderItemRepository
	payments   repositories.PaymentRepository
	staff      repositories.StaffRepository
	itemOps    *orderItemService
	now        func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	tx repositories.TxManager,
	aggregator *OrderAggregator,
	orders repositories.OrderRepository,
	items repositories.OrderItemRepository,
	payments repositories.PaymentRepository,
	products repositories.ProductRepository,
	staff repositories.StaffRepository,
	ledger *StockLedger,
) OrderService {
	return &orderService{
		tx:         tx,
		aggregator: aggregator,
		orders:     orders,
		items:      items,
		payments:   payments,
		staff:      staff,
		itemOps:    newOrderItemService(aggregator, items, products, ledger),
		now:        time.Now,
	}
}

func (s *orderService) checkStaff(ctx context.Context, executor repositories.SQLExecutor, staffID *int64) error {
	if staffID == nil {
		return nil
	}
	member, err := s.staff.GetStaffMemberByID(ctx, executor, *staffID)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("staff member %d", *staffID))
	}
	if !member.Active {
		return fmt.Errorf("%w: staff member %d is not active", ErrValidation, member.ID)
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if req.Channel == "" {
		req.Channel = models.ChannelCounter
	}
	if !req.Channel.IsValid() {
		return nil, fmt.Errorf("%w: unknown channel '%s'", ErrValidation, req.Channel)
	}
	for _, item := range req.Items {
		if err := validateAddItem(item); err != nil {
			return nil, err
		}
	}

	var created *models.Order
	err := s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		if err := s.checkStaff(ctx, executor, req.StaffID); err != nil {
			return err
		}

		now := s.now()
		number, err := s.orders.NextOrderNumber(ctx, executor, now)
		if err != nil {
			return mapRepoError(err, "allocating order number")
		}
		order := &models.Order{
			Number:       number,
			RestaurantID: req.RestaurantID,
			Channel:      req.Channel,
			TableID:      req.TableID,
			StaffID:      req.StaffID,
			OrderTotals: models.OrderTotals{
				Subtotal: decimal.Zero, ServiceCharge: decimal.Zero,
				Taxes: decimal.Zero, Discount: decimal.Zero, Total: decimal.Zero,
			},
			Status: models.OrderStatusOpen,
			Notes:  req.Notes,
		}
		if order.Notes != nil {
			order.Notes = utils.NewNullString(*order.Notes)
		}
		if err := s.orders.Create(ctx, executor, order); err != nil {
			return mapRepoError(err, fmt.Sprintf("creating order for restaurant %d", req.RestaurantID))
		}

		for _, item := range req.Items {
			if _, err := s.itemOps.addItemTx(ctx, executor, order, item); err != nil {
				return err
			}
		}
		if err := s.aggregator.refresh(ctx, executor, order, scopeAll); err != nil {
			return err
		}
		if err := s.orders.Update(ctx, executor, order, order.Version); err != nil {
			return mapRepoError(err, fmt.Sprintf("order %s", order.Number))
		}
		order.Payments = []models.Payment{}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order created", map[string]interface{}{
		"order_id": created.ID, "number": created.Number, "items": len(created.Items), "total": created.Total.String(),
	})
	return created, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("order %d", orderID))
	}
	order.Items, err = s.items.ListByOrder(ctx, nil, orderID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("items of order %d", orderID))
	}
	order.Payments, err = s.payments.ListByOrder(ctx, nil, orderID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("payments of order %d", orderID))
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filters models.OrderFilters) (*OrderListResponse, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	if filters.Status != nil && *filters.Status != "" && !models.OrderStatus(*filters.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown order status '%s'", ErrValidation, *filters.Status)
	}
	if filters.Channel != nil && *filters.Channel != "" && !models.OrderChannel(*filters.Channel).IsValid() {
		return nil, fmt.Errorf("%w: unknown channel '%s'", ErrValidation, *filters.Channel)
	}
	if filters.Date != nil && *filters.Date != "" {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}

	orders, total, err := s.orders.List(ctx, nil, filters)
	if err != nil {
		return nil, mapRepoError(err, "listing orders")
	}
	return &OrderListResponse{Orders: orders, TotalCount: total, Page: filters.Page, PageSize: filters.PageSize}, nil
}

func (s *orderService) SubmitOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.aggregator.mutate(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		next, ok := order.Status.Apply(models.OrderEventSubmit)
		if !ok {
			return fmt.Errorf("%w: order %s cannot be submitted from '%s'", ErrInvalidStateTransition, order.Number, order.Status)
		}
		order.Status = next
		return nil
	})
}

// CancelOrder cancels every item that is still moving through the kitchen,
// returning their stock, and voids payments that were never approved.
func (s *orderService) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.aggregator.mutate(ctx, orderID, scopeAll, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		next, ok := order.Status.Apply(models.OrderEventCancel)
		if !ok {
			return fmt.Errorf("%w: order %s cannot be cancelled from '%s'", ErrInvalidStateTransition, order.Number, order.Status)
		}

		payments, err := s.payments.ListByOrder(ctx, executor, order.ID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("payments of order %d", order.ID))
		}
		for _, p := range payments {
			if p.Status == models.PaymentStatusApproved {
				return fmt.Errorf("%w: order %s has approved payment %d", ErrInvalidStateTransition, order.Number, p.ID)
			}
		}

		items, err := s.items.ListByOrder(ctx, executor, order.ID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("items of order %d", order.ID))
		}
		for i := range items {
			if items[i].Status.IsTerminal() {
				continue
			}
			if err := s.itemOps.transitionItem(ctx, executor, order, &items[i], models.ItemStatusCancelled); err != nil {
				return err
			}
		}

		for i := range payments {
			p := &payments[i]
			if p.Status != models.PaymentStatusPending && p.Status != models.PaymentStatusProcessing {
				continue
			}
			p.Status = models.PaymentStatusCancelled
			if err := s.payments.UpdateStatus(ctx, executor, p); err != nil {
				return mapRepoError(err, fmt.Sprintf("payment %d", p.ID))
			}
		}

		order.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Order cancelled", map[string]interface{}{"order_id": order.ID, "number": order.Number})
	return order, nil
}

// AdminUpdateOrder applies an administrative correction. It is allowed on
// terminal orders; totals are always re-derived afterwards.
func (s *orderService) AdminUpdateOrder(ctx context.Context, orderID int64, req AdminUpdateOrderRequest) (*models.Order, error) {
	if req.Channel != nil && !req.Channel.IsValid() {
		return nil, fmt.Errorf("%w: unknown channel '%s'", ErrValidation, *req.Channel)
	}
	if req.Taxes.Valid && req.Taxes.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: taxes must not be negative", ErrValidation)
	}
	if req.Discount.Valid && req.Discount.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}
	if (req.Taxes.Valid && !fitsScale(req.Taxes.Decimal, moneyScale)) || (req.Discount.Valid && !fitsScale(req.Discount.Decimal, moneyScale)) {
		return nil, fmt.Errorf("%w: taxes and discount take at most %d decimal places", ErrValidation, moneyScale)
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown order status '%s'", ErrValidation, *req.Status)
	}

	// An explicit status override must survive the recompute, so only totals are
	// re-derived. Without one, new taxes or discount are held against the approved payments.
	scope := scopeAll
	check := func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		return s.aggregator.reconcilePayments(ctx, executor, order, s.now())
	}
	if req.Status != nil {
		scope = scopeTotals
		check = nil
	}

	order, err := s.aggregator.mutateChecked(ctx, orderID, scope, func(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) error {
		if req.StaffID != nil {
			if err := s.checkStaff(ctx, executor, req.StaffID); err != nil {
				return err
			}
			order.StaffID = req.StaffID
		}
		if req.Channel != nil {
			order.Channel = *req.Channel
		}
		if req.TableID != nil {
			order.TableID = req.TableID
		}
		if req.Notes != nil {
			order.Notes = req.Notes
		}
		if req.Taxes.Valid {
			order.Taxes = req.Taxes.Decimal
		}
		if req.Discount.Valid {
			order.Discount = req.Discount.Decimal
		}
		if req.Status != nil && *req.Status != order.Status {
			order.Status = *req.Status
			if order.Status == models.OrderStatusPaid {
				if order.FinalizedAt == nil {
					now := s.now()
					order.FinalizedAt = &now
				}
			} else {
				order.FinalizedAt = nil
			}
		}
		return nil
	}, check)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Order updated by administrator", map[string]interface{}{"order_id": order.ID, "status": order.Status})
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	unlock := s.aggregator.locks.Lock(orderID)
	defer unlock()

	err := s.tx.WithinTx(ctx, func(executor repositories.SQLExecutor) error {
		order, err := s.orders.GetByID(ctx, executor, orderID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("order %d", orderID))
		}
		if order.Status != models.OrderStatusOpen {
			return fmt.Errorf("%w: only open orders can be deleted, order %s is '%s'", ErrInvalidStateTransition, order.Number, order.Status)
		}
		payments, err := s.payments.ListByOrder(ctx, executor, orderID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("payments of order %d", orderID))
		}
		if len(payments) > 0 {
			return fmt.Errorf("%w: order %s has %d payments", ErrInvalidStateTransition, order.Number, len(payments))
		}

		items, err := s.items.ListByOrder(ctx, executor, orderID)
		if err != nil {
			return mapRepoError(err, fmt.Sprintf("items of order %d", orderID))
		}
		for i := range items {
			if items[i].Status == models.ItemStatusCancelled {
				continue
			}
			if err := s.itemOps.returnStock(ctx, executor, order, &items[i], items[i].Quantity, "Deleted order"); err != nil {
				return err
			}
		}

		if err := s.orders.Delete(ctx, executor, orderID); err != nil {
			return mapRepoError(err, fmt.Sprintf("order %d", orderID))
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.LogInfo("Order deleted", map[string]interface{}{"order_id": orderID})
	return nil
}

func (s *orderService) RecomputeOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.aggregator.Recompute(ctx, orderID)
}
