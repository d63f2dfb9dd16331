package models

// OrderStatus is the lifecycle state of an order (comanda).
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusSubmitted, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the order is frozen for item and payment mutations.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// AcceptsItems reports whether new items may be added to an order in this status.
func (s OrderStatus) AcceptsItems() bool {
	return s == OrderStatusOpen || s == OrderStatusSubmitted
}

// OrderEvent is an explicit, client-triggered order lifecycle event.
// Status changes driven by items are derived, not evented.
type OrderEvent string

const (
	OrderEventSubmit OrderEvent = "submit"
	OrderEventPay    OrderEvent = "pay"
	OrderEventCancel OrderEvent = "cancel"
)

var orderTransitions = map[OrderStatus]map[OrderEvent]OrderStatus{
	OrderStatusOpen: {
		OrderEventSubmit: OrderStatusSubmitted,
		OrderEventPay:    OrderStatusPaid,
		OrderEventCancel: OrderStatusCancelled,
	},
	OrderStatusSubmitted: {
		OrderEventPay:    OrderStatusPaid,
		OrderEventCancel: OrderStatusCancelled,
	},
	OrderStatusPreparing: {
		OrderEventPay:    OrderStatusPaid,
		OrderEventCancel: OrderStatusCancelled,
	},
	OrderStatusReady: {
		OrderEventPay:    OrderStatusPaid,
		OrderEventCancel: OrderStatusCancelled,
	},
	OrderStatusDelivered: {
		OrderEventPay: OrderStatusPaid,
	},
}

// Apply returns the status reached by applying ev, or false when the table rejects it.
func (s OrderStatus) Apply(ev OrderEvent) (OrderStatus, bool) {
	next, ok := orderTransitions[s][ev]
	return next, ok
}

// ItemStatus is the kitchen state of a single order line.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusDelivered ItemStatus = "delivered"
	ItemStatusCancelled ItemStatus = "cancelled"
)

var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusPending:   {ItemStatusPreparing, ItemStatusCancelled},
	ItemStatusPreparing: {ItemStatusReady, ItemStatusCancelled},
	ItemStatusReady:     {ItemStatusDelivered, ItemStatusCancelled},
}

// IsValid reports whether s is a known item status.
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusDelivered, ItemStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusDelivered || s == ItemStatusCancelled
}

// CanTransitionTo reports whether the item state machine allows s -> next.
// A same-state request is always allowed and treated as a no-op by callers.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the processing state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusApproved   PaymentStatus = "approved"
	PaymentStatusRejected   PaymentStatus = "rejected"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCancelled},
	PaymentStatusApproved:   {PaymentStatusRejected, PaymentStatusCancelled},
}

// IsValid reports whether s is a known payment status.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusApproved,
		PaymentStatusRejected, PaymentStatusCancelled:
		return true
	}
	return false
}

// IsApprovalEligible reports whether a payment in this status may still end up approved.
func (s PaymentStatus) IsApprovalEligible() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing || s == PaymentStatusApproved
}

// CanTransitionTo reports whether the payment state machine allows s -> next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod is the tender used for a payment.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodVoucher    PaymentMethod = "voucher"
	PaymentMethodOther      PaymentMethod = "other"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodPix, PaymentMethodVoucher, PaymentMethodOther:
		return true
	}
	return false
}

// TenderBucket groups payment methods for cash drawer reconciliation.
type TenderBucket string

const (
	TenderCash  TenderBucket = "cash"
	TenderCard  TenderBucket = "card"
	TenderOther TenderBucket = "other"
)

// Bucket maps a payment method onto its reconciliation bucket.
func (m PaymentMethod) Bucket() TenderBucket {
	switch m {
	case PaymentMethodCash:
		return TenderCash
	case PaymentMethodCreditCard, PaymentMethodDebitCard:
		return TenderCard
	default:
		return TenderOther
	}
}

// MovementType is the kind of stock ledger entry.
type MovementType string

const (
	MovementTypeIn         MovementType = "in"
	MovementTypeOut        MovementType = "out"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeTransfer   MovementType = "transfer"
	MovementTypeLoss       MovementType = "loss"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment, MovementTypeTransfer, MovementTypeLoss:
		return true
	}
	return false
}

// MovementDirection says which way a transfer moves stock relative to this product's ledger.
type MovementDirection string

const (
	DirectionIn  MovementDirection = "in"
	DirectionOut MovementDirection = "out"
)

// IsValid reports whether d is a known direction.
func (d MovementDirection) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// ShiftStatus is the state of a cashier shift.
type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "open"
	ShiftStatusClosed ShiftStatus = "closed"
)

// OrderChannel is how the order was placed.
type OrderChannel string

const (
	ChannelCounter  OrderChannel = "counter"
	ChannelTakeaway OrderChannel = "takeaway"
	ChannelDelivery OrderChannel = "delivery"
)

// IsValid reports whether c is a known channel.
func (c OrderChannel) IsValid() bool {
	return c == ChannelCounter || c == ChannelTakeaway || c == ChannelDelivery
}
