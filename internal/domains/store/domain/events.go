package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateKey() string
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"occurredAt"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPendingPayment is raised when a deferred checkout binds an order to a payment session.
type OrderPendingPayment struct {
	BaseEvent
	OrderCode string `json:"orderCode"`
	OwnerID   string `json:"ownerId"`
	SessionID string `json:"sessionId"`
	Total     int64  `json:"total"`
}

func (e OrderPendingPayment) EventName() string    { return "store.order.pending_payment" }
func (e OrderPendingPayment) AggregateKey() string { return e.OrderCode }

// OrderPlaced is raised once stock has been reserved for an order.
type OrderPlaced struct {
	BaseEvent
	OrderCode string      `json:"orderCode"`
	OwnerID   string      `json:"ownerId"`
	Total     int64       `json:"total"`
	Lines     []OrderLine `json:"lines"`
}

func (e OrderPlaced) EventName() string    { return "store.order.placed" }
func (e OrderPlaced) AggregateKey() string { return e.OrderCode }

// OrderCancelled is raised when a pending order is cancelled.
type OrderCancelled struct {
	BaseEvent
	OrderCode string `json:"orderCode"`
	Reason    string `json:"reason"`
}

func (e OrderCancelled) EventName() string    { return "store.order.cancelled" }
func (e OrderCancelled) AggregateKey() string { return e.OrderCode }

// OrderExpired is raised when an abandoned pending order is cancelled by the reaper.
type OrderExpired struct {
	BaseEvent
	OrderCode string `json:"orderCode"`
}

func (e OrderExpired) EventName() string    { return "store.order.expired" }
func (e OrderExpired) AggregateKey() string { return e.OrderCode }

// PaymentRefunded records the outcome of a compensating refund.
type PaymentRefunded struct {
	BaseEvent
	OrderCode string `json:"orderCode"`
	SessionID string `json:"sessionId"`
	RefundID  string `json:"refundId"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

func (e PaymentRefunded) EventName() string    { return "store.payment.refunded" }
func (e PaymentRefunded) AggregateKey() string { return e.OrderCode }
