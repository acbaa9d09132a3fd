package models

import "time"

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderPaid      = "ORDER_PAID"
	EventTypePaymentFailed  = "PAYMENT_FAILED"
	EventTypeDownloadIssued = "DOWNLOAD_ISSUED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64   `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	ProductID   int64   `json:"product_id"`
	BumpIDs     []int64 `json:"bump_ids,omitempty"`
	Amount      int64   `json:"amount"`
}

// OrderPaidEvent published on the pending -> paid transition
type OrderPaidEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}

// PaymentFailedEvent published when the gateway reports a terminal failure
type PaymentFailedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // failed or cancelled
}

// DownloadIssuedEvent published when a download link is minted
type DownloadIssuedEvent struct {
	BaseEvent
	OrderID   int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
