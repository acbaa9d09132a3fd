package service

import (
	"context"
	"database/sql"
	"time"

	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
)

// Store is the persistence gateway the services run against. *store.Store
// implements it; tests use in-memory fakes.
type Store interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetOrderBumpsByIDs(ctx context.Context, ids []int64) ([]models.OrderBump, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	AddOrderBumps(ctx context.Context, orderID int64, bumpIDs []int64) error
	GetOrderBumpIDs(ctx context.Context, orderID int64) ([]int64, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error)
	MarkOrderTerminal(ctx context.Context, orderID int64, status string) error

	CreatePaymentTransaction(ctx context.Context, tx *models.PaymentTransaction) error
	GetPaymentTransactionByOrderID(ctx context.Context, orderID int64) (*models.PaymentTransaction, error)
	GetPaymentTransactionByTxID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error)
	UpdatePaymentTransactionStatus(ctx context.Context, id int64, status string, webhookData sql.NullString) error

	CreateDownloadLink(ctx context.Context, link *models.DownloadLink) error
	GetDownloadLinkByToken(ctx context.Context, token string) (*models.DownloadLink, error)
	GetDownloadLinkByOrder(ctx context.Context, orderID, productID int64) (*models.DownloadLink, error)
	ConsumeDownloadLink(ctx context.Context, id int64, now time.Time) (bool, error)

	CreateEmailLog(ctx context.Context, log *models.EmailLog) error
}

// PixGateway issues and inspects Pix charges. Amounts are minor units.
type PixGateway interface {
	CreateCharge(ctx context.Context, amountInCents int64, customer gateway.Customer, orderReference, description string) (*gateway.Charge, error)
	CheckStatus(ctx context.Context, transactionID string) (*gateway.Status, error)
}

// EventPublisher fans order lifecycle events out to the broker, best-effort
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
	PublishDownloadIssued(ctx context.Context, event *models.DownloadIssuedEvent) error
}
