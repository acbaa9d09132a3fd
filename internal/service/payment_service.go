package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
	"storefront-service/internal/notify"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService drives the order payment lifecycle: charge issuance,
// status reconciliation from polling and webhooks, and entitlement delivery
// on the first observed completion.
type PaymentService struct {
	store        Store
	gateway      PixGateway
	downloads    *DownloadService
	mailer       notify.Mailer
	events       EventPublisher
	logger       *zap.Logger
	chargeWindow time.Duration
	appBaseURL   string
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	store Store,
	gw PixGateway,
	downloads *DownloadService,
	mailer notify.Mailer,
	events EventPublisher,
	chargeWindow time.Duration,
	appBaseURL string,
) *PaymentService {
	return &PaymentService{
		store:        store,
		gateway:      gw,
		downloads:    downloads,
		mailer:       mailer,
		events:       events,
		logger:       util.GetLogger(),
		chargeWindow: chargeWindow,
		appBaseURL:   appBaseURL,
	}
}

// CreateChargeResponse carries the fields a client needs to pay
type CreateChargeResponse struct {
	TransactionID string    `json:"transaction_id"`
	PixCode       string    `json:"pix_code"`
	PixQrCode     string    `json:"pix_qr_code"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// CreateCharge issues a Pix charge for an order. Idempotent: while a pending
// transaction exists for the order it is returned unchanged and no second
// charge reaches the gateway. Gateway failures surface to the caller.
func (s *PaymentService) CreateCharge(ctx context.Context, orderNumber string) (*CreateChargeResponse, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateCharge")
	defer span.End()

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
		}
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, order.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", order.ProductID, ErrNotFound)
		}
		return nil, err
	}

	existing, err := s.store.GetPaymentTransactionByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("checking existing transaction: %w", err)
	}
	if existing != nil && existing.Status == models.TxStatusPending {
		util.ChargesReusedTotal.Inc()
		s.logger.Info("Reusing pending transaction",
			zap.Int64("order_id", order.ID),
			zap.String("transaction_id", existing.TransactionID))
		return &CreateChargeResponse{
			TransactionID: existing.TransactionID,
			PixCode:       existing.PixCode,
			PixQrCode:     existing.PixQrCode,
			ExpiresAt:     existing.ExpiresAt,
		}, nil
	}

	charge, err := s.gateway.CreateCharge(ctx, order.AmountInCents, gateway.Customer{
		Name:     order.CustomerName,
		Email:    order.CustomerEmail,
		Phone:    order.CustomerPhone.String,
		Document: order.CustomerDocument.String,
	}, order.OrderNumber, fmt.Sprintf("Compra: %s", product.Name))
	if err != nil {
		return nil, fmt.Errorf("creating pix charge: %w", err)
	}

	expiresAt := time.Now().Add(s.chargeWindow)

	tx := &models.PaymentTransaction{
		OrderID:       order.ID,
		TransactionID: charge.TransactionID,
		PixCode:       charge.PixCode,
		PixQrCode:     charge.PixQrCode,
		Status:        models.TxStatusPending,
		AmountInCents: order.AmountInCents,
		ExpiresAt:     expiresAt,
	}
	if err := s.store.CreatePaymentTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}

	util.ChargesIssuedTotal.Inc()
	s.logger.Info("Pix charge issued",
		zap.Int64("order_id", order.ID),
		zap.String("transaction_id", charge.TransactionID),
		zap.Int64("amount_in_cents", order.AmountInCents))

	return &CreateChargeResponse{
		TransactionID: charge.TransactionID,
		PixCode:       charge.PixCode,
		PixQrCode:     charge.PixQrCode,
		ExpiresAt:     expiresAt,
	}, nil
}

// CheckStatus reconciles an order's payment status via the polling path.
// Safe to call repeatedly and concurrently with webhook delivery.
func (s *PaymentService) CheckStatus(ctx context.Context, orderNumber string) (string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CheckStatus")
	defer span.End()

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
		}
		return "", err
	}

	tx, err := s.store.GetPaymentTransactionByOrderID(ctx, order.ID)
	if err != nil {
		return "", fmt.Errorf("fetching transaction: %w", err)
	}
	if tx == nil || tx.Status != models.TxStatusPending {
		return order.Status, nil
	}

	st, err := s.gateway.CheckStatus(ctx, tx.TransactionID)
	if err != nil {
		// Polling stays on "pending"; the client will poll again and the
		// webhook path remains available.
		s.logger.Warn("Gateway status check failed",
			zap.String("transaction_id", tx.TransactionID),
			zap.Error(err))
		return order.Status, nil
	}

	if st.Status == models.TxStatusPending {
		return order.Status, nil
	}

	if err := s.settle(ctx, order, tx, st, sql.NullString{}); err != nil {
		return "", err
	}

	refreshed, err := s.store.GetOrderByID(ctx, order.ID)
	if err != nil {
		return "", err
	}
	return refreshed.Status, nil
}

// HandleWebhook reconciles from a provider push. Malformed payloads return
// ErrValidation (provider gets a 400 and gives up); unknown transactions
// return ErrNotFound. Replayed deliveries are no-ops.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	st, err := gateway.NormalizeWebhook(payload)
	if err != nil {
		util.WebhooksProcessedTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	tx, err := s.store.GetPaymentTransactionByTxID(ctx, st.TransactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			util.WebhooksProcessedTotal.WithLabelValues("unknown_transaction").Inc()
			return fmt.Errorf("transaction %s: %w", st.TransactionID, ErrNotFound)
		}
		return err
	}

	order, err := s.store.GetOrderByID(ctx, tx.OrderID)
	if err != nil {
		return fmt.Errorf("fetching order %d: %w", tx.OrderID, err)
	}

	if st.Status == models.TxStatusPending {
		util.WebhooksProcessedTotal.WithLabelValues("noop").Inc()
		return nil
	}

	raw := sql.NullString{String: string(payload), Valid: true}
	if err := s.settle(ctx, order, tx, st, raw); err != nil {
		util.WebhooksProcessedTotal.WithLabelValues("error").Inc()
		return err
	}

	util.WebhooksProcessedTotal.WithLabelValues("ok").Inc()
	return nil
}

// settle is the single state-transition function shared by the polling and
// webhook paths. The pending -> paid order update is conditional on the
// prior status, so exactly one caller wins a race and only the winner mints
// the download link and sends the download-ready email.
func (s *PaymentService) settle(ctx context.Context, order *models.Order, tx *models.PaymentTransaction, st *gateway.Status, rawWebhook sql.NullString) error {
	switch st.Status {
	case models.TxStatusCompleted:
		return s.fulfill(ctx, order, tx, st, rawWebhook)

	case models.TxStatusFailed, models.TxStatusCancelled:
		if tx.Status != models.TxStatusPending {
			return nil
		}
		if err := s.store.UpdatePaymentTransactionStatus(ctx, tx.ID, st.Status, rawWebhook); err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		if err := s.store.MarkOrderTerminal(ctx, order.ID, models.OrderStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		util.OrdersFailedTotal.WithLabelValues(st.Status).Inc()
		s.logger.Warn("Payment reached terminal failure",
			zap.Int64("order_id", order.ID),
			zap.String("status", st.Status))

		event := &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			TransactionID: tx.TransactionID,
			Status:        st.Status,
		}
		if err := s.events.PublishPaymentFailed(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
		}
		return nil

	default:
		return nil
	}
}

// fulfill runs the completed branch: the conditional order update is the
// exactly-once guard for entitlement delivery.
func (s *PaymentService) fulfill(ctx context.Context, order *models.Order, tx *models.PaymentTransaction, st *gateway.Status, rawWebhook sql.NullString) error {
	if err := s.store.UpdatePaymentTransactionStatus(ctx, tx.ID, models.TxStatusCompleted, rawWebhook); err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	paidAt := time.Now()
	if st.PaidAt != nil {
		paidAt = *st.PaidAt
	}

	won, err := s.store.MarkOrderPaid(ctx, order.ID, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if !won {
		// Already reconciled by a concurrent poll or a replayed webhook.
		s.logger.Info("Order already settled",
			zap.Int64("order_id", order.ID),
			zap.String("transaction_id", tx.TransactionID))
		return nil
	}

	util.OrdersPaidTotal.Inc()
	s.logger.Info("Order paid",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("transaction_id", tx.TransactionID))

	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TransactionID: tx.TransactionID,
		Amount:        order.AmountInCents,
	}
	if err := s.events.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}

	link, err := s.downloads.Issue(ctx, order.ID, order.ProductID)
	if err != nil {
		// The payment is settled either way; entitlement failures need
		// manual follow-up, not a rollback.
		s.logger.Error("Failed to issue download link after payment",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return nil
	}

	issued := &models.DownloadIssuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDownloadIssued,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		ProductID: order.ProductID,
		ExpiresAt: link.ExpiresAt,
	}
	if err := s.events.PublishDownloadIssued(ctx, issued); err != nil {
		s.logger.Error("Failed to publish DownloadIssued event", zap.Error(err))
	}

	product, err := s.store.GetProductByID(ctx, order.ProductID)
	if err != nil {
		s.logger.Error("Failed to load product for download email",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return nil
	}

	msg := notify.DownloadReady(notify.DownloadLinkData{
		CustomerName: order.CustomerName,
		OrderNumber:  order.OrderNumber,
		ProductName:  product.Name,
		DownloadURL:  fmt.Sprintf("%s/download/%s", s.appBaseURL, link.Token),
		ExpiresAt:    link.ExpiresAt,
	})
	sendLogged(ctx, s.store, s.mailer, s.logger, order, models.EmailTypeDownloadLink, msg)

	return nil
}
