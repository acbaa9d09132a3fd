package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/notify"
	"storefront-service/internal/util"
	"storefront-service/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles order creation and read-side projections
type OrderService struct {
	store  Store
	mailer notify.Mailer
	events EventPublisher
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store Store, mailer notify.Mailer, events EventPublisher) *OrderService {
	return &OrderService{
		store:  store,
		mailer: mailer,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	ProductID        int64   `json:"product_id" validate:"required"`
	CustomerName     string  `json:"customer_name" validate:"required"`
	CustomerEmail    string  `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone    string  `json:"customer_phone"`
	CustomerDocument string  `json:"customer_document" validate:"required"`
	OrderBumpIDs     []int64 `json:"order_bump_ids"`
}

// CreateOrderResponse carries the persisted order and its product
type CreateOrderResponse struct {
	Order   *models.Order   `json:"order"`
	Product *models.Product `json:"product"`
}

// CreateOrder validates the product, captures the price into a pending order
// and fires a best-effort confirmation email. The amount snapshot is never
// recalculated after this point.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := validate.Check(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if digits(req.CustomerDocument) < 11 {
		return nil, fmt.Errorf("%w: customer document must have at least 11 digits", ErrValidation)
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", req.ProductID, ErrNotFound)
		}
		return nil, fmt.Errorf("fetching product: %w", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", req.ProductID, ErrNotFound)
	}

	amount := product.PriceInCents

	bumps, err := s.resolveBumps(ctx, req.OrderBumpIDs)
	if err != nil {
		return nil, err
	}
	for _, b := range bumps {
		amount += b.PriceInCents
	}

	orderNumber, err := newOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("generating order number: %w", err)
	}

	order := &models.Order{
		OrderNumber:      orderNumber,
		ProductID:        product.ID,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    nullString(req.CustomerPhone),
		CustomerDocument: nullString(req.CustomerDocument),
		AmountInCents:    amount,
		Status:           models.OrderStatusPending,
		PaymentMethod:    models.PaymentMethodPix,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if len(req.OrderBumpIDs) > 0 {
		if err := s.store.AddOrderBumps(ctx, order.ID, req.OrderBumpIDs); err != nil {
			return nil, fmt.Errorf("failed to attach order bumps: %w", err)
		}
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("amount_in_cents", amount))

	// Confirmation email is best-effort: a provider failure is logged to
	// email_logs and never fails the order.
	msg := notify.OrderConfirmation(notify.OrderConfirmationData{
		CustomerName:  order.CustomerName,
		OrderNumber:   order.OrderNumber,
		ProductName:   product.Name,
		AmountInCents: amount,
	})
	s.sendLogged(ctx, order, models.EmailTypeOrderConfirmation, msg)

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ProductID:   product.ID,
		BumpIDs:     req.OrderBumpIDs,
		Amount:      amount,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return &CreateOrderResponse{Order: order, Product: product}, nil
}

// resolveBumps loads the selected bumps and rejects absent or inactive ones
func (s *OrderService) resolveBumps(ctx context.Context, ids []int64) ([]models.OrderBump, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	bumps, err := s.store.GetOrderBumpsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching order bumps: %w", err)
	}
	if len(bumps) != len(ids) {
		return nil, fmt.Errorf("order bump: %w", ErrNotFound)
	}
	for _, b := range bumps {
		if !b.IsActive {
			return nil, fmt.Errorf("%w: order bump %d is not available", ErrValidation, b.ID)
		}
	}
	return bumps, nil
}

// GetOrder retrieves an order by its number
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

// SuccessSummary is the read-only projection backing the post-payment
// success page. No state changes.
type SuccessSummary struct {
	ProductName         string `json:"product_name"`
	ProductAccessLink   string `json:"product_access_link"`
	OrderBumpName       string `json:"order_bump_name,omitempty"`
	OrderBumpAccessLink string `json:"order_bump_access_link,omitempty"`
	HasOrderBump        bool   `json:"has_order_bump"`
}

// Summary builds the success-page projection for an order
func (s *OrderService) Summary(ctx context.Context, orderNumber string) (*SuccessSummary, error) {
	order, err := s.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, order.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", order.ProductID, ErrNotFound)
		}
		return nil, err
	}

	out := &SuccessSummary{
		ProductName:       product.Name,
		ProductAccessLink: product.AccessLink.String,
	}

	bumpIDs, err := s.store.GetOrderBumpIDs(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching order bumps: %w", err)
	}
	if len(bumpIDs) == 0 {
		return out, nil
	}

	out.HasOrderBump = true

	bumps, err := s.store.GetOrderBumpsByIDs(ctx, bumpIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching order bumps: %w", err)
	}
	if len(bumps) > 0 {
		out.OrderBumpName = bumps[0].Name
		out.OrderBumpAccessLink = bumps[0].AccessLink.String
	}

	return out, nil
}

// sendLogged delivers an email and appends the audit row, success or failure.
// Errors never propagate. Skips silently when the order has no email address.
func (s *OrderService) sendLogged(ctx context.Context, order *models.Order, emailType string, msg notify.Message) {
	sendLogged(ctx, s.store, s.mailer, s.logger, order, emailType, msg)
}

func digits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
