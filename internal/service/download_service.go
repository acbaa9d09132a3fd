package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Download link defaults
const (
	downloadLinkTTL      = 30 * 24 * time.Hour
	downloadMaxDownloads = 3
)

// DownloadService issues, validates and consumes tokenized download links
type DownloadService struct {
	store  Store
	logger *zap.Logger
}

// NewDownloadService creates a new download service
func NewDownloadService(store Store) *DownloadService {
	return &DownloadService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Issue mints a fresh download link for an order/product pair: 30 day
// expiry, 3 uses, unguessable token.
func (s *DownloadService) Issue(ctx context.Context, orderID, productID int64) (*models.DownloadLink, error) {
	token, err := newDownloadToken()
	if err != nil {
		return nil, fmt.Errorf("generating download token: %w", err)
	}

	link := &models.DownloadLink{
		OrderID:       orderID,
		ProductID:     productID,
		Token:         token,
		ExpiresAt:     time.Now().Add(downloadLinkTTL),
		DownloadCount: 0,
		MaxDownloads:  downloadMaxDownloads,
		IsActive:      true,
	}

	if err := s.store.CreateDownloadLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create download link: %w", err)
	}

	util.DownloadsIssuedTotal.Inc()
	s.logger.Info("Download link issued",
		zap.Int64("order_id", orderID),
		zap.Int64("product_id", productID),
		zap.Time("expires_at", link.ExpiresAt))

	return link, nil
}

// Validate checks a token without consuming a use. Inactive and absent
// tokens are indistinguishable to the caller.
func (s *DownloadService) Validate(ctx context.Context, token string) (*models.DownloadLink, *models.Product, error) {
	link, err := s.store.GetDownloadLinkByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if !link.IsActive {
		return nil, nil, ErrNotFound
	}
	if !time.Now().Before(link.ExpiresAt) {
		return nil, nil, ErrExpired
	}
	if link.DownloadCount >= link.MaxDownloads {
		return nil, nil, ErrLimitReached
	}

	product, err := s.store.GetProductByID(ctx, link.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	return link, product, nil
}

// Consume spends one use of a token and returns the product's download URL.
// The increment is a conditional update so a burst of concurrent calls can
// never push the counter past the limit; losers of the race re-read the
// link to report why they lost.
func (s *DownloadService) Consume(ctx context.Context, token string) (string, error) {
	ctx, span := util.StartSpan(ctx, "DownloadService.Consume")
	defer span.End()

	link, product, err := s.Validate(ctx, token)
	if err != nil {
		reason := "not_found"
		switch {
		case errors.Is(err, ErrExpired):
			reason = "expired"
		case errors.Is(err, ErrLimitReached):
			reason = "limit_reached"
		}
		util.DownloadsRejectedTotal.WithLabelValues(reason).Inc()
		return "", err
	}

	ok, err := s.store.ConsumeDownloadLink(ctx, link.ID, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to consume download link: %w", err)
	}
	if !ok {
		// Lost a race or crossed expiry between the check and the update.
		current, err := s.store.GetDownloadLinkByToken(ctx, token)
		if err == nil {
			if !time.Now().Before(current.ExpiresAt) {
				util.DownloadsRejectedTotal.WithLabelValues("expired").Inc()
				return "", ErrExpired
			}
			if current.DownloadCount >= current.MaxDownloads || !current.IsActive {
				util.DownloadsRejectedTotal.WithLabelValues("limit_reached").Inc()
				return "", ErrLimitReached
			}
		}
		util.DownloadsRejectedTotal.WithLabelValues("conflict").Inc()
		return "", ErrConflict
	}

	if !product.DownloadURL.Valid || product.DownloadURL.String == "" {
		return "", fmt.Errorf("product %d has no file: %w", product.ID, ErrNotFound)
	}

	util.DownloadsConsumedTotal.Inc()
	s.logger.Info("Download consumed",
		zap.Int64("link_id", link.ID),
		zap.Int64("product_id", product.ID))

	return product.DownloadURL.String, nil
}
