package store

import (
	"context"
	"database/sql"
	"time"

	"storefront-service/internal/models"
)

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_number, product_id, customer_name, customer_email,
			customer_phone, customer_document, amount_in_cents, status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.OrderNumber, order.ProductID, order.CustomerName, order.CustomerEmail,
		order.CustomerPhone, order.CustomerDocument, order.AmountInCents,
		order.Status, order.PaymentMethod)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its human-readable number
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AddOrderBumps records which bumps were selected for the order
func (s *Store) AddOrderBumps(ctx context.Context, orderID int64, bumpIDs []int64) error {
	for _, bumpID := range bumpIDs {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO order_order_bumps (order_id, order_bump_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			orderID, bumpID)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetOrderBumpIDs returns the bump IDs selected for an order, in selection order
func (s *Store) GetOrderBumpIDs(ctx context.Context, orderID int64) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT order_bump_id FROM order_order_bumps WHERE order_id = $1 ORDER BY created_at, order_bump_id",
		orderID)
	return ids, err
}

// MarkOrderPaid transitions an order from pending to paid. Returns true only
// for the caller that won the transition; repeated or racing calls get false.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, paid_at = $2, updated_at = NOW() WHERE id = $3 AND status = $4",
		models.OrderStatusPaid, paidAt, orderID, models.OrderStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkOrderTerminal transitions a pending order to cancelled or expired
func (s *Store) MarkOrderTerminal(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		status, orderID, models.OrderStatusPending)
	return err
}

// CreatePaymentTransaction creates a new payment transaction
func (s *Store) CreatePaymentTransaction(ctx context.Context, tx *models.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (order_id, transaction_id, pix_code, pix_qr_code,
			status, amount_in_cents, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, tx, query,
		tx.OrderID, tx.TransactionID, tx.PixCode, tx.PixQrCode,
		tx.Status, tx.AmountInCents, tx.ExpiresAt)
}

// GetPaymentTransactionByOrderID retrieves the latest transaction for an order.
// Returns (nil, nil) when the order has no transaction yet.
func (s *Store) GetPaymentTransactionByOrderID(ctx context.Context, orderID int64) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.db.GetContext(ctx, &tx,
		"SELECT * FROM payment_transactions WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetPaymentTransactionByTxID retrieves a transaction by the provider's ID
func (s *Store) GetPaymentTransactionByTxID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.db.GetContext(ctx, &tx,
		"SELECT * FROM payment_transactions WHERE transaction_id = $1", transactionID)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdatePaymentTransactionStatus updates a transaction's status and,
// when present, stores the raw webhook payload for audit
func (s *Store) UpdatePaymentTransactionStatus(ctx context.Context, id int64, status string, webhookData sql.NullString) error {
	if webhookData.Valid {
		_, err := s.db.ExecContext(ctx,
			"UPDATE payment_transactions SET status = $1, webhook_data = $2, updated_at = NOW() WHERE id = $3",
			status, webhookData, id)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE payment_transactions SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id)
	return err
}

// CreateDownloadLink creates a new download link
func (s *Store) CreateDownloadLink(ctx context.Context, link *models.DownloadLink) error {
	query := `
		INSERT INTO download_links (order_id, product_id, token, expires_at,
			download_count, max_downloads, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, link, query,
		link.OrderID, link.ProductID, link.Token, link.ExpiresAt,
		link.DownloadCount, link.MaxDownloads, link.IsActive)
}

// GetDownloadLinkByToken retrieves a download link by token
func (s *Store) GetDownloadLinkByToken(ctx context.Context, token string) (*models.DownloadLink, error) {
	var link models.DownloadLink
	err := s.db.GetContext(ctx, &link, "SELECT * FROM download_links WHERE token = $1", token)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetDownloadLinkByOrder retrieves the link minted for a given order/product pair
func (s *Store) GetDownloadLinkByOrder(ctx context.Context, orderID, productID int64) (*models.DownloadLink, error) {
	var link models.DownloadLink
	err := s.db.GetContext(ctx, &link,
		"SELECT * FROM download_links WHERE order_id = $1 AND product_id = $2", orderID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ConsumeDownloadLink atomically increments the download counter while the
// link is still usable, deactivating it when the limit is hit in the same
// statement. Returns true when the increment was applied.
func (s *Store) ConsumeDownloadLink(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE download_links
		SET download_count = download_count + 1,
			last_accessed_at = $1,
			is_active = (download_count + 1 < max_downloads)
		WHERE id = $2
			AND is_active
			AND expires_at > $1
			AND download_count < max_downloads`,
		now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CreateEmailLog appends an email audit row
func (s *Store) CreateEmailLog(ctx context.Context, log *models.EmailLog) error {
	query := `
		INSERT INTO email_logs (order_id, recipient_email, email_type, status,
			provider_msg_id, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, log, query,
		log.OrderID, log.RecipientEmail, log.EmailType, log.Status,
		log.ProviderMsgID, log.ErrorMessage)
}

// GetEmailLogsByOrderID retrieves email audit rows for an order
func (s *Store) GetEmailLogsByOrderID(ctx context.Context, orderID int64) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := s.db.SelectContext(ctx, &logs,
		"SELECT * FROM email_logs WHERE order_id = $1 ORDER BY created_at", orderID)
	return logs, err
}
