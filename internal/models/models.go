package models

import (
	"database/sql"
	"time"
)

// Product represents a sellable digital content package
type Product struct {
	ID                   int64          `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	Description          string         `db:"description" json:"description"`
	PriceInCents         int64          `db:"price_in_cents" json:"price_in_cents"`
	OriginalPriceInCents sql.NullInt64  `db:"original_price_in_cents" json:"original_price_in_cents,omitempty"`
	ImageURL             sql.NullString `db:"image_url" json:"image_url,omitempty"`
	Features             string         `db:"features" json:"features"` // JSON array of feature strings
	IsFeatured           bool           `db:"is_featured" json:"is_featured"`
	IsActive             bool           `db:"is_active" json:"is_active"`
	AccessLink           sql.NullString `db:"access_link" json:"access_link,omitempty"`
	DownloadURL          sql.NullString `db:"download_url" json:"download_url,omitempty"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// Order represents a customer purchase
type Order struct {
	ID               int64          `db:"id" json:"id"`
	OrderNumber      string         `db:"order_number" json:"order_number"`
	ProductID        int64          `db:"product_id" json:"product_id"`
	CustomerName     string         `db:"customer_name" json:"customer_name"`
	CustomerEmail    string         `db:"customer_email" json:"customer_email"`
	CustomerPhone    sql.NullString `db:"customer_phone" json:"customer_phone,omitempty"`
	CustomerDocument sql.NullString `db:"customer_document" json:"customer_document,omitempty"`
	AmountInCents    int64          `db:"amount_in_cents" json:"amount_in_cents"`
	Status           string         `db:"status" json:"status"`
	PaymentMethod    string         `db:"payment_method" json:"payment_method"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
	PaidAt           sql.NullTime   `db:"paid_at" json:"paid_at,omitempty"`
}

// PaymentTransaction represents a Pix charge issued for an order
type PaymentTransaction struct {
	ID            int64          `db:"id" json:"id"`
	OrderID       int64          `db:"order_id" json:"order_id"`
	TransactionID string         `db:"transaction_id" json:"transaction_id"`
	PixCode       string         `db:"pix_code" json:"pix_code"`
	PixQrCode     string         `db:"pix_qr_code" json:"pix_qr_code"`
	Status        string         `db:"status" json:"status"`
	AmountInCents int64          `db:"amount_in_cents" json:"amount_in_cents"`
	ExpiresAt     time.Time      `db:"expires_at" json:"expires_at"`
	WebhookData   sql.NullString `db:"webhook_data" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// DownloadLink represents a tokenized expiring download entitlement
type DownloadLink struct {
	ID             int64        `db:"id" json:"id"`
	OrderID        int64        `db:"order_id" json:"order_id"`
	ProductID      int64        `db:"product_id" json:"product_id"`
	Token          string       `db:"token" json:"token"`
	ExpiresAt      time.Time    `db:"expires_at" json:"expires_at"`
	DownloadCount  int          `db:"download_count" json:"download_count"`
	MaxDownloads   int          `db:"max_downloads" json:"max_downloads"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	LastAccessedAt sql.NullTime `db:"last_accessed_at" json:"last_accessed_at,omitempty"`
}

// EmailLog is an append-only audit row for every email send attempt
type EmailLog struct {
	ID             int64          `db:"id" json:"id"`
	OrderID        int64          `db:"order_id" json:"order_id"`
	RecipientEmail string         `db:"recipient_email" json:"recipient_email"`
	EmailType      string         `db:"email_type" json:"email_type"`
	Status         string         `db:"status" json:"status"`
	ProviderMsgID  sql.NullString `db:"provider_msg_id" json:"provider_msg_id,omitempty"`
	ErrorMessage   sql.NullString `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// Model represents a themed landing page the catalog can be curated for
type Model struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Slug           string         `db:"slug" json:"slug"`
	Title          string         `db:"title" json:"title"`
	Subtitle       sql.NullString `db:"subtitle" json:"subtitle,omitempty"`
	Description    sql.NullString `db:"description" json:"description,omitempty"`
	PrimaryColor   string         `db:"primary_color" json:"primary_color"`
	SecondaryColor string         `db:"secondary_color" json:"secondary_color"`
	AccentColor    string         `db:"accent_color" json:"accent_color"`
	HeroImageURL   sql.NullString `db:"hero_image_url" json:"hero_image_url,omitempty"`
	AboutImageURL  sql.NullString `db:"about_image_url" json:"about_image_url,omitempty"`
	InstagramURL   sql.NullString `db:"instagram_url" json:"instagram_url,omitempty"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ModelProduct curates a product into a model page, optionally overriding display fields
type ModelProduct struct {
	ID                int64          `db:"id" json:"id"`
	ModelID           int64          `db:"model_id" json:"model_id"`
	ProductID         int64          `db:"product_id" json:"product_id"`
	DisplayOrder      int            `db:"display_order" json:"display_order"`
	CustomPrice       sql.NullInt64  `db:"custom_price" json:"custom_price,omitempty"`
	CustomName        sql.NullString `db:"custom_name" json:"custom_name,omitempty"`
	CustomDescription sql.NullString `db:"custom_description" json:"custom_description,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// OrderBump is an upsell offered at checkout, globally or scoped to a model
type OrderBump struct {
	ID                   int64          `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	Description          string         `db:"description" json:"description"`
	PriceInCents         int64          `db:"price_in_cents" json:"price_in_cents"`
	OriginalPriceInCents sql.NullInt64  `db:"original_price_in_cents" json:"original_price_in_cents,omitempty"`
	ImageURL             sql.NullString `db:"image_url" json:"image_url,omitempty"`
	AccessLink           sql.NullString `db:"access_link" json:"access_link,omitempty"`
	DeliveryDescription  sql.NullString `db:"delivery_description" json:"delivery_description,omitempty"`
	ModelID              sql.NullInt64  `db:"model_id" json:"model_id,omitempty"` // NULL = global
	IsActive             bool           `db:"is_active" json:"is_active"`
	DisplayOrder         int            `db:"display_order" json:"display_order"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusExpired   = "expired"
)

// Payment transaction statuses
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"
)

// Email types and statuses
const (
	EmailTypeOrderConfirmation = "order_confirmation"
	EmailTypeDownloadLink      = "download_link"

	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
	EmailStatusPending = "pending"
)

// PaymentMethodPix is the only supported payment method
const PaymentMethodPix = "pix"
