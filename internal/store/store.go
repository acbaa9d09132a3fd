package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNoRows is returned when a lookup finds nothing. Callers translate it
// into their own not-found error.
var ErrNoRows = sql.ErrNoRows

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetActiveProducts retrieves all active products for the public catalog
func (s *Store) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active ORDER BY is_featured DESC, id")
	return products, err
}

// GetAllProducts retrieves every product, active or not (admin listing)
func (s *Store) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY id")
	return products, err
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price_in_cents, original_price_in_cents,
			image_url, features, is_featured, is_active, access_link, download_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.Name, p.Description, p.PriceInCents, p.OriginalPriceInCents,
		p.ImageURL, p.Features, p.IsFeatured, p.IsActive, p.AccessLink, p.DownloadURL)
}

// UpdateProduct updates an existing product
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $1, description = $2, price_in_cents = $3,
			original_price_in_cents = $4, image_url = $5, features = $6,
			is_featured = $7, is_active = $8, access_link = $9, download_url = $10,
			updated_at = NOW()
		WHERE id = $11`,
		p.Name, p.Description, p.PriceInCents, p.OriginalPriceInCents,
		p.ImageURL, p.Features, p.IsFeatured, p.IsActive, p.AccessLink, p.DownloadURL, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetOrderBumpByID retrieves an order bump by ID
func (s *Store) GetOrderBumpByID(ctx context.Context, id int64) (*models.OrderBump, error) {
	var bump models.OrderBump
	err := s.db.GetContext(ctx, &bump, "SELECT * FROM order_bumps WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &bump, nil
}

// GetOrderBumpsByIDs retrieves multiple order bumps by IDs
func (s *Store) GetOrderBumpsByIDs(ctx context.Context, ids []int64) ([]models.OrderBump, error) {
	if len(ids) == 0 {
		return []models.OrderBump{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM order_bumps WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var bumps []models.OrderBump
	err = s.db.SelectContext(ctx, &bumps, query, args...)
	return bumps, err
}

// GetActiveOrderBumps retrieves active bumps for checkout: global ones plus
// those scoped to the given model (modelID 0 = global only)
func (s *Store) GetActiveOrderBumps(ctx context.Context, modelID int64) ([]models.OrderBump, error) {
	var bumps []models.OrderBump
	if modelID == 0 {
		err := s.db.SelectContext(ctx, &bumps,
			"SELECT * FROM order_bumps WHERE is_active AND model_id IS NULL ORDER BY display_order, id")
		return bumps, err
	}
	err := s.db.SelectContext(ctx, &bumps,
		"SELECT * FROM order_bumps WHERE is_active AND (model_id IS NULL OR model_id = $1) ORDER BY display_order, id",
		modelID)
	return bumps, err
}

// GetAllOrderBumps retrieves every order bump (admin listing)
func (s *Store) GetAllOrderBumps(ctx context.Context) ([]models.OrderBump, error) {
	var bumps []models.OrderBump
	err := s.db.SelectContext(ctx, &bumps, "SELECT * FROM order_bumps ORDER BY display_order, id")
	return bumps, err
}

// CreateOrderBump inserts a new order bump
func (s *Store) CreateOrderBump(ctx context.Context, b *models.OrderBump) error {
	query := `
		INSERT INTO order_bumps (name, description, price_in_cents, original_price_in_cents,
			image_url, access_link, delivery_description, model_id, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, b, query,
		b.Name, b.Description, b.PriceInCents, b.OriginalPriceInCents,
		b.ImageURL, b.AccessLink, b.DeliveryDescription, b.ModelID, b.IsActive, b.DisplayOrder)
}

// UpdateOrderBump updates an existing order bump
func (s *Store) UpdateOrderBump(ctx context.Context, b *models.OrderBump) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_bumps SET name = $1, description = $2, price_in_cents = $3,
			original_price_in_cents = $4, image_url = $5, access_link = $6,
			delivery_description = $7, model_id = $8, is_active = $9,
			display_order = $10, updated_at = NOW()
		WHERE id = $11`,
		b.Name, b.Description, b.PriceInCents, b.OriginalPriceInCents,
		b.ImageURL, b.AccessLink, b.DeliveryDescription, b.ModelID, b.IsActive,
		b.DisplayOrder, b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOrderBump removes an order bump
func (s *Store) DeleteOrderBump(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM order_bumps WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
