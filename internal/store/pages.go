package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetModelByID retrieves a landing-page model by ID
func (s *Store) GetModelByID(ctx context.Context, id int64) (*models.Model, error) {
	var m models.Model
	err := s.db.GetContext(ctx, &m, "SELECT * FROM models WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetModelBySlug retrieves an active landing-page model by slug
func (s *Store) GetModelBySlug(ctx context.Context, slug string) (*models.Model, error) {
	var m models.Model
	err := s.db.GetContext(ctx, &m, "SELECT * FROM models WHERE slug = $1 AND is_active", slug)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetAllModels retrieves every landing-page model (admin listing)
func (s *Store) GetAllModels(ctx context.Context) ([]models.Model, error) {
	var ms []models.Model
	err := s.db.SelectContext(ctx, &ms, "SELECT * FROM models ORDER BY id")
	return ms, err
}

// CreateModel inserts a new landing-page model
func (s *Store) CreateModel(ctx context.Context, m *models.Model) error {
	query := `
		INSERT INTO models (name, slug, title, subtitle, description,
			primary_color, secondary_color, accent_color,
			hero_image_url, about_image_url, instagram_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, m, query,
		m.Name, m.Slug, m.Title, m.Subtitle, m.Description,
		m.PrimaryColor, m.SecondaryColor, m.AccentColor,
		m.HeroImageURL, m.AboutImageURL, m.InstagramURL, m.IsActive)
}

// UpdateModel updates an existing landing-page model
func (s *Store) UpdateModel(ctx context.Context, m *models.Model) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE models SET name = $1, slug = $2, title = $3, subtitle = $4,
			description = $5, primary_color = $6, secondary_color = $7,
			accent_color = $8, hero_image_url = $9, about_image_url = $10,
			instagram_url = $11, is_active = $12, updated_at = NOW()
		WHERE id = $13`,
		m.Name, m.Slug, m.Title, m.Subtitle, m.Description,
		m.PrimaryColor, m.SecondaryColor, m.AccentColor,
		m.HeroImageURL, m.AboutImageURL, m.InstagramURL, m.IsActive, m.ID)
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

// DeleteModel removes a landing-page model and its product curation
func (s *Store) DeleteModel(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM model_products WHERE model_id = $1", id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM models WHERE id = $1", id)
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

	return tx.Commit()
}

// GetModelProducts retrieves the curation rows for a model, display-ordered
func (s *Store) GetModelProducts(ctx context.Context, modelID int64) ([]models.ModelProduct, error) {
	var mps []models.ModelProduct
	err := s.db.SelectContext(ctx, &mps,
		"SELECT * FROM model_products WHERE model_id = $1 ORDER BY display_order, id", modelID)
	return mps, err
}

// SetModelProducts replaces the product curation of a model
func (s *Store) SetModelProducts(ctx context.Context, modelID int64, mps []models.ModelProduct) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM model_products WHERE model_id = $1", modelID); err != nil {
		return err
	}

	for _, mp := range mps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_products (model_id, product_id, display_order,
				custom_price, custom_name, custom_description)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			modelID, mp.ProductID, mp.DisplayOrder,
			mp.CustomPrice, mp.CustomName, mp.CustomDescription)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...)
	return products, err
}
