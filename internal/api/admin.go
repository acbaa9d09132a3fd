package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves the catalog management surface: products, order bumps
// and landing-page models. Plain CRUD against the store; every write
// invalidates the public catalog cache.
type AdminHandler struct {
	store   *store.Store
	catalog *service.CatalogService
	logger  *zap.Logger
}

// NewAdminHandler creates the admin CRUD handler
func NewAdminHandler(st *store.Store, catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{
		store:   st,
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

func (a *AdminHandler) register(g *gin.RouterGroup) {
	g.GET("/products", a.listProducts)
	g.POST("/products", a.createProduct)
	g.PUT("/products/:id", a.updateProduct)
	g.DELETE("/products/:id", a.deleteProduct)

	g.GET("/order-bumps", a.listOrderBumps)
	g.POST("/order-bumps", a.createOrderBump)
	g.PUT("/order-bumps/:id", a.updateOrderBump)
	g.DELETE("/order-bumps/:id", a.deleteOrderBump)

	g.GET("/models", a.listModels)
	g.POST("/models", a.createModel)
	g.PUT("/models/:id", a.updateModel)
	g.DELETE("/models/:id", a.deleteModel)
	g.PUT("/models/:id/products", a.setModelProducts)
}

// ProductInput is the admin payload for creating or updating a product
type ProductInput struct {
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description" binding:"required"`
	PriceInCents         int64  `json:"price_in_cents" binding:"required,min=1"`
	OriginalPriceInCents *int64 `json:"original_price_in_cents"`
	ImageURL             string `json:"image_url"`
	Features             string `json:"features"`
	IsFeatured           bool   `json:"is_featured"`
	IsActive             bool   `json:"is_active"`
	AccessLink           string `json:"access_link"`
	DownloadURL          string `json:"download_url"`
}

func (in *ProductInput) toModel() *models.Product {
	features := in.Features
	if features == "" {
		features = "[]"
	}
	return &models.Product{
		Name:                 in.Name,
		Description:          in.Description,
		PriceInCents:         in.PriceInCents,
		OriginalPriceInCents: nullInt64(in.OriginalPriceInCents),
		ImageURL:             nullStr(in.ImageURL),
		Features:             features,
		IsFeatured:           in.IsFeatured,
		IsActive:             in.IsActive,
		AccessLink:           nullStr(in.AccessLink),
		DownloadURL:          nullStr(in.DownloadURL),
	}
}

func (a *AdminHandler) listProducts(c *gin.Context) {
	products, err := a.store.GetAllProducts(c.Request.Context())
	if err != nil {
		a.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (a *AdminHandler) createProduct(c *gin.Context) {
	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product := in.toModel()
	if err := a.store.CreateProduct(c.Request.Context(), product); err != nil {
		a.internalError(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (a *AdminHandler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product := in.toModel()
	product.ID = id
	if err := a.store.UpdateProduct(c.Request.Context(), product); err != nil {
		a.notFoundOrInternal(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *AdminHandler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.store.DeleteProduct(c.Request.Context(), id); err != nil {
		a.notFoundOrInternal(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// OrderBumpInput is the admin payload for creating or updating a bump
type OrderBumpInput struct {
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description" binding:"required"`
	PriceInCents         int64  `json:"price_in_cents" binding:"required,min=1"`
	OriginalPriceInCents *int64 `json:"original_price_in_cents"`
	ImageURL             string `json:"image_url"`
	AccessLink           string `json:"access_link"`
	DeliveryDescription  string `json:"delivery_description"`
	ModelID              *int64 `json:"model_id"`
	IsActive             bool   `json:"is_active"`
	DisplayOrder         int    `json:"display_order"`
}

func (in *OrderBumpInput) toModel() *models.OrderBump {
	return &models.OrderBump{
		Name:                 in.Name,
		Description:          in.Description,
		PriceInCents:         in.PriceInCents,
		OriginalPriceInCents: nullInt64(in.OriginalPriceInCents),
		ImageURL:             nullStr(in.ImageURL),
		AccessLink:           nullStr(in.AccessLink),
		DeliveryDescription:  nullStr(in.DeliveryDescription),
		ModelID:              nullInt64(in.ModelID),
		IsActive:             in.IsActive,
		DisplayOrder:         in.DisplayOrder,
	}
}

func (a *AdminHandler) listOrderBumps(c *gin.Context) {
	bumps, err := a.store.GetAllOrderBumps(c.Request.Context())
	if err != nil {
		a.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_bumps": bumps})
}

func (a *AdminHandler) createOrderBump(c *gin.Context) {
	var in OrderBumpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bump := in.toModel()
	if err := a.store.CreateOrderBump(c.Request.Context(), bump); err != nil {
		a.internalError(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"order_bump": bump})
}

func (a *AdminHandler) updateOrderBump(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in OrderBumpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bump := in.toModel()
	bump.ID = id
	if err := a.store.UpdateOrderBump(c.Request.Context(), bump); err != nil {
		a.notFoundOrInternal(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"order_bump": bump})
}

func (a *AdminHandler) deleteOrderBump(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.store.DeleteOrderBump(c.Request.Context(), id); err != nil {
		a.notFoundOrInternal(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ModelInput is the admin payload for creating or updating a landing page
type ModelInput struct {
	Name           string `json:"name" binding:"required"`
	Slug           string `json:"slug" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Subtitle       string `json:"subtitle"`
	Description    string `json:"description"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	HeroImageURL   string `json:"hero_image_url"`
	AboutImageURL  string `json:"about_image_url"`
	InstagramURL   string `json:"instagram_url"`
	IsActive       bool   `json:"is_active"`
}

func (in *ModelInput) toModel() *models.Model {
	m := &models.Model{
		Name:           in.Name,
		Slug:           in.Slug,
		Title:          in.Title,
		Subtitle:       nullStr(in.Subtitle),
		Description:    nullStr(in.Description),
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
		AccentColor:    in.AccentColor,
		HeroImageURL:   nullStr(in.HeroImageURL),
		AboutImageURL:  nullStr(in.AboutImageURL),
		InstagramURL:   nullStr(in.InstagramURL),
		IsActive:       in.IsActive,
	}
	if m.PrimaryColor == "" {
		m.PrimaryColor = "#FF0066"
	}
	if m.SecondaryColor == "" {
		m.SecondaryColor = "#9333EA"
	}
	if m.AccentColor == "" {
		m.AccentColor = "#FF0066"
	}
	return m
}

func (a *AdminHandler) listModels(c *gin.Context) {
	ms, err := a.store.GetAllModels(c.Request.Context())
	if err != nil {
		a.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": ms})
}

func (a *AdminHandler) createModel(c *gin.Context) {
	var in ModelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	m := in.toModel()
	if err := a.store.CreateModel(c.Request.Context(), m); err != nil {
		a.internalError(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"model": m})
}

func (a *AdminHandler) updateModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in ModelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	m := in.toModel()
	m.ID = id
	if err := a.store.UpdateModel(c.Request.Context(), m); err != nil {
		a.notFoundOrInternal(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"model": m})
}

func (a *AdminHandler) deleteModel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := a.store.DeleteModel(c.Request.Context(), id); err != nil {
		a.notFoundOrInternal(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ModelProductInput is one curated product row on a model page
type ModelProductInput struct {
	ProductID         int64  `json:"product_id" binding:"required"`
	DisplayOrder      int    `json:"display_order"`
	CustomPrice       *int64 `json:"custom_price"`
	CustomName        string `json:"custom_name"`
	CustomDescription string `json:"custom_description"`
}

func (a *AdminHandler) setModelProducts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in []ModelProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	mps := make([]models.ModelProduct, 0, len(in))
	for _, row := range in {
		mps = append(mps, models.ModelProduct{
			ModelID:           id,
			ProductID:         row.ProductID,
			DisplayOrder:      row.DisplayOrder,
			CustomPrice:       nullInt64(row.CustomPrice),
			CustomName:        nullStr(row.CustomName),
			CustomDescription: nullStr(row.CustomDescription),
		})
	}

	if err := a.store.SetModelProducts(c.Request.Context(), id, mps); err != nil {
		a.internalError(c, err)
		return
	}

	a.catalog.InvalidateCatalog(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"count": len(mps)})
}

func (a *AdminHandler) internalError(c *gin.Context, err error) {
	a.logger.Error("Admin operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (a *AdminHandler) notFoundOrInternal(c *gin.Context, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	a.internalError(c, err)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
