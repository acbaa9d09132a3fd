package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/gateway"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	orders     *service.OrderService
	payments   *service.PaymentService
	downloads  *service.DownloadService
	catalog    *service.CatalogService
	admin      *AdminHandler
	adminToken string
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	payments *service.PaymentService,
	downloads *service.DownloadService,
	catalog *service.CatalogService,
	admin *AdminHandler,
	adminToken string,
) *Handler {
	return &Handler{
		orders:     orders,
		payments:   payments,
		downloads:  downloads,
		catalog:    catalog,
		admin:      admin,
		adminToken: adminToken,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/order-bumps", h.listOrderBumps)
		v1.GET("/models/:slug", h.getModelPage)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:orderNumber", h.getOrder)
		v1.GET("/orders/:orderNumber/success", h.successSummary)
		v1.POST("/orders/:orderNumber/charge", h.createCharge)
		v1.GET("/orders/:orderNumber/status", h.checkStatus)

		v1.POST("/webhooks/pix", h.pixWebhook)

		v1.GET("/downloads/:token", h.validateDownload)
		v1.POST("/downloads/:token", h.consumeDownload)
	}

	adm := v1.Group("/admin", h.adminAuth())
	h.admin.register(adm)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *Handler) listOrderBumps(c *gin.Context) {
	var modelID int64
	if raw := c.Query("model_id"); raw != "" {
		var err error
		modelID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model_id"})
			return
		}
	}

	bumps, err := h.catalog.ListOrderBumps(c.Request.Context(), modelID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_bumps": bumps})
}

func (h *Handler) getModelPage(c *gin.Context) {
	page, err := h.catalog.GetModelPage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) successSummary(c *gin.Context) {
	summary, err := h.orders.Summary(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// createCharge issues (or re-returns) the Pix charge for an order
func (h *Handler) createCharge(c *gin.Context) {
	resp, err := h.payments.CreateCharge(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// checkStatus reconciles and reports the order's payment status
func (h *Handler) checkStatus(c *gin.Context) {
	status, err := h.payments.CheckStatus(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// pixWebhook ingests provider payment notifications. 200 covers every
// business no-op (replays, unknown transactions) so the provider stops
// retrying; 400 marks payloads that will never process; 500 asks for a
// retry.
func (h *Handler) pixWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Cannot read request body"})
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		case errors.Is(err, service.ErrNotFound):
			h.logger.Warn("Webhook for unknown transaction", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"success": true})
		default:
			h.logger.Error("Webhook processing failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) validateDownload(c *gin.Context) {
	link, product, err := h.downloads.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link, "product": product})
}

func (h *Handler) consumeDownload(c *gin.Context) {
	url, err := h.downloads.Consume(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

// adminAuth guards the admin surface with the configured static token.
// Session mechanics live outside this service.
func (h *Handler) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminToken == "" || c.GetHeader("Authorization") != "Bearer "+h.adminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// respondError maps the service error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		status := http.StatusBadGateway
		if gwErr.Kind == gateway.ErrorKindValidation {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "Payment gateway error", "details": gwErr.Message})
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Download link expired", "code": "expired"})
	case errors.Is(err, service.ErrLimitReached):
		c.JSON(http.StatusGone, gin.H{"error": "Download limit reached", "code": "limit_reached"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
