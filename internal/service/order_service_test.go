package service

import (
	"context"
	"database/sql"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id int64, priceInCents int64) *models.Product {
	return &models.Product{
		ID:           id,
		Name:         "Pack Premium",
		Description:  "Conteudo exclusivo",
		PriceInCents: priceInCents,
		IsActive:     true,
		AccessLink:   sql.NullString{String: "https://drive.example.com/pack", Valid: true},
		DownloadURL:  sql.NullString{String: "https://cdn.example.com/pack.zip", Valid: true},
	}
}

func testBump(id int64, priceInCents int64, active bool) *models.OrderBump {
	return &models.OrderBump{
		ID:           id,
		Name:         "Bonus Pack",
		Description:  "Extra",
		PriceInCents: priceInCents,
		IsActive:     active,
		AccessLink:   sql.NullString{String: "https://drive.example.com/bonus", Valid: true},
	}
}

func validOrderRequest(productID int64) *CreateOrderRequest {
	return &CreateOrderRequest{
		ProductID:        productID,
		CustomerName:     "Maria Silva",
		CustomerEmail:    "maria@example.com",
		CustomerDocument: "123.456.789-09",
	}
}

func TestCreateOrderSnapshotsAmount(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	st.bumps[10] = testBump(10, 2000, true)
	mailer := &fakeMailer{}
	events := &fakeEvents{}
	svc := NewOrderService(st, mailer, events)

	req := validOrderRequest(1)
	req.OrderBumpIDs = []int64{10}

	resp, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, resp.Order.Status)
	assert.Equal(t, int64(7000), resp.Order.AmountInCents)
	assert.Equal(t, models.PaymentMethodPix, resp.Order.PaymentMethod)
	assert.NotEmpty(t, resp.Order.OrderNumber)
	assert.Equal(t, 1, events.created)

	// Raising the catalog price must not move the captured amount.
	st.products[1].PriceInCents = 9999
	got, err := st.GetOrderByID(context.Background(), resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got.AmountInCents)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	svc := NewOrderService(newFakeStore(), &fakeMailer{}, &fakeEvents{})

	_, err := svc.CreateOrder(context.Background(), validOrderRequest(99))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	st := newFakeStore()
	p := testProduct(1, 5000)
	p.IsActive = false
	st.products[1] = p
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	_, err := svc.CreateOrder(context.Background(), validOrderRequest(1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrderInactiveBump(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	st.bumps[10] = testBump(10, 2000, false)
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	req := validOrderRequest(1)
	req.OrderBumpIDs = []int64{10}

	_, err := svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderUnknownBump(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	req := validOrderRequest(1)
	req.OrderBumpIDs = []int64{77}

	_, err := svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrderShortDocument(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	req := validOrderRequest(1)
	req.CustomerDocument = "12345"

	_, err := svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderEmailFailureIsNonFatal(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	mailer := &fakeMailer{fail: true}
	svc := NewOrderService(st, mailer, &fakeEvents{})

	resp, err := svc.CreateOrder(context.Background(), validOrderRequest(1))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, resp.Order.Status)

	logs := st.emailLogsByType(models.EmailTypeOrderConfirmation)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmailStatusFailed, logs[0].Status)
	assert.True(t, logs[0].ErrorMessage.Valid)
}

func TestCreateOrderWritesEmailAuditRow(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	mailer := &fakeMailer{}
	svc := NewOrderService(st, mailer, &fakeEvents{})

	_, err := svc.CreateOrder(context.Background(), validOrderRequest(1))
	require.NoError(t, err)

	logs := st.emailLogsByType(models.EmailTypeOrderConfirmation)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmailStatusSent, logs[0].Status)
	assert.Equal(t, "maria@example.com", logs[0].RecipientEmail)
	assert.True(t, logs[0].ProviderMsgID.Valid)
}

func TestCreateOrderSkipsEmailWithoutAddress(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	mailer := &fakeMailer{}
	svc := NewOrderService(st, mailer, &fakeEvents{})

	req := validOrderRequest(1)
	req.CustomerEmail = ""

	_, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, mailer.sentCount())
	assert.Empty(t, st.emailLogsByType(models.EmailTypeOrderConfirmation))
}

func TestOrderNumbersAreUnique(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		resp, err := svc.CreateOrder(context.Background(), validOrderRequest(1))
		require.NoError(t, err)
		assert.False(t, seen[resp.Order.OrderNumber], "duplicate order number %s", resp.Order.OrderNumber)
		seen[resp.Order.OrderNumber] = true
	}
}

func TestSummaryWithBump(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	st.bumps[10] = testBump(10, 2000, true)
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	req := validOrderRequest(1)
	req.OrderBumpIDs = []int64{10}
	resp, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	sum, err := svc.Summary(context.Background(), resp.Order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "Pack Premium", sum.ProductName)
	assert.Equal(t, "https://drive.example.com/pack", sum.ProductAccessLink)
	assert.True(t, sum.HasOrderBump)
	assert.Equal(t, "Bonus Pack", sum.OrderBumpName)
	assert.Equal(t, "https://drive.example.com/bonus", sum.OrderBumpAccessLink)
}

func TestSummaryWithoutBump(t *testing.T) {
	st := newFakeStore()
	st.products[1] = testProduct(1, 5000)
	svc := NewOrderService(st, &fakeMailer{}, &fakeEvents{})

	resp, err := svc.CreateOrder(context.Background(), validOrderRequest(1))
	require.NoError(t, err)

	sum, err := svc.Summary(context.Background(), resp.Order.OrderNumber)
	require.NoError(t, err)
	assert.False(t, sum.HasOrderBump)
	assert.Empty(t, sum.OrderBumpName)
}

func TestGetOrderNotFound(t *testing.T) {
	svc := NewOrderService(newFakeStore(), &fakeMailer{}, &fakeEvents{})

	_, err := svc.GetOrder(context.Background(), "ORD-000-XXXXXX")
	assert.ErrorIs(t, err, ErrNotFound)
}
