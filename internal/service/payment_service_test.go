package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/gateway"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentFixture(t *testing.T) (*fakeStore, *fakeGateway, *fakeMailer, *fakeEvents, *PaymentService, *models.Order) {
	t.Helper()

	st := newFakeStore()
	st.products[1] = testProduct(1, 9900)

	gw := &fakeGateway{}
	mailer := &fakeMailer{}
	events := &fakeEvents{}
	downloads := NewDownloadService(st)
	svc := NewPaymentService(st, gw, downloads, mailer, events, 30*time.Minute, "https://loja.example.com")

	orders := NewOrderService(st, mailer, events)
	resp, err := orders.CreateOrder(context.Background(), validOrderRequest(1))
	require.NoError(t, err)

	return st, gw, mailer, events, svc, resp.Order
}

func TestCreateChargeIssuesPendingTransaction(t *testing.T) {
	st, gw, _, _, svc, order := paymentFixture(t)

	resp, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.TransactionID)
	assert.NotEmpty(t, resp.PixCode)
	assert.Equal(t, int64(9900), gw.lastAmount)
	assert.Equal(t, "Maria Silva", gw.lastCustomer.Name)

	tx, err := st.GetPaymentTransactionByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, models.TxStatusPending, tx.Status)
	assert.Equal(t, int64(9900), tx.AmountInCents)
}

func TestCreateChargeIsIdempotentWhilePending(t *testing.T) {
	_, gw, _, _, svc, order := paymentFixture(t)

	first, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	second, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, first.PixCode, second.PixCode)
	assert.Equal(t, 1, gw.chargeCalls)
}

func TestCreateChargeUnknownOrder(t *testing.T) {
	_, _, _, _, svc, _ := paymentFixture(t)

	_, err := svc.CreateCharge(context.Background(), "ORD-000-XXXXXX")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckStatusNoTransaction(t *testing.T) {
	_, _, _, _, svc, order := paymentFixture(t)

	status, err := svc.CheckStatus(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, status)
}

func TestCheckStatusGatewayErrorStaysPending(t *testing.T) {
	_, gw, _, _, svc, order := paymentFixture(t)

	_, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	gw.statusErr = assert.AnError

	status, err := svc.CheckStatus(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, status)
}

func TestCheckStatusCompletedFulfills(t *testing.T) {
	st, gw, mailer, events, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	paidAt := time.Now().Add(-time.Minute)
	gw.status = &gateway.Status{
		TransactionID: charge.TransactionID,
		Status:        models.TxStatusCompleted,
		PaidAt:        &paidAt,
	}

	status, err := svc.CheckStatus(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)

	got, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAt.Valid)
	assert.WithinDuration(t, paidAt, got.PaidAt.Time, time.Second)

	assert.Equal(t, 1, st.downloadLinkCount())
	assert.Equal(t, 1, events.paid)
	assert.Equal(t, 1, events.download)

	logs := st.emailLogsByType(models.EmailTypeDownloadLink)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmailStatusSent, logs[0].Status)

	// confirmation + download ready
	assert.Equal(t, 2, mailer.sentCount())
}

func TestWebhookCompletedFulfills(t *testing.T) {
	st, _, _, events, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"paid"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))

	got, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, 1, st.downloadLinkCount())
	assert.Equal(t, 1, events.paid)
}

func TestReplayedWebhookFulfillsOnce(t *testing.T) {
	st, _, _, events, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"completed"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))

	assert.Equal(t, 1, st.downloadLinkCount())
	assert.Equal(t, 1, events.paid)
	assert.Len(t, st.emailLogsByType(models.EmailTypeDownloadLink), 1)
}

func TestConcurrentWebhookAndPollFulfillOnce(t *testing.T) {
	st, gw, _, events, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	gw.status = &gateway.Status{
		TransactionID: charge.TransactionID,
		Status:        models.TxStatusCompleted,
	}
	payload := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"completed"}`, charge.TransactionID))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.HandleWebhook(context.Background(), payload)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.CheckStatus(context.Background(), order.OrderNumber)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, st.downloadLinkCount())
	assert.Equal(t, 1, events.paid)
	assert.Len(t, st.emailLogsByType(models.EmailTypeDownloadLink), 1)
}

func TestWebhookMalformedPayload(t *testing.T) {
	_, _, _, _, svc, _ := paymentFixture(t)

	err := svc.HandleWebhook(context.Background(), []byte(`{not json`))
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.HandleWebhook(context.Background(), []byte(`{"status":"paid"}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWebhookUnknownTransaction(t *testing.T) {
	_, _, _, _, svc, _ := paymentFixture(t)

	err := svc.HandleWebhook(context.Background(), []byte(`{"transactionId":"tx-nope","status":"paid"}`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebhookPendingIsNoop(t *testing.T) {
	st, _, _, _, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"waiting"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))

	got, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, 0, st.downloadLinkCount())
}

func TestWebhookFailedCancelsOrder(t *testing.T) {
	st, _, _, events, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"refused"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))

	got, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, 0, st.downloadLinkCount())
	assert.Equal(t, 1, events.failed)

	tx, err := st.GetPaymentTransactionByTxID(context.Background(), charge.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusFailed, tx.Status)
}

func TestFailureAfterPaidDoesNotRegress(t *testing.T) {
	st, _, _, _, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	paid := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"completed"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), paid))

	failed := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"failed"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), failed))

	got, err := st.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
}

func TestWebhookStoresRawPayload(t *testing.T) {
	st, _, _, _, svc, order := paymentFixture(t)

	charge, err := svc.CreateCharge(context.Background(), order.OrderNumber)
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{"transactionId":%q,"status":"paid"}`, charge.TransactionID))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload))

	tx, err := st.GetPaymentTransactionByTxID(context.Background(), charge.TransactionID)
	require.NoError(t, err)
	require.True(t, tx.WebhookData.Valid)
	assert.Equal(t, string(payload), tx.WebhookData.String)
}
