package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
	"storefront-service/internal/notify"
)

// fakeStore is an in-memory Store for service tests. All mutations go
// through the mutex so concurrency tests exercise the same conditional
// update semantics the SQL layer provides.
type fakeStore struct {
	mu sync.Mutex

	products map[int64]*models.Product
	bumps    map[int64]*models.OrderBump

	orders     map[int64]*models.Order
	orderBumps map[int64][]int64
	txs        map[int64]*models.PaymentTransaction
	links      map[int64]*models.DownloadLink
	emailLogs  []*models.EmailLog

	nextOrderID int64
	nextTxID    int64
	nextLinkID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[int64]*models.Product),
		bumps:      make(map[int64]*models.OrderBump),
		orders:     make(map[int64]*models.Order),
		orderBumps: make(map[int64][]int64),
		txs:        make(map[int64]*models.PaymentTransaction),
		links:      make(map[int64]*models.DownloadLink),
	}
}

func (f *fakeStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetOrderBumpsByIDs(ctx context.Context, ids []int64) ([]models.OrderBump, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderBump
	for _, id := range ids {
		if b, ok := f.bumps[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOrderID++
	order.ID = f.nextOrderID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeStore) AddOrderBumps(ctx context.Context, orderID int64, bumpIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderBumps[orderID] = append(f.orderBumps[orderID], bumpIDs...)
	return nil
}

func (f *fakeStore) GetOrderBumpIDs(ctx context.Context, orderID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.orderBumps[orderID]...), nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) MarkOrderPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.PaidAt = sql.NullTime{Time: paidAt, Valid: true}
	return true, nil
}

func (f *fakeStore) MarkOrderTerminal(ctx context.Context, orderID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return sql.ErrNoRows
	}
	if o.Status == models.OrderStatusPending {
		o.Status = status
	}
	return nil
}

func (f *fakeStore) CreatePaymentTransaction(ctx context.Context, tx *models.PaymentTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTxID++
	tx.ID = f.nextTxID
	cp := *tx
	f.txs[tx.ID] = &cp
	return nil
}

func (f *fakeStore) GetPaymentTransactionByOrderID(ctx context.Context, orderID int64) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.PaymentTransaction
	for _, tx := range f.txs {
		if tx.OrderID == orderID && (latest == nil || tx.ID > latest.ID) {
			latest = tx
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) GetPaymentTransactionByTxID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.txs {
		if tx.TransactionID == transactionID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) UpdatePaymentTransactionStatus(ctx context.Context, id int64, status string, webhookData sql.NullString) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.Status = status
	if webhookData.Valid {
		tx.WebhookData = webhookData
	}
	return nil
}

func (f *fakeStore) CreateDownloadLink(ctx context.Context, link *models.DownloadLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextLinkID++
	link.ID = f.nextLinkID
	cp := *link
	f.links[link.ID] = &cp
	return nil
}

func (f *fakeStore) GetDownloadLinkByToken(ctx context.Context, token string) (*models.DownloadLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Token == token {
			cp := *l
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) GetDownloadLinkByOrder(ctx context.Context, orderID, productID int64) (*models.DownloadLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.OrderID == orderID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ConsumeDownloadLink(ctx context.Context, id int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok {
		return false, nil
	}
	if !l.IsActive || !now.Before(l.ExpiresAt) || l.DownloadCount >= l.MaxDownloads {
		return false, nil
	}
	l.DownloadCount++
	l.LastAccessedAt = sql.NullTime{Time: now, Valid: true}
	l.IsActive = l.DownloadCount < l.MaxDownloads
	return true, nil
}

func (f *fakeStore) CreateEmailLog(ctx context.Context, log *models.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *log
	f.emailLogs = append(f.emailLogs, &cp)
	return nil
}

func (f *fakeStore) emailLogsByType(emailType string) []*models.EmailLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.EmailLog
	for _, l := range f.emailLogs {
		if l.EmailType == emailType {
			out = append(out, l)
		}
	}
	return out
}

func (f *fakeStore) downloadLinkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

// fakeMailer records sends and can be told to fail
type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	fail bool
}

func (m *fakeMailer) Send(ctx context.Context, msg notify.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", &notify.Error{Cause: errors.New("smtp unavailable")}
	}
	m.sent = append(m.sent, msg)
	return "msg-id", nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fakeGateway returns canned charges and statuses
type fakeGateway struct {
	mu           sync.Mutex
	chargeCalls  int
	status       *gateway.Status
	statusErr    error
	chargeErr    error
	lastAmount   int64
	lastCustomer gateway.Customer
}

func (g *fakeGateway) CreateCharge(ctx context.Context, amountInCents int64, customer gateway.Customer, orderReference, description string) (*gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.chargeCalls++
	g.lastAmount = amountInCents
	g.lastCustomer = customer
	return &gateway.Charge{
		TransactionID: "tx-" + orderReference,
		PixCode:       "00020126pixcopypaste",
		PixQrCode:     "base64qr",
		Status:        "pending",
	}, nil
}

func (g *fakeGateway) CheckStatus(ctx context.Context, transactionID string) (*gateway.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	if g.status != nil {
		return g.status, nil
	}
	return &gateway.Status{TransactionID: transactionID, Status: models.TxStatusPending}, nil
}

// fakeEvents counts published events per type
type fakeEvents struct {
	mu       sync.Mutex
	created  int
	paid     int
	failed   int
	download int
}

func (e *fakeEvents) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created++
	return nil
}

func (e *fakeEvents) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paid++
	return nil
}

func (e *fakeEvents) PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed++
	return nil
}

func (e *fakeEvents) PublishDownloadIssued(ctx context.Context, event *models.DownloadIssuedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.download++
	return nil
}
