package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorKind classifies gateway failures so callers can branch without
// parsing provider messages.
type ErrorKind string

const (
	ErrorKindAuth       ErrorKind = "auth"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindServer     ErrorKind = "server"
)

// Error is a payment gateway failure carrying the provider's response.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pix gateway error (%s, http %d): %s", e.Kind, e.StatusCode, e.Message)
}

func classify(statusCode int) ErrorKind {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorKindAuth
	case statusCode >= 400 && statusCode < 500:
		return ErrorKindValidation
	default:
		return ErrorKindServer
	}
}

// Customer identifies the payer on a charge request
type Customer struct {
	Name     string
	Email    string
	Phone    string
	Document string
}

// Charge is the normalized result of creating a Pix charge
type Charge struct {
	TransactionID string
	PixCode       string
	PixQrCode     string // base64 PNG as returned by the provider
	ExpiresAt     time.Time
	Status        string
}

// Status is the normalized result of a status query or webhook
type Status struct {
	TransactionID string
	Status        string // pending, completed, failed, cancelled
	PaidAt        *time.Time
}

// Client calls the provider's Pix API. Amounts cross this boundary in minor
// units (cents); the client converts to the provider's decimal representation.
type Client struct {
	baseURL    string
	publicKey  string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client
func NewClient(baseURL, publicKey, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		publicKey:  publicKey,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

type chargeRequest struct {
	Identifier string         `json:"identifier"`
	Amount     float64        `json:"amount"`
	Client     chargeCustomer `json:"client"`
	Metadata   chargeMetadata `json:"metadata"`
}

type chargeCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
}

type chargeMetadata struct {
	Description string `json:"description"`
}

type chargeResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Pix           struct {
		CopyPaste    string `json:"copyPaste"`
		QrCodeBase64 string `json:"qrCodeBase64"`
	} `json:"pix"`
	Order struct {
		ExpiresAt string `json:"expiresAt"`
	} `json:"order"`
}

type statusResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	PaidAt        string `json:"paidAt"`
}

type errorResponse struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

// CreateCharge issues a Pix charge for amountInCents at the provider
func (c *Client) CreateCharge(ctx context.Context, amountInCents int64, customer Customer, orderReference, description string) (*Charge, error) {
	body := chargeRequest{
		Identifier: orderReference,
		// The provider expects decimal currency units.
		Amount:   float64(amountInCents) / 100,
		Client:   chargeCustomer(customer),
		Metadata: chargeMetadata{Description: description},
	}

	var resp chargeResponse
	if err := c.do(ctx, http.MethodPost, "/gateway/pix/receive", body, &resp); err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if resp.Order.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.Order.ExpiresAt); err == nil {
			expiresAt = t
		}
	}

	return &Charge{
		TransactionID: resp.TransactionID,
		PixCode:       resp.Pix.CopyPaste,
		PixQrCode:     resp.Pix.QrCodeBase64,
		ExpiresAt:     expiresAt,
		Status:        resp.Status,
	}, nil
}

// CheckStatus queries the provider for the current state of a transaction
func (c *Client) CheckStatus(ctx context.Context, transactionID string) (*Status, error) {
	var resp statusResponse
	path := fmt.Sprintf("/gateway/pix/transaction/%s", transactionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	st := &Status{
		TransactionID: resp.TransactionID,
		Status:        normalizeStatus(resp.Status),
	}
	if resp.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, resp.PaidAt); err == nil {
			st.PaidAt = &t
		}
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	start := time.Now()
	defer func() {
		util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding gateway request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-public-key", c.publicKey)
	req.Header.Set("x-secret-key", c.secretKey)
	req.Header.Set("x-request-id", uuid.New().String())

	res, err := c.httpClient.Do(req)
	if err != nil {
		util.GatewayErrorsTotal.WithLabelValues(string(ErrorKindServer)).Inc()
		return &Error{Kind: ErrorKindServer, StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading gateway response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		kind := classify(res.StatusCode)
		util.GatewayErrorsTotal.WithLabelValues(string(kind)).Inc()

		var er errorResponse
		msg := string(raw)
		if err := json.Unmarshal(raw, &er); err == nil {
			if er.Message != "" {
				msg = er.Message
			} else if er.Err != "" {
				msg = er.Err
			}
		}

		c.logger.Warn("Gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.String("kind", string(kind)))

		return &Error{Kind: kind, StatusCode: res.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding gateway response: %w", err)
		}
	}
	return nil
}
