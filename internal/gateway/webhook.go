package gateway

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrMissingTransactionID is returned for webhook payloads that cannot be
// tied back to a transaction. The provider is expected to retry delivery of
// well-formed payloads only.
var ErrMissingTransactionID = errors.New("webhook payload has no transaction identifier")

type webhookPayload struct {
	TransactionID  string `json:"transactionId"`
	TransactionID2 string `json:"transaction_id"`
	ID             string `json:"id"`
	Status         string `json:"status"`
	PaidAt         string `json:"paidAt"`
}

// NormalizeWebhook parses a provider webhook payload into a normalized
// Status. Pure function, no I/O. Unknown status strings map to pending
// rather than failing, so a provider vocabulary change cannot drop payments.
func NormalizeWebhook(raw []byte) (*Status, error) {
	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	txID := p.TransactionID
	if txID == "" {
		txID = p.TransactionID2
	}
	if txID == "" {
		txID = p.ID
	}
	if txID == "" {
		return nil, ErrMissingTransactionID
	}

	st := &Status{
		TransactionID: txID,
		Status:        normalizeStatus(p.Status),
	}
	if p.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, p.PaidAt); err == nil {
			st.PaidAt = &t
		}
	}
	return st, nil
}

// normalizeStatus maps provider status vocabulary onto the canonical enum
func normalizeStatus(s string) string {
	switch s {
	case "completed", "paid", "ok", "approved":
		return "completed"
	case "failed", "refused", "error":
		return "failed"
	case "cancelled", "canceled", "refunded":
		return "cancelled"
	default:
		return "pending"
	}
}
