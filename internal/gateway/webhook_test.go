package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWebhookStatusVocabulary(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"completed", "completed"},
		{"paid", "completed"},
		{"ok", "completed"},
		{"approved", "completed"},
		{"failed", "failed"},
		{"refused", "failed"},
		{"error", "failed"},
		{"cancelled", "cancelled"},
		{"canceled", "cancelled"},
		{"refunded", "cancelled"},
		{"pending", "pending"},
		{"waiting_payment", "pending"},
		{"", "pending"},
	}

	for _, tc := range cases {
		st, err := NormalizeWebhook([]byte(`{"transactionId":"T1","status":"` + tc.in + `"}`))
		require.NoError(t, err, "status %q", tc.in)
		assert.Equal(t, tc.want, st.Status, "status %q", tc.in)
		assert.Equal(t, "T1", st.TransactionID)
	}
}

func TestNormalizeWebhookIDFields(t *testing.T) {
	for _, payload := range []string{
		`{"transactionId":"T1","status":"paid"}`,
		`{"transaction_id":"T1","status":"paid"}`,
		`{"id":"T1","status":"paid"}`,
	} {
		st, err := NormalizeWebhook([]byte(payload))
		require.NoError(t, err)
		assert.Equal(t, "T1", st.TransactionID)
	}
}

func TestNormalizeWebhookMissingID(t *testing.T) {
	_, err := NormalizeWebhook([]byte(`{"status":"paid"}`))
	assert.ErrorIs(t, err, ErrMissingTransactionID)
}

func TestNormalizeWebhookInvalidJSON(t *testing.T) {
	_, err := NormalizeWebhook([]byte(`{oops`))
	assert.Error(t, err)
}

func TestNormalizeWebhookPaidAt(t *testing.T) {
	st, err := NormalizeWebhook([]byte(`{"transactionId":"T1","status":"paid","paidAt":"2026-01-15T10:30:00Z"}`))
	require.NoError(t, err)
	require.NotNil(t, st.PaidAt)
	assert.Equal(t, 2026, st.PaidAt.Year())

	st, err = NormalizeWebhook([]byte(`{"transactionId":"T1","status":"paid","paidAt":"not-a-date"}`))
	require.NoError(t, err)
	assert.Nil(t, st.PaidAt)
}
