package payments_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pehlione.com/cryptopay/internal/modules/payments"
	"pehlione.com/cryptopay/internal/shared/apperr"
)

func createPendingPayment(t *testing.T, db *gorm.DB, orderID string) payments.Payment {
	t.Helper()

	svc := newTestService(db, &stubGateway{})
	res, err := svc.CreateTransaction(context.Background(), payments.CreateTransactionInput{
		UserID:   "user-1",
		Amount:   decimal.RequireFromString("10.00"),
		Currency: "USD",
		OrderID:  orderID,
	})
	require.NoError(t, err)
	return res.Payment
}

func applyCallback(t *testing.T, db *gorm.DB, body map[string]any) error {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	p, err := payments.ParseCallback(raw)
	require.NoError(t, err)

	return payments.NewCallbackService(db, nil).Apply(context.Background(), p, raw)
}

func TestApplyPaidCallbackRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	created := createPendingPayment(t, db, "order-1")

	body := map[string]any{
		"order_id":           "order-1",
		"status":             "paid",
		"payment_amount_usd": "10.00",
		"payer_currency":     "USDT",
		"from":               "0xABC",
		"txid":               "0xdeadbeef",
		"network":            "tron", // extra fields ride along in payment_data
	}
	require.NoError(t, applyCallback(t, db, body))

	var got payments.Payment
	require.NoError(t, db.First(&got, "order_id = ?", "order-1").Error)

	require.NotNil(t, got.Status)
	require.Equal(t, "paid", *got.Status)
	require.Equal(t, "0xdeadbeef", *got.TxID)
	require.Equal(t, "0xABC", *got.FromAddress)
	require.Equal(t, "USDT", *got.PayerCurrency)
	require.True(t, got.PaymentAmountUSD.Equal(decimal.RequireFromString("10.00")))

	// Creation-owned fields stay untouched.
	require.True(t, got.Amount.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, "USD", got.Currency)
	require.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)

	// The raw payload is preserved verbatim.
	var stored map[string]any
	require.NoError(t, json.Unmarshal(got.PaymentData, &stored))
	require.Equal(t, "tron", stored["network"])

	var ev payments.CallbackEvent
	require.NoError(t, db.First(&ev, "order_id = ?", "order-1").Error)
	require.True(t, ev.Applied)
	require.Equal(t, "paid", ev.Status)
}

func TestApplyNonPaidStatusIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	createPendingPayment(t, db, "order-2")

	require.NoError(t, applyCallback(t, db, map[string]any{
		"order_id": "order-2",
		"status":   "process",
		"txid":     "0xshouldnotland",
	}))

	var got payments.Payment
	require.NoError(t, db.First(&got, "order_id = ?", "order-2").Error)
	require.Nil(t, got.Status)
	require.Nil(t, got.TxID)
	require.Nil(t, got.PaymentData)

	// Still audited.
	var ev payments.CallbackEvent
	require.NoError(t, db.First(&ev, "order_id = ?", "order-2").Error)
	require.False(t, ev.Applied)
	require.Equal(t, "process", ev.Status)
}

func TestApplyUnknownOrderIsAuditedNotFound(t *testing.T) {
	db := setupTestDB(t)

	err := applyCallback(t, db, map[string]any{
		"order_id": "ghost-order",
		"status":   "paid",
		"txid":     "0x1",
	})
	require.ErrorIs(t, err, payments.ErrPaymentNotFound)

	var count int64
	require.NoError(t, db.Model(&payments.Payment{}).Count(&count).Error)
	require.EqualValues(t, 0, count)

	var ev payments.CallbackEvent
	require.NoError(t, db.First(&ev, "order_id = ?", "ghost-order").Error)
	require.False(t, ev.Applied)
}

func TestApplyPaidTwiceOverwritesButKeepsAuditTrail(t *testing.T) {
	db := setupTestDB(t)
	createPendingPayment(t, db, "order-3")

	require.NoError(t, applyCallback(t, db, map[string]any{
		"order_id": "order-3",
		"status":   "paid",
		"txid":     "0xfirst",
	}))
	require.NoError(t, applyCallback(t, db, map[string]any{
		"order_id": "order-3",
		"status":   "paid",
		"txid":     "0xsecond",
	}))

	// Last writer wins on the row...
	var got payments.Payment
	require.NoError(t, db.First(&got, "order_id = ?", "order-3").Error)
	require.Equal(t, "0xsecond", *got.TxID)

	// ...but both deliveries are on record.
	var count int64
	require.NoError(t, db.Model(&payments.CallbackEvent{}).Where("order_id = ?", "order-3").Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestParseCallbackRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `"paid"`},
		{"missing order_id", `{"status":"paid"}`},
		{"missing status", `{"order_id":"order-1"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payments.ParseCallback([]byte(tt.raw))
			require.Error(t, err)

			ae, ok := apperr.As(err)
			require.True(t, ok)
			require.Equal(t, apperr.Invalid, ae.Kind)
		})
	}
}

func TestParseCallbackAcceptsNumericAmount(t *testing.T) {
	p, err := payments.ParseCallback([]byte(`{"order_id":"o","status":"paid","payment_amount_usd":10.5}`))
	require.NoError(t, err)
	require.True(t, p.PaymentAmountUSD.Equal(decimal.RequireFromString("10.5")))
}
