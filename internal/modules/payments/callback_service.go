package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pehlione.com/cryptopay/internal/shared/apperr"
)

// CallbackPayload is the typed view of a gateway notification. Extra fields
// are not modeled here; the raw body is preserved verbatim in payment_data
// and in the callback event log.
type CallbackPayload struct {
	OrderID          string           `json:"order_id"`
	Status           string           `json:"status"`
	PaymentAmountUSD *decimal.Decimal `json:"payment_amount_usd,omitempty"`
	PayerCurrency    *string          `json:"payer_currency,omitempty"`
	From             *string          `json:"from,omitempty"`
	TxID             *string          `json:"txid,omitempty"`
}

// ParseCallback validates payload shape at the boundary. Cryptomus retries
// on non-200, so only structural garbage gets rejected.
func ParseCallback(raw []byte) (CallbackPayload, error) {
	var p CallbackPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return CallbackPayload{}, apperr.InvalidErr("Malformed callback payload.", map[string]string{"_": "Body must be a JSON object."})
	}

	fields := map[string]string{}
	if p.OrderID == "" {
		fields["order_id"] = "This field is required."
	}
	if p.Status == "" {
		fields["status"] = "This field is required."
	}
	if len(fields) > 0 {
		return CallbackPayload{}, apperr.InvalidErr("Malformed callback payload.", fields)
	}
	return p, nil
}

type CallbackService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewCallbackService(db *gorm.DB, logger *slog.Logger) *CallbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackService{db: db, logger: logger}
}

// Apply records the delivery in the audit log, then reconciles the payment
// row when the gateway reports "paid". Non-paid statuses are a deliberate
// no-op; an unknown order_id surfaces as ErrPaymentNotFound so the handler
// can log it while still acknowledging the delivery.
func (s *CallbackService) Apply(ctx context.Context, p CallbackPayload, raw []byte) error {
	now := time.Now()

	ev := CallbackEvent{
		ID:          uuid.NewString(),
		OrderID:     p.OrderID,
		Status:      p.Status,
		PayloadJSON: datatypes.JSON(raw),
		Applied:     false,
		ReceivedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return err
	}

	if p.Status != StatusPaid {
		s.logger.InfoContext(ctx, "callback ignored, non-terminal status",
			"order_id", p.OrderID, "status", p.Status)
		return nil
	}

	// Single atomic statement scoped to the matching row; concurrent paid
	// callbacks for the same order cannot produce a torn record.
	res := s.db.WithContext(ctx).Model(&Payment{}).
		Where("order_id = ?", p.OrderID).
		Updates(map[string]any{
			"payment_amount_usd": p.PaymentAmountUSD,
			"payer_currency":     p.PayerCurrency,
			"from_address":       p.From,
			"status":             p.Status,
			"txid":               p.TxID,
			"payment_data":       datatypes.JSON(raw),
			"updated_at":         now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPaymentNotFound
	}

	if err := s.db.WithContext(ctx).Model(&CallbackEvent{}).
		Where("id = ?", ev.ID).
		Updates(map[string]any{"applied": true}).Error; err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "payment reconciled from callback",
		"order_id", p.OrderID, "txid", deref(p.TxID))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
