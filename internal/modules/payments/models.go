package payments

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Terminal status reported by Cryptomus. Other statuses ("process",
// "check", "cancel", ...) pass through the callback log untouched.
const StatusPaid = "paid"

type Payment struct {
	ID      uint   `gorm:"primaryKey"`
	UserID  string `gorm:"type:char(36);not null;index:ix_crypto_payments_user_id"`
	OrderID string `gorm:"type:varchar(100);not null;uniqueIndex:ux_crypto_payments_order_id"`

	// Requested by the payer at creation time.
	Amount   *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Currency string           `gorm:"type:varchar(10);default:'USD'"`

	// Populated only by the callback reconciliation, never by the creation path.
	PaymentAmountUSD *decimal.Decimal `gorm:"type:decimal(10,2)"`
	PayerCurrency    *string          `gorm:"type:varchar(10)"`
	Status           *string          `gorm:"type:varchar(20)"`
	FromAddress      *string          `gorm:"type:varchar(150)"`
	TxID             *string          `gorm:"column:txid;type:varchar(100)"`
	PaymentData      datatypes.JSON   `gorm:"type:json"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Payment) TableName() string { return "crypto_payments" }

// CallbackEvent is an append-only audit row, one per delivered callback.
// Duplicate "paid" deliveries overwrite the payment row (last writer wins),
// but every payload stays traceable here.
type CallbackEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	OrderID     string         `gorm:"type:varchar(100);not null;index:ix_payment_callback_events_order_id"`
	Status      string         `gorm:"type:varchar(20);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`
	Applied     bool           `gorm:"not null"`
	ReceivedAt  time.Time      `gorm:"not null"`
}

func (CallbackEvent) TableName() string { return "payment_callback_events" }
