package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pehlione.com/cryptopay/internal/shared/apperr"
)

type ServiceConfig struct {
	// Absolute URLs embedded into gateway requests. A "%d" placeholder is
	// interpolated with the new record's internal id.
	CallbackURL string
	SuccessURL  string

	AllowedCurrencies []string
}

type Service struct {
	db     *gorm.DB
	gw     Gateway
	cfg    ServiceConfig
	logger *slog.Logger
}

func NewService(db *gorm.DB, gw Gateway, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, gw: gw, cfg: cfg, logger: logger}
}

type CreateTransactionInput struct {
	UserID   string
	Amount   decimal.Decimal
	Currency string
	OrderID  string // optional; minted when empty
	// Free-form extras forwarded to the gateway. url_callback/url_success
	// are stripped: the server-computed URLs always win.
	AdditionalData map[string]any
}

type CreateTransactionResult struct {
	Payment    Payment
	PaymentURL string
	// Full gateway result for JSON callers.
	GatewayResponse map[string]any
}

func (s *Service) CreateTransaction(ctx context.Context, in CreateTransactionInput) (CreateTransactionResult, error) {
	if fields := s.validate(in); len(fields) > 0 {
		return CreateTransactionResult{}, apperr.InvalidErr("Payment request is invalid.", fields)
	}

	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		orderID = uuid.NewString()
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))

	now := time.Now()
	amount := in.Amount
	p := Payment{
		UserID:    in.UserID,
		OrderID:   orderID,
		Amount:    &amount,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		if isDup(err) {
			return CreateTransactionResult{}, ErrDuplicateOrderID
		}
		return CreateTransactionResult{}, err
	}

	// Gateway call happens outside any transaction; the pending row persists
	// even when the call fails, so a late callback can still reconcile it.
	req := InvoiceRequest{
		Amount:      amount.StringFixed(2),
		Currency:    currency,
		OrderID:     orderID,
		URLCallback: interpolateID(s.cfg.CallbackURL, p.ID),
		URLSuccess:  interpolateID(s.cfg.SuccessURL, p.ID),
		Extra:       stripReservedKeys(in.AdditionalData),
	}

	res, err := s.gw.CreateInvoice(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "gateway create invoice failed",
			"order_id", orderID, "payment_id", p.ID, "err", err)
		return CreateTransactionResult{Payment: p}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	s.logger.InfoContext(ctx, "payment transaction created",
		"order_id", orderID, "payment_id", p.ID, "gateway_uuid", res.UUID)

	return CreateTransactionResult{
		Payment:         p,
		PaymentURL:      res.URL,
		GatewayResponse: res.Raw,
	}, nil
}

func (s *Service) validate(in CreateTransactionInput) map[string]string {
	fields := map[string]string{}

	if strings.TrimSpace(in.UserID) == "" {
		fields["user_id"] = "This field is required."
	}
	if !in.Amount.IsPositive() {
		fields["amount"] = "Must be greater than zero."
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		fields["currency"] = "This field is required."
	} else if !contains(s.cfg.AllowedCurrencies, currency) {
		fields["currency"] = "Unsupported currency. Allowed: " + strings.Join(s.cfg.AllowedCurrencies, ", ") + "."
	}

	if len(in.OrderID) > 100 {
		fields["order_id"] = "Must be at most 100 characters."
	}

	return fields
}

// Callers must not be able to redirect gateway traffic via additional_data.
func stripReservedKeys(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if k == "url_callback" || k == "url_success" {
			continue
		}
		out[k] = v
	}
	return out
}

func interpolateID(url string, id uint) string {
	if strings.Contains(url, "%d") {
		return fmt.Sprintf(url, id)
	}
	return url
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
