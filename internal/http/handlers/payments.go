package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pehlione.com/cryptopay/internal/http/middleware"
	"pehlione.com/cryptopay/internal/http/validation"
	"pehlione.com/cryptopay/internal/modules/payments"
	"pehlione.com/cryptopay/internal/shared/apperr"
)

type PaymentHandler struct {
	Logger          *slog.Logger
	Svc             *payments.Service
	Currencies      []string
	FormTemplate    string
	SuccessTemplate string
}

func NewPaymentHandler(logger *slog.Logger, svc *payments.Service, currencies []string, formTemplate, successTemplate string) *PaymentHandler {
	return &PaymentHandler{
		Logger:          logger,
		Svc:             svc,
		Currencies:      currencies,
		FormTemplate:    formTemplate,
		SuccessTemplate: successTemplate,
	}
}

type createTransactionJSON struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" binding:"required"`
	OrderID        string          `json:"order_id" binding:"omitempty,max=100"`
	AdditionalData map[string]any  `json:"additional_data"`
}

type createTransactionForm struct {
	Amount         string `form:"amount" binding:"required"`
	Currency       string `form:"currency" binding:"required"`
	OrderID        string `form:"order_id" binding:"omitempty,max=100"`
	AdditionalData string `form:"additional_data"` // JSON object, optional
}

// Create handles POST create-transaction. JSON callers get the full gateway
// response back; form submissions are redirected to the hosted payment page.
func (h *PaymentHandler) Create(c *gin.Context) {
	in := payments.CreateTransactionInput{
		UserID: middleware.CurrentUserID(c),
	}

	isJSON := strings.HasPrefix(c.ContentType(), "application/json")
	if isJSON {
		var req createTransactionJSON
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": validation.FromBindError(err, &req)})
			return
		}
		in.Amount = req.Amount
		in.Currency = req.Currency
		in.OrderID = req.OrderID
		in.AdditionalData = req.AdditionalData
	} else {
		var req createTransactionForm
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": validation.FromBindError(err, &req)})
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"amount": "Must be a decimal number."}})
			return
		}
		in.Amount = amount
		in.Currency = req.Currency
		in.OrderID = req.OrderID

		if s := strings.TrimSpace(req.AdditionalData); s != "" {
			var extra map[string]any
			if err := json.Unmarshal([]byte(s), &extra); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"additional_data": "Must be a JSON object."}})
				return
			}
			in.AdditionalData = extra
		}
	}

	res, err := h.Svc.CreateTransaction(c.Request.Context(), in)
	if err != nil {
		h.failCreate(c, err)
		return
	}

	if isJSON {
		c.JSON(http.StatusOK, res.GatewayResponse)
		return
	}
	c.Redirect(http.StatusSeeOther, res.PaymentURL)
}

func (h *PaymentHandler) failCreate(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payments.ErrDuplicateOrderID):
		middleware.Fail(c, apperr.ConflictErr("A payment with this order_id already exists."))
	case errors.Is(err, payments.ErrGatewayUnavailable):
		middleware.Fail(c, apperr.BadGatewayErr("Payment gateway is unavailable, please try again later.", err))
	default:
		if ae, ok := apperr.As(err); ok && ae.Kind == apperr.Invalid {
			c.JSON(http.StatusBadRequest, gin.H{"errors": ae.Fields})
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
	}
}

// ShowForm renders the payment intake form.
func (h *PaymentHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, filepath.Base(h.FormTemplate), gin.H{
		"currencies": h.Currencies,
		"action":     c.Request.URL.Path,
	})
}

// Success renders the post-payment landing page. Hosts that need their own
// page swap this handler out via router options.
func (h *PaymentHandler) Success(c *gin.Context) {
	c.HTML(http.StatusOK, filepath.Base(h.SuccessTemplate), nil)
}
