package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pehlione.com/cryptopay/internal/http/middleware"
	"pehlione.com/cryptopay/internal/modules/payments"
	"pehlione.com/cryptopay/internal/shared/apperr"
)

type CallbackHandler struct {
	Logger *slog.Logger
	Svc    *payments.CallbackService
}

func NewCallbackHandler(logger *slog.Logger, svc *payments.CallbackService) *CallbackHandler {
	return &CallbackHandler{Logger: logger, Svc: svc}
}

// Handle processes a gateway notification. Non-200 triggers gateway retry
// storms, so only structurally invalid payloads and storage failures break
// the acknowledgment; "nothing to do" cases still echo 200.
func (h *CallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	payload, err := payments.ParseCallback(body)
	if err != nil {
		resp := gin.H{"error": apperr.PublicMessage(err)}
		if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
			resp["fields"] = ae.Fields
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	if err := h.Svc.Apply(c.Request.Context(), payload, body); err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			h.Logger.Warn("callback for unknown order",
				"order_id", payload.OrderID,
				"request_id", middleware.GetRequestID(c))
		} else {
			h.Logger.Error("callback apply failed",
				"order_id", payload.OrderID,
				"request_id", middleware.GetRequestID(c),
				"err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
			return
		}
	}

	// Echo the received payload back, as the gateway expects.
	c.Data(http.StatusOK, "application/json", body)
}
