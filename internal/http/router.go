package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pehlione.com/cryptopay/internal/config"
	"pehlione.com/cryptopay/internal/http/handlers"
	"pehlione.com/cryptopay/internal/http/middleware"
	"pehlione.com/cryptopay/internal/modules/payments"
)

// Options allow the host application to substitute the success and callback
// handlers, resolved once at startup.
type Options struct {
	SuccessHandler  gin.HandlerFunc
	CallbackHandler gin.HandlerFunc
}

type Option func(*Options)

func WithSuccessHandler(h gin.HandlerFunc) Option {
	return func(o *Options) { o.SuccessHandler = h }
}

func WithCallbackHandler(h gin.HandlerFunc) Option {
	return func(o *Options) { o.CallbackHandler = h }
}

func NewRouter(logger *slog.Logger, db *gorm.DB, cfg *config.Config, gw payments.Gateway, opts ...Option) *gin.Engine {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
	)
	r.LoadHTMLFiles(cfg.PaymentFormTemplate, cfg.SuccessTemplate)

	svc := payments.NewService(db, gw, payments.ServiceConfig{
		CallbackURL:       cfg.CallbackURL(),
		SuccessURL:        cfg.SuccessURL(),
		AllowedCurrencies: cfg.AllowedCurrencies,
	}, logger)
	cbSvc := payments.NewCallbackService(db, logger)

	ph := handlers.NewPaymentHandler(logger, svc, cfg.AllowedCurrencies, cfg.PaymentFormTemplate, cfg.SuccessTemplate)
	cb := handlers.NewCallbackHandler(logger, cbSvc)

	success := o.SuccessHandler
	if success == nil {
		success = ph.Success
	}
	callback := o.CallbackHandler
	if callback == nil {
		callback = cb.Handle
	}

	r.GET(cfg.CreateTransactionPath, ph.ShowForm)
	r.POST(cfg.CreateTransactionPath, middleware.RequireUser(), ph.Create)
	r.GET(cfg.SuccessPath, success)
	r.POST(cfg.CallbackPath, callback)

	return r
}
