package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config enumerates every recognized option. All gateway URLs are built from
// BaseURL + the path options so the callback/success endpoints we register are
// the same ones we hand to Cryptomus.
type Config struct {
	HTTPAddr string
	DBDSN    string

	APIKey   string
	Merchant string
	APIURL   string // Cryptomus API endpoint

	BaseURL               string // public base URL of this service
	CreateTransactionPath string
	CallbackPath          string
	SuccessPath           string

	AllowedCurrencies []string

	PaymentFormTemplate string
	SuccessTemplate     string

	GatewayTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		DBDSN:    os.Getenv("DB_DSN"),

		APIKey:   os.Getenv("CRYPTOMUS_API_KEY"),
		Merchant: os.Getenv("CRYPTOMUS_MERCHANT"),
		APIURL:   getEnvOrDefault("CRYPTOMUS_API_URL", "https://api.cryptomus.com/v1"),

		BaseURL:               os.Getenv("CRYPTOMUS_BASE_URL"),
		CreateTransactionPath: getEnvOrDefault("CRYPTOMUS_CREATE_TRANSACTION_PATH", "/payments/cryptomus/create-transaction"),
		CallbackPath:          getEnvOrDefault("CRYPTOMUS_CALLBACK_PATH", "/payments/cryptomus/callback"),
		SuccessPath:           getEnvOrDefault("CRYPTOMUS_SUCCESS_PATH", "/payments/cryptomus/success"),

		AllowedCurrencies: splitCSV(getEnvOrDefault("CRYPTOMUS_ALLOWED_CURRENCIES", "USD,EUR")),

		PaymentFormTemplate: getEnvOrDefault("CRYPTOMUS_PAYMENT_FORM_TEMPLATE", "templates/payment_form.html"),
		SuccessTemplate:     getEnvOrDefault("CRYPTOMUS_SUCCESS_TEMPLATE", "templates/success.html"),
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("CRYPTOMUS_GATEWAY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRYPTOMUS_GATEWAY_TIMEOUT: %w", err)
	}
	cfg.GatewayTimeout = timeout

	var missing []string
	if cfg.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "CRYPTOMUS_API_KEY")
	}
	if cfg.Merchant == "" {
		missing = append(missing, "CRYPTOMUS_MERCHANT")
	}
	if cfg.BaseURL == "" {
		missing = append(missing, "CRYPTOMUS_BASE_URL")
	}
	if len(missing) > 0 {
		return nil, errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	return cfg, nil
}

// CallbackURL and SuccessURL are what get embedded into gateway requests.
func (c *Config) CallbackURL() string { return strings.TrimRight(c.BaseURL, "/") + c.CallbackPath }
func (c *Config) SuccessURL() string  { return strings.TrimRight(c.BaseURL, "/") + c.SuccessPath }

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
