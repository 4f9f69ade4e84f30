package main

import (
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"pehlione.com/cryptopay/internal/config"
	"pehlione.com/cryptopay/internal/gateway/cryptomus"
	apphttp "pehlione.com/cryptopay/internal/http"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	gw := cryptomus.New(cfg.APIKey, cfg.Merchant,
		cryptomus.WithAPIURL(cfg.APIURL),
		cryptomus.WithTimeout(cfg.GatewayTimeout),
	)

	r := apphttp.NewRouter(logger, db, cfg, gw)
	_ = r.Run(cfg.HTTPAddr)
}
