package main

import (
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	sql := `
	CREATE TABLE IF NOT EXISTS crypto_payments (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  user_id CHAR(36) NOT NULL,
	  order_id VARCHAR(100) NOT NULL,
	  amount DECIMAL(10,2) NULL,
	  currency VARCHAR(10) NULL DEFAULT 'USD',
	  payment_amount_usd DECIMAL(10,2) NULL,
	  payer_currency VARCHAR(10) NULL,
	  status VARCHAR(20) NULL,
	  from_address VARCHAR(150) NULL,
	  txid VARCHAR(100) NULL,
	  payment_data JSON NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_crypto_payments_order_id (order_id),
	  KEY ix_crypto_payments_user_id (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

	CREATE TABLE IF NOT EXISTS payment_callback_events (
	  id CHAR(36) NOT NULL,
	  order_id VARCHAR(100) NOT NULL,
	  status VARCHAR(20) NOT NULL,
	  payload_json JSON NOT NULL,
	  applied TINYINT(1) NOT NULL DEFAULT 0,
	  received_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_callback_events_order_id (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	if _, err := sqlDB.Exec(sql); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	log.Println("✓ crypto_payments table created successfully")
	log.Println("✓ payment_callback_events table created successfully")
}
