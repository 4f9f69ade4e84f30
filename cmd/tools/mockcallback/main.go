// mockcallback fires a Cryptomus-shaped payment callback at a running
// instance. Useful for exercising the reconciliation path without a real
// gateway behind it.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	url := flag.String("url", "http://localhost:8080/payments/cryptomus/callback", "Callback URL")
	orderID := flag.String("order-id", "", "Order ID (required)")
	status := flag.String("status", "paid", "Payment status (paid, process, cancel, fail)")
	amountUSD := flag.String("amount-usd", "10.00", "Confirmed amount in USD")
	payerCurrency := flag.String("payer-currency", "USDT", "Currency actually paid")
	from := flag.String("from", "0xABC", "Payer source address")
	txid := flag.String("txid", "0xdeadbeef", "Blockchain transaction id")
	dryRun := flag.Bool("dry-run", false, "Only print the payload, don't send")

	flag.Parse()

	if *orderID == "" {
		fmt.Fprintf(os.Stderr, "Error: -order-id is required\n")
		os.Exit(1)
	}

	payload := map[string]any{
		"order_id":           *orderID,
		"status":             *status,
		"payment_amount_usd": *amountUSD,
		"payer_currency":     *payerCurrency,
		"from":               *from,
		"txid":               *txid,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	resp, err := http.Post(*url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
