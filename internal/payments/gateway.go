// Package payments talks to the external payment gateway. The engine only
// ever asks it to refund; advance capture happens on the storefront before a
// booking reaches us.
package payments

import (
	"context"
	"fmt"
	"net/http"

	"renthub/pkg/client"
	"renthub/pkg/config"
	apperrors "renthub/pkg/errors"
	"renthub/pkg/logger"
)

type Gateway interface {
	// RequestRefund asks the gateway to return amount to the customer.
	// Returns the gateway's refund reference. Completion arrives later on
	// the refund webhook.
	RequestRefund(ctx context.Context, publicID string, paymentRef string, amount float64, reason string) (string, error)
}

type httpGateway struct {
	client *client.HttpClient
	apiKey string
	log    *logger.Logger
}

func NewHTTPGateway(cfg *config.Config) Gateway {
	return &httpGateway{
		client: client.NewHttpClient(cfg.PaymentGatewayURL),
		apiKey: cfg.PaymentGatewayKey,
		log:    cfg.Log,
	}
}

type refundRequest struct {
	BookingID  string  `json:"booking_id"`
	PaymentRef string  `json:"payment_ref"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

type refundResponse struct {
	RefundRef string `json:"refund_ref"`
	Status    string `json:"status"`
}

func (g *httpGateway) RequestRefund(ctx context.Context, publicID string, paymentRef string, amount float64, reason string) (string, error) {
	body := refundRequest{
		BookingID:  publicID,
		PaymentRef: paymentRef,
		Amount:     amount,
		Reason:     reason,
	}

	resp, err := g.client.POSTWithHeaders(ctx, "/v1/refunds", body, map[string]string{
		"X-Api-Key": g.apiKey,
	})
	if err != nil {
		return "", apperrors.RefundRequestFailed(err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		g.log.Warn("Payment gateway rejected refund request",
			"booking_public_id", publicID,
			"status_code", resp.StatusCode,
			"body", string(resp.Body),
		)
		return "", apperrors.RefundRequestFailed(fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}

	var parsed refundResponse
	if err := resp.DecodeJSON(&parsed); err != nil {
		return "", apperrors.RefundRequestFailed(fmt.Errorf("malformed gateway response: %w", err))
	}

	return parsed.RefundRef, nil
}
