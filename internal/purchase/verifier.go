package purchase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/storescout/storescout/pkg/httpclient"
)

// Verifier checks a user's order history against the orders service to
// decide whether a review counts as a verified purchase. Calls go through a
// circuit breaker so a slow or dead orders service degrades to "unverified"
// instead of stalling review submission.
type Verifier struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewVerifier creates a purchase verifier against the orders service at baseURL.
func NewVerifier(baseURL string, logger *slog.Logger) *Verifier {
	client := httpclient.New(httpclient.DefaultConfig())
	cbClient := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("orders-service"), logger)

	return &Verifier{
		client:  cbClient,
		baseURL: baseURL,
		logger:  logger,
	}
}

type verifyResponse struct {
	Purchased bool `json:"purchased"`
}

// HasPurchased reports whether the user has a completed order with the store.
func (v *Verifier) HasPurchased(ctx context.Context, userID, storeID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/orders/verify?user_id=%s&store_id=%s",
		v.baseURL, url.QueryEscape(userID), url.QueryEscape(storeID))

	resp, err := v.client.Get(ctx, endpoint)
	if err != nil {
		return false, fmt.Errorf("call orders service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, httpclient.ParseResponseError(resp, "orders-service")
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode orders service response: %w", err)
	}

	return body.Purchased, nil
}
