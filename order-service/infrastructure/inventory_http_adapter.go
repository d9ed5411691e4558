package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var _ domain.InventoryClient = (*InventoryHTTPAdapter)(nil)

// InventoryHTTPAdapter calls the inventory service's batch operations over
// HTTP. The service guarantees the all-or-nothing batch contract; this
// adapter only moves requests and maps failures.
type InventoryHTTPAdapter struct {
	baseURL string
	client  *http.Client
}

// NewInventoryHTTPAdapter creates a new InventoryHTTPAdapter
func NewInventoryHTTPAdapter(baseURL string) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type itemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type itemsRequest struct {
	Items []itemPayload `json:"items"`
}

// ReserveMany places a provisional hold for every item
func (a *InventoryHTTPAdapter) ReserveMany(ctx context.Context, items []domain.ItemQuantity) error {
	return a.post(ctx, "/inventories/reserve", items)
}

// CommitMany converts holds into permanent deductions
func (a *InventoryHTTPAdapter) CommitMany(ctx context.Context, items []domain.ItemQuantity) error {
	return a.post(ctx, "/inventories/commit", items)
}

// ReleaseMany returns holds to available stock
func (a *InventoryHTTPAdapter) ReleaseMany(ctx context.Context, items []domain.ItemQuantity) error {
	return a.post(ctx, "/inventories/release", items)
}

func (a *InventoryHTTPAdapter) post(ctx context.Context, path string, items []domain.ItemQuantity) error {
	payload := itemsRequest{Items: make([]itemPayload, len(items))}
	for i, item := range items {
		payload.Items[i] = itemPayload{ProductID: item.ProductID.String(), Quantity: item.Quantity}
	}

	_, err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+path, payload)
	return err
}

// errorBody is the error envelope every service answers with
type errorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// doJSON sends a JSON request with trace propagation and returns the response
// body for 2xx answers. Non-2xx answers are mapped to an upstream error
// preserving the collaborator's status code and message.
func doJSON(ctx context.Context, client *http.Client, method, url string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Upstream(err, "%s %s failed", method, url)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Upstream(err, "failed to read response from %s", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure errorBody
		if err := json.Unmarshal(raw, &failure); err == nil && failure.Message != "" {
			return nil, errs.UpstreamStatus(resp.StatusCode, "%s", failure.Message)
		}
		return nil, errs.UpstreamStatus(resp.StatusCode, "%s %s answered %d", method, url, resp.StatusCode)
	}

	return raw, nil
}
