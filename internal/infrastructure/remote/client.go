// Package remote implements the HTTP clients for the remote
// order-management backend: the asynchronous reconciliation procedure and
// the collaborator write APIs used by edit/process.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/infrastructure/config"
)

// wireDateLayout is the date format the reconciliation procedure expects.
const wireDateLayout = "02/01/2006"

// Client talks to the remote order-management procedures.
type Client struct {
	baseURL          string
	token            string
	maxResponseBytes int64
	httpClient       *http.Client
	logger           *zap.Logger
}

// NewClient creates a client from configuration.
func NewClient(cfg config.RemoteConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote: endpoint not configured")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("remote: invalid endpoint: %w", err)
	}
	return &Client{
		baseURL:          strings.TrimRight(cfg.Endpoint, "/"),
		token:            cfg.Token,
		maxResponseBytes: cfg.MaxResponseBytes,
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		logger:           logger,
	}, nil
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

type reconcileRequest struct {
	DateFrom string   `json:"dateFrom"`
	DateTo   string   `json:"dateTo"`
	Statuses []string `json:"statuses,omitempty"`
}

type reconcileResponse struct {
	Started bool          `json:"started"`
	Items   []itemPayload `json:"items"`
	Orders  []orderPayload `json:"orders"`
	Error   string        `json:"error"`
}

type itemPayload struct {
	OrderNumber string `json:"order_number"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type orderPayload struct {
	Number        string `json:"number"`
	Customer      string `json:"customer"`
	ShipCity      string `json:"ship_city"`
	ShipState     string `json:"ship_state"`
	OrderDate     string `json:"order_date"`
	ExpectedDate  string `json:"expected_date"`
	Status        string `json:"status"`
	TrackingCode  string `json:"tracking_code"`
	TrackingURL   string `json:"tracking_url"`
	Notes         string `json:"notes"`
	TotalValue    string `json:"total_value"`
	SourceAccount string `json:"source_account"`
}

// ---------------------------------------------------------------------------
// Reconcile
// ---------------------------------------------------------------------------

// Reconcile invokes the remote reconciliation procedure once and classifies
// the response: an immediate items+orders payload, a "job started"
// acceptance, or orders.ErrRemoteUnavailable.
func (c *Client) Reconcile(ctx context.Context, spec orders.FilterSpec) (orders.SyncResult, error) {
	req := reconcileRequest{Statuses: canonicalStatuses(spec.Statuses)}
	if t, ok := orders.ParseFilterDate(spec.DateFrom); ok {
		req.DateFrom = t.Format(wireDateLayout)
	}
	if t, ok := orders.ParseFilterDate(spec.DateTo); ok {
		req.DateTo = t.Format(wireDateLayout)
	}

	status, body, err := c.post(ctx, "/sync-orders", req)
	if err != nil {
		return orders.SyncResult{}, fmt.Errorf("%w: %v", orders.ErrRemoteUnavailable, err)
	}

	// 202 is the "job started" semantic even without a body.
	if status == http.StatusAccepted {
		return orders.SyncResult{Started: true}, nil
	}
	if status != http.StatusOK {
		return orders.SyncResult{}, fmt.Errorf("%w: unexpected status %d", orders.ErrRemoteUnavailable, status)
	}

	var resp reconcileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return orders.SyncResult{}, fmt.Errorf("%w: decode response: %v", orders.ErrRemoteUnavailable, err)
	}
	if resp.Error != "" {
		return orders.SyncResult{}, fmt.Errorf("%w: %s", orders.ErrRemoteUnavailable, resp.Error)
	}
	if resp.Started {
		return orders.SyncResult{Started: true}, nil
	}

	result := orders.SyncResult{
		Items:  make([]orders.LineItem, 0, len(resp.Items)),
		Orders: make([]orders.Order, 0, len(resp.Orders)),
	}
	byNumber := make(map[string]orderPayload, len(resp.Orders))
	for _, o := range resp.Orders {
		byNumber[o.Number] = o
		result.Orders = append(result.Orders, o.toDomain())
	}
	for _, item := range resp.Items {
		result.Items = append(result.Items, item.toDomain(byNumber[item.OrderNumber]))
	}

	c.logger.Debug("Remote reconciliation returned immediate result",
		zap.Int("items", len(result.Items)),
		zap.Int("orders", len(result.Orders)),
	)
	return result, nil
}

// ---------------------------------------------------------------------------
// Collaborator Write APIs
// ---------------------------------------------------------------------------

// EditItem forwards an order-line edit to the collaborator write API. Not
// retried; validation failures surface as orders.ErrValidation.
func (c *Client) EditItem(ctx context.Context, patch orders.ItemPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	status, body, err := c.post(ctx, "/edit-order-item", patch)
	if err != nil {
		return fmt.Errorf("%w: %v", orders.ErrRemoteUnavailable, err)
	}
	return classifyWriteStatus(status, body)
}

// ProcessItem forwards an inventory debit to the collaborator write API.
func (c *Client) ProcessItem(ctx context.Context, item orders.EnrichedItem) error {
	payload := struct {
		OrderNumber string `json:"order_number"`
		SKU         string `json:"sku"`
		KitSKU      string `json:"kit_sku"`
		Multiplier  int64  `json:"multiplier"`
		Quantity    int64  `json:"quantity"`
	}{
		OrderNumber: item.OrderNumber,
		SKU:         item.SKU,
		KitSKU:      item.KitSKU,
		Multiplier:  item.Multiplier,
		Quantity:    item.Quantity,
	}
	status, body, err := c.post(ctx, "/process-order-item", payload)
	if err != nil {
		return fmt.Errorf("%w: %v", orders.ErrRemoteUnavailable, err)
	}
	return classifyWriteStatus(status, body)
}

func classifyWriteStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		var resp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Error != "" {
			return fmt.Errorf("%w: %s", orders.ErrValidation, resp.Error)
		}
		return orders.ErrValidation
	case status == http.StatusNotFound:
		return orders.ErrItemNotFound
	default:
		return fmt.Errorf("%w: unexpected status %d", orders.ErrRemoteUnavailable, status)
	}
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func canonicalStatuses(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if canonical, ok := orders.CanonicalStatus(s); ok {
			out = append(out, canonical.String())
		}
	}
	return out
}

func (p itemPayload) toDomain(order orderPayload) orders.LineItem {
	return orders.LineItem{
		OrderNumber:   p.OrderNumber,
		SKU:           p.SKU,
		Description:   p.Description,
		Quantity:      p.Quantity,
		UnitPrice:     parseDecimal(p.UnitPrice),
		LineTotal:     parseDecimal(p.LineTotal),
		Customer:      order.Customer,
		ShipCity:      order.ShipCity,
		ShipState:     order.ShipState,
		OrderDate:     parseWireDate(order.OrderDate),
		ExpectedDate:  parseWireDate(order.ExpectedDate),
		Status:        parseWireStatus(order.Status),
		TrackingCode:  order.TrackingCode,
		TrackingURL:   order.TrackingURL,
		Notes:         order.Notes,
		SourceAccount: order.SourceAccount,
	}
}

func (p orderPayload) toDomain() orders.Order {
	return orders.Order{
		Number:       p.Number,
		Customer:     p.Customer,
		ShipCity:     p.ShipCity,
		ShipState:    p.ShipState,
		OrderDate:    parseWireDate(p.OrderDate),
		ExpectedDate: parseWireDate(p.ExpectedDate),
		Status:       parseWireStatus(p.Status),
		TrackingCode: p.TrackingCode,
		TrackingURL:  p.TrackingURL,
		Notes:        p.Notes,
		TotalValue:   parseDecimal(p.TotalValue),
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseWireStatus accepts both stored values and display labels; unknown
// values pass through lower-cased so downstream status filters simply never
// match them.
func parseWireStatus(s string) orders.Status {
	if canonical, ok := orders.CanonicalStatus(s); ok {
		return canonical
	}
	return orders.Status(strings.ToLower(s))
}

func parseWireDate(s string) time.Time {
	if t, ok := orders.ParseFilterDate(s); ok {
		return t
	}
	return time.Time{}
}

var (
	_ orders.RemoteSyncer  = (*Client)(nil)
	_ orders.OrderEditor   = (*Client)(nil)
	_ orders.ItemProcessor = (*Client)(nil)
)
