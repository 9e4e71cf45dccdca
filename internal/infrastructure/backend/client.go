// Package backend is the HTTP client for the subscription backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

const (
	defaultTimeout = 30 * time.Second
	// Maximum response body size accepted from the backend (1MB)
	maxResponseSize = 1 << 20
)

// errorBody is the backend's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

// Client implements subscription.BackendGateway and subscription.PlanCatalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Interface
}

var (
	_ subscription.BackendGateway = (*Client)(nil)
	_ subscription.PlanCatalog    = (*Client)(nil)
	_ subscription.PlanAdmin      = (*Client)(nil)
)

// NewClient creates a backend client. A zero timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, logger logger.Interface) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (int, error) {
	return c.send(ctx, method, path, nil, in, out)
}

// send issues the request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses become backend errors carrying the body's error message.
func (c *Client) send(ctx context.Context, method, path string, header http.Header, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("backend request failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return 0, errors.NewBackendError(0, fmt.Sprintf("Backend request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		c.logger.Debugw("backend returned error status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", eb.Error,
		)
		return resp.StatusCode, errors.NewBackendError(resp.StatusCode, eb.Error)
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// ListUserSubscriptions returns the user's records. A non-array body is
// treated as an empty list.
func (c *Client) ListUserSubscriptions(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodGet, "/api/subscriptions/user/"+url.PathEscape(userID), nil, &raw); err != nil {
		return nil, err
	}

	var wire []wireSubscription
	if err := json.Unmarshal(raw, &wire); err != nil {
		c.logger.Warnw("unexpected subscriptions payload, treating as empty",
			"user_id", userID,
			"error", err,
		)
		return []*subscription.Subscription{}, nil
	}

	subs := make([]*subscription.Subscription, 0, len(wire))
	for i := range wire {
		sub, err := wire[i].toDomain()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// CreateSubscription records a subscription created by a direct transaction.
func (c *Client) CreateSubscription(ctx context.Context, req subscription.CreateRecordRequest) (*subscription.Subscription, error) {
	var wire wireSubscription
	if _, err := c.do(ctx, http.MethodPost, "/api/subscriptions", req, &wire); err != nil {
		return nil, err
	}
	return wire.toDomain()
}

// CancelSubscription marks the backend record cancelled.
func (c *Client) CancelSubscription(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPost, "/api/subscriptions/"+strconv.FormatInt(id, 10)+"/cancel", nil, nil)
	return err
}

// RelayCreate posts a signed CreateSubscription message for the relayer.
func (c *Client) RelayCreate(ctx context.Context, req subscription.RelayCreateRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/api/subscriptions/relay/create", req, nil)
	return err
}

// RelayCancel posts a signed CancelSubscription message for the relayer.
func (c *Client) RelayCancel(ctx context.Context, req subscription.RelayCancelRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/api/subscriptions/relay/cancel", req, nil)
	return err
}

// ListPlans returns every plan. A non-array body is treated as empty.
func (c *Client) ListPlans(ctx context.Context) ([]*subscription.Plan, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodGet, "/api/plans", nil, &raw); err != nil {
		return nil, err
	}
	var plans []*subscription.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return []*subscription.Plan{}, nil
	}
	return plans, nil
}

// GetPlan fetches one plan. Any non-2xx status is reported as not found.
func (c *Client) GetPlan(ctx context.Context, id string) (*subscription.Plan, error) {
	var plan subscription.Plan
	if _, err := c.do(ctx, http.MethodGet, "/api/plans/"+url.PathEscape(id), nil, &plan); err != nil {
		if errors.IsBackendError(err) {
			return nil, errors.NewNotFoundError("plan not found", id)
		}
		return nil, err
	}
	return &plan, nil
}

func adminHeader(auth subscription.AdminAuth) http.Header {
	h := http.Header{}
	h.Set("x-admin-signature", auth.Signature)
	h.Set("x-admin-address", auth.Address)
	return h
}

// CreatePlan creates a plan on behalf of an admin.
func (c *Client) CreatePlan(ctx context.Context, input subscription.PlanInput, auth subscription.AdminAuth) (*subscription.Plan, error) {
	var plan subscription.Plan
	if _, err := c.send(ctx, http.MethodPost, "/api/plans", adminHeader(auth), input, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan replaces the mutable fields of a plan.
func (c *Client) UpdatePlan(ctx context.Context, id string, input subscription.PlanInput, auth subscription.AdminAuth) (*subscription.Plan, error) {
	var plan subscription.Plan
	if _, err := c.send(ctx, http.MethodPut, "/api/plans/"+url.PathEscape(id), adminHeader(auth), input, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *Client) DeletePlan(ctx context.Context, id string, auth subscription.AdminAuth) error {
	_, err := c.send(ctx, http.MethodDelete, "/api/plans/"+url.PathEscape(id), adminHeader(auth), nil, nil)
	return err
}

// CheckAdmin reports whether address is a backend admin. Failures read as false.
func (c *Client) CheckAdmin(ctx context.Context, address string) bool {
	var out struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/admins/check/"+url.PathEscape(address), nil, &out); err != nil {
		return false
	}
	return out.IsAdmin
}

// wireSubscription accepts onChainSubscriptionId as a number, a decimal
// string or null.
type wireSubscription struct {
	subscription.Subscription
	OnChainSubscriptionID json.RawMessage `json:"onChainSubscriptionId"`
}

func (w *wireSubscription) toDomain() (*subscription.Subscription, error) {
	sub := w.Subscription
	id, err := parseUint256(w.OnChainSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("subscription %d: %w", sub.ID, err)
	}
	sub.OnChainSubscriptionID = id
	return &sub, nil
}

func parseUint256(raw json.RawMessage) (*big.Int, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, nil
	}
	text = strings.Trim(text, `"`)
	if text == "" {
		return nil, nil
	}
	id, ok := new(big.Int).SetString(text, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid onChainSubscriptionId %q", text)
	}
	return id, nil
}
