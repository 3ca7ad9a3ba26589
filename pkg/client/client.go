package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rmax-ai/schedgraph/pkg/domain"
)

// ErrNotFound matches a StatusError for a 404 response.
var ErrNotFound = errors.New("client: not found")

// StatusError is a non-2xx answer from the daemon.
type StatusError struct {
	StatusCode int
	// Code is the "error" field of the body, e.g. period_missing.
	Code string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client is the schedgraph daemon client.
type Client struct {
	endpoint string
	http     *http.Client
	retry    RetryPolicy
}

// NewClient creates a new client.
// endpoint defaults to "http://127.0.0.1:8091" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8091"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry: DefaultRetryPolicy(),
	}
}

// SetRetry replaces the retry policy; NoRetry disables retries.
func (c *Client) SetRetry(p RetryPolicy) {
	p.Retries = max(p.Retries, 0)
	c.retry = p
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	err := c.get(ctx, "/v1/health", nil, &status)
	return status, err
}

// Summary fetches counts, periods, technicians and work orders.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	err := c.get(ctx, "/v1/summary", nil, &summary)
	return summary, err
}

// Assignments lists the assignments touching a period or one of its days.
// With active set, retracted assignments are left out.
func (c *Client) Assignments(ctx context.Context, period domain.Period, active bool) (Assignments, error) {
	q := url.Values{}
	q.Set("period", period.String())
	if active {
		q.Set("active", "true")
	}
	var resp Assignments
	err := c.get(ctx, "/v1/assignments", q, &resp)
	return resp, err
}

// Capacity fetches the ledger view of a period.
func (c *Client) Capacity(ctx context.Context, period domain.Period) (Capacity, error) {
	q := url.Values{}
	q.Set("period", period.String())
	var resp Capacity
	err := c.get(ctx, "/v1/capacity", q, &resp)
	return resp, err
}

// WorkOrder fetches the activities, exclusions and parameter of a work order.
func (c *Client) WorkOrder(ctx context.Context, number domain.WorkOrderNumber) (WorkOrder, error) {
	q := url.Values{}
	q.Set("number", strconv.FormatUint(uint64(number), 10))
	var resp WorkOrder
	err := c.get(ctx, "/v1/work-order", q, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var waited time.Duration
	for n := 0; ; n++ {
		retry, err := c.do(ctx, target, out)
		if err == nil || !retry || n >= c.retry.Retries {
			return err
		}

		delay := c.retry.Delay(n + 1)
		if c.retry.Budget > 0 && waited+delay > c.retry.Budget {
			return err
		}
		waited += delay
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// do performs a single GET. It reports whether the failure is worth retrying.
func (c *Client) do(ctx context.Context, target string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode >= 500, &StatusError{StatusCode: resp.StatusCode, Code: body.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return false, nil
}
