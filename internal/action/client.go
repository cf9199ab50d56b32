// Package action calls the downstream API that actually performs financial and
// account actions. The core treats it as at-least-once: once a call is
// dispatched there is no mid-flight cancellation, and a timeout is an unknown
// outcome, never assumed failed.
package action

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Result is the downstream API's verdict on an invoked action.
type Result struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"reference_id"`
	Error       string `json:"error,omitempty"`
}

// Invoker dispatches an approved action to the downstream API.
type Invoker interface {
	Invoke(ctx context.Context, actionName string, params map[string]any) (*Result, error)
}

// endpointPaths maps action names to downstream API paths.
var endpointPaths = map[string]string{
	"make_payment":            "/api/transactions",
	"schedule_payment":        "/api/transactions",
	"settle_overdue":          "/api/transactions",
	"dispute_transaction":     "/api/transactions",
	"convert_to_emi":          "/api/transactions",
	"update_email":            "/api/update-user",
	"update_phone":            "/api/update-user",
	"activate_card":           "/api/update-user",
	"block_card":              "/api/update-user",
	"unblock_card":            "/api/update-user",
	"update_delivery_address": "/api/deliveries",
	"reschedule_delivery":     "/api/deliveries",
	"email_statement":         "/api/statements",
	"request_payment_plan":    "/api/collections",
}

// HTTPInvoker calls the downstream API over HTTP with a bounded timeout.
type HTTPInvoker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPInvoker builds an invoker against the configured base URL.
func NewHTTPInvoker(cfg model.ActionAPIConfig) (*HTTPInvoker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid action api timeout %q: %w", cfg.Timeout, err)
	}
	return &HTTPInvoker{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Invoke implements Invoker. Transport failures return an error; a declared
// downstream refusal returns a Result with Success false. Timeouts return a
// downstream error flagged as unknown outcome.
func (i *HTTPInvoker) Invoke(ctx context.Context, actionName string, params map[string]any) (*Result, error) {
	path, ok := endpointPaths[actionName]
	if !ok {
		path = "/api/transactions"
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal action params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			logx.Error().Err(err).Str("action", actionName).Msg("Downstream action timed out, outcome unknown")
			return nil, errx.Downstream(err, "downstream action timed out, outcome unknown", true)
		}
		return nil, errx.Downstream(err, "downstream action call failed", false)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("downstream returned status %d", resp.StatusCode),
		}, nil
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errx.Downstream(err, "downstream response could not be decoded", false)
	}
	return &result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Invoker = (*HTTPInvoker)(nil)
