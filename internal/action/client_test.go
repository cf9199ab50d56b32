package action

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

func newInvoker(t *testing.T, baseURL, timeout string) *HTTPInvoker {
	t.Helper()
	inv, err := NewHTTPInvoker(model.ActionAPIConfig{BaseURL: baseURL, Timeout: timeout})
	require.NoError(t, err)
	return inv
}

func TestInvokeSuccess(t *testing.T) {
	var gotPath string
	var gotParams map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotParams))
		json.NewEncoder(w).Encode(Result{Success: true, ReferenceID: "REF-9"})
	}))
	defer srv.Close()

	inv := newInvoker(t, srv.URL, "2s")
	res, err := inv.Invoke(context.Background(), "make_payment", map[string]any{
		"user_id": "USER001",
		"amount":  5000.0,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "REF-9", res.ReferenceID)
	assert.Equal(t, "/api/transactions", gotPath)
	assert.Equal(t, "USER001", gotParams["user_id"])
}

func TestInvokeRoutesByActionName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Result{Success: true})
	}))
	defer srv.Close()

	inv := newInvoker(t, srv.URL, "2s")

	cases := map[string]string{
		"block_card":              "/api/update-user",
		"update_delivery_address": "/api/deliveries",
		"email_statement":         "/api/statements",
		"request_payment_plan":    "/api/collections",
		"something_unmapped":      "/api/transactions",
	}
	for actionName, wantPath := range cases {
		_, err := inv.Invoke(context.Background(), actionName, nil)
		require.NoError(t, err)
		assert.Equal(t, wantPath, gotPath, actionName)
	}
}

func TestInvokeNon2xxIsDeclaredFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	inv := newInvoker(t, srv.URL, "2s")
	res, err := inv.Invoke(context.Background(), "make_payment", nil)
	require.NoError(t, err, "a declared refusal is a result, not an error")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "400")
}

func TestInvokeTimeoutIsUnknownOutcome(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	inv := newInvoker(t, srv.URL, "100ms")
	_, err := inv.Invoke(context.Background(), "make_payment", nil)
	require.Error(t, err)
	assert.True(t, errx.OutcomeUnknown(err), "a timeout must never be reported as plain failure")
	assert.True(t, errx.IsKind(err, errx.KindDownstreamAction))
}

func TestInvokeConnectionRefusedIsKnownFailure(t *testing.T) {
	// a port nothing listens on
	inv := newInvoker(t, "http://127.0.0.1:1", "2s")
	_, err := inv.Invoke(context.Background(), "make_payment", nil)
	require.Error(t, err)
	assert.False(t, errx.OutcomeUnknown(err), "connection refused means the action never started")
}

func TestInvokeDeadlineFromContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	inv := newInvoker(t, srv.URL, "10s")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := inv.Invoke(ctx, "make_payment", nil)
	require.Error(t, err)
	assert.True(t, errx.OutcomeUnknown(err))
}
