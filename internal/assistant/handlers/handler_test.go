package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"

	"github.com/Cardassist-core-poc/server/internal/action"
	"github.com/Cardassist-core-poc/server/internal/store"
)

// fakeInvoker replays a fixed result or error and records every call.
type fakeInvoker struct {
	mu     sync.Mutex
	result *action.Result
	err    error
	calls  []invocation
}

type invocation struct {
	action string
	params map[string]any
}

func (f *fakeInvoker) Invoke(_ context.Context, actionName string, params map[string]any) (*action.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, invocation{action: actionName, params: params})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeNotifier pushes delivered messages onto a channel so tests can wait for
// the async notification.
type fakeNotifier struct {
	messages chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{messages: make(chan string, 4)}
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, message string) error {
	f.messages <- message
	return nil
}

func (f *fakeNotifier) await(t *testing.T) string {
	t.Helper()
	select {
	case m := <-f.messages:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}

// newTestDeps wires handlers against a pgxmock-backed store and the fakes.
func newTestDeps(t *testing.T, invoker *fakeInvoker) (Deps, pgxmock.PgxPoolIface, *fakeNotifier) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	notifier := newFakeNotifier()
	return Deps{
		Store:       store.New(mock, 0),
		Invoker:     invoker,
		Notifier:    notifier,
		ProposalTTL: 10 * time.Minute,
	}, mock, notifier
}
