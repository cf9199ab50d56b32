package consent

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

func newRedisLedger(t *testing.T) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLedger(rdb, time.Hour), mr
}

func TestRedisLedgerRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t)

	p := newProposal("USER001", "make_payment", 10*time.Minute)
	id, err := l.Register(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p.ProposalID, id)

	assert.True(t, mr.Exists("proposal:"+id))
	assert.True(t, mr.Exists("proposal:pending:USER001:make_payment"))

	got, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalPending, got.Status)
	assert.Equal(t, "make_payment", got.ActionName)
	assert.Equal(t, 5000.0, got.ActionParams["amount"])
	assert.WithinDuration(t, p.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestRedisLedgerGetUnknown(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLedger(t)

	_, err := l.Get(ctx, "no-such-id")
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestRedisLedgerCollapsesDuplicatePending(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLedger(t)

	first := newProposal("USER001", "make_payment", 10*time.Minute)
	firstID, err := l.Register(ctx, first)
	require.NoError(t, err)

	second := newProposal("USER001", "make_payment", 10*time.Minute)
	secondID, err := l.Register(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID, "duplicate pending must reuse the first proposal")

	other := newProposal("USER001", "block_card", 10*time.Minute)
	otherID, err := l.Register(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, otherID)
}

func TestRedisLedgerRejectsExpiredRegistration(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLedger(t)

	stale := newProposal("USER001", "make_payment", -time.Minute)
	_, err := l.Register(ctx, stale)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidInput))
}

func TestRedisLedgerResolveApprove(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t)

	p := newProposal("USER001", "make_payment", 10*time.Minute)
	id, err := l.Register(ctx, p)
	require.NoError(t, err)

	approved, err := l.Resolve(ctx, id, DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalApproved, approved.Status)

	// the pending slot is released on resolution
	assert.False(t, mr.Exists("proposal:pending:USER001:make_payment"))

	_, err = l.Resolve(ctx, id, DecisionReject)
	assert.True(t, errx.IsKind(err, errx.KindAlreadyResolved))
}

func TestRedisLedgerResolveExpiredProposal(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLedger(t)

	p := newProposal("USER001", "make_payment", 20*time.Millisecond)
	id, err := l.Register(ctx, p)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = l.Resolve(ctx, id, DecisionApprove)
	assert.True(t, errx.IsKind(err, errx.KindExpired))

	got, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalExpired, got.Status)
}

func TestRedisLedgerReRegisterAfterDecision(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLedger(t)

	p := newProposal("USER001", "make_payment", 10*time.Minute)
	id, err := l.Register(ctx, p)
	require.NoError(t, err)

	_, err = l.Resolve(ctx, id, DecisionReject)
	require.NoError(t, err)

	next := newProposal("USER001", "make_payment", 10*time.Minute)
	nextID, err := l.Register(ctx, next)
	require.NoError(t, err)
	assert.NotEqual(t, id, nextID)
}

func TestRedisLedgerMarkExecuted(t *testing.T) {
	ctx := context.Background()
	l, _ := newRedisLedger(t)

	p := newProposal("USER001", "make_payment", 10*time.Minute)
	id, err := l.Register(ctx, p)
	require.NoError(t, err)

	err = l.MarkExecuted(ctx, id)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))

	_, err = l.Resolve(ctx, id, DecisionApprove)
	require.NoError(t, err)

	require.NoError(t, l.MarkExecuted(ctx, id))

	got, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalExecuted, got.Status)

	err = l.MarkExecuted(ctx, id)
	assert.True(t, errx.IsKind(err, errx.KindInvalidState))
}
