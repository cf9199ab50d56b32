package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// resolveRetries bounds optimistic-lock retries against concurrent writers.
const resolveRetries = 3

// RedisLedger stores proposals in Redis so consent survives process restarts
// and is shared across instances. The pending-duplicate guard is a SETNX key
// per (user_id, action_name); per-proposal transitions run under WATCH so the
// first writer wins.
type RedisLedger struct {
	rdb       *redis.Client
	recordTTL time.Duration
}

// NewRedisLedger creates a ledger over the given client. recordTTL bounds how
// long resolved proposals stay readable.
func NewRedisLedger(rdb *redis.Client, recordTTL time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, recordTTL: recordTTL}
}

func proposalKey(proposalID string) string {
	return fmt.Sprintf("proposal:%s", proposalID)
}

func pendingIndexKey(userID, actionName string) string {
	return fmt.Sprintf("proposal:pending:%s:%s", userID, actionName)
}

// Register implements Ledger.
func (l *RedisLedger) Register(ctx context.Context, p *model.ActionProposal) (string, error) {
	if p == nil || p.ProposalID == "" {
		return "", errx.InvalidInput("proposal with id is required")
	}
	if p.Status != model.ProposalPending {
		return "", errx.InvalidState("only pending proposals can be registered")
	}

	idxKey := pendingIndexKey(p.UserID, p.ActionName)
	pendingTTL := time.Until(p.ExpiresAt)
	if pendingTTL <= 0 {
		return "", errx.InvalidInput("proposal already expired")
	}

	ok, err := l.rdb.SetNX(ctx, idxKey, p.ProposalID, pendingTTL).Result()
	if err != nil {
		return "", errx.WrapRedis(err)
	}
	if !ok {
		// A pending proposal for this (user, action) exists: reuse its id. The
		// index key expires in lockstep with the proposal deadline, so a hit
		// here means the earlier proposal is still approvable.
		existingID, err := l.rdb.Get(ctx, idxKey).Result()
		if err == nil && existingID != "" {
			return existingID, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			return "", errx.WrapRedis(err)
		}
		// Index vanished between SETNX and GET; claim it for this proposal.
		if err := l.rdb.Set(ctx, idxKey, p.ProposalID, pendingTTL).Err(); err != nil {
			return "", errx.WrapRedis(err)
		}
	}

	if err := l.writeProposal(ctx, p); err != nil {
		return "", err
	}
	return p.ProposalID, nil
}

// Resolve implements Ledger.
func (l *RedisLedger) Resolve(ctx context.Context, proposalID string, decision Decision) (*model.ActionProposal, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, errx.InvalidInput("decision must be approve or reject")
	}

	var resolved *model.ActionProposal
	var resolveErr error

	txn := func(tx *redis.Tx) error {
		p, err := l.readProposal(ctx, tx, proposalID)
		if err != nil {
			resolveErr = err
			return nil
		}
		if p.Status != model.ProposalPending {
			resolveErr = errx.AlreadyResolved("this request is no longer valid")
			return nil
		}

		idxKey := pendingIndexKey(p.UserID, p.ActionName)

		if !time.Now().Before(p.ExpiresAt) {
			p.Status = model.ProposalExpired
			resolveErr = errx.Expired("this request is no longer valid")
			return l.writeInTx(ctx, tx, p, idxKey)
		}

		if decision == DecisionApprove {
			p.Status = model.ProposalApproved
		} else {
			p.Status = model.ProposalRejected
		}
		resolved = p
		return l.writeInTx(ctx, tx, p, idxKey)
	}

	for attempt := 0; attempt < resolveRetries; attempt++ {
		resolved, resolveErr = nil, nil
		err := l.rdb.Watch(ctx, txn, proposalKey(proposalID))
		if errors.Is(err, redis.TxFailedErr) {
			logx.Debug().Str("proposal_id", proposalID).Msg("Concurrent resolve detected, retrying")
			continue
		}
		if err != nil {
			return nil, errx.WrapRedis(err)
		}
		return resolved, resolveErr
	}
	return nil, errx.AlreadyResolved("this request is no longer valid")
}

// MarkExecuted implements Ledger.
func (l *RedisLedger) MarkExecuted(ctx context.Context, proposalID string) error {
	var markErr error

	txn := func(tx *redis.Tx) error {
		p, err := l.readProposal(ctx, tx, proposalID)
		if err != nil {
			markErr = err
			return nil
		}
		if p.Status != model.ProposalApproved {
			markErr = errx.InvalidState("only approved proposals can be marked executed")
			return nil
		}
		p.Status = model.ProposalExecuted
		return l.writeInTx(ctx, tx, p, "")
	}

	for attempt := 0; attempt < resolveRetries; attempt++ {
		markErr = nil
		err := l.rdb.Watch(ctx, txn, proposalKey(proposalID))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return errx.WrapRedis(err)
		}
		return markErr
	}
	return errx.InvalidState("could not mark proposal executed")
}

// Get implements Ledger.
func (l *RedisLedger) Get(ctx context.Context, proposalID string) (*model.ActionProposal, error) {
	return l.readProposal(ctx, l.rdb, proposalID)
}

func (l *RedisLedger) readProposal(ctx context.Context, c redis.Cmdable, proposalID string) (*model.ActionProposal, error) {
	raw, err := c.Get(ctx, proposalKey(proposalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errx.NotFound(err, "unknown proposal id")
		}
		return nil, errx.WrapRedis(err)
	}
	var p model.ActionProposal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal proposal %s: %w", proposalID, err)
	}
	return &p, nil
}

func (l *RedisLedger) writeProposal(ctx context.Context, p *model.ActionProposal) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	if err := l.rdb.Set(ctx, proposalKey(p.ProposalID), b, l.recordTTL).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (l *RedisLedger) writeInTx(ctx context.Context, tx *redis.Tx, p *model.ActionProposal, dropIndexKey string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, proposalKey(p.ProposalID), b, l.recordTTL)
		if dropIndexKey != "" {
			pipe.Del(ctx, dropIndexKey)
		}
		return nil
	})
	return err
}

var _ Ledger = (*RedisLedger)(nil)
