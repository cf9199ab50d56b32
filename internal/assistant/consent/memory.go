package consent

import (
	"context"
	"sync"
	"time"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

// MemoryLedger is a process-local Ledger guarded by a single mutex. The mutex
// covers both the check-and-insert on (user_id, action_name) and every state
// transition, which gives the required atomicity.
type MemoryLedger struct {
	mu        sync.Mutex
	proposals map[string]*model.ActionProposal
	pending   map[pendingKey]string

	now func() time.Time
}

type pendingKey struct {
	userID string
	action string
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		proposals: make(map[string]*model.ActionProposal),
		pending:   make(map[pendingKey]string),
		now:       time.Now,
	}
}

// Register implements Ledger.
func (l *MemoryLedger) Register(_ context.Context, p *model.ActionProposal) (string, error) {
	if p == nil || p.ProposalID == "" {
		return "", errx.InvalidInput("proposal with id is required")
	}
	if p.Status != model.ProposalPending {
		return "", errx.InvalidState("only pending proposals can be registered")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := pendingKey{userID: p.UserID, action: p.ActionName}
	if existingID, ok := l.pending[key]; ok {
		existing := l.proposals[existingID]
		if existing != nil && existing.Status == model.ProposalPending {
			if l.now().Before(existing.ExpiresAt) {
				// Idempotent collapse: reuse the pending proposal.
				return existing.ProposalID, nil
			}
			existing.Status = model.ProposalExpired
		}
		delete(l.pending, key)
	}

	l.proposals[p.ProposalID] = p.Clone()
	l.pending[key] = p.ProposalID
	return p.ProposalID, nil
}

// Resolve implements Ledger.
func (l *MemoryLedger) Resolve(_ context.Context, proposalID string, decision Decision) (*model.ActionProposal, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, errx.InvalidInput("decision must be approve or reject")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[proposalID]
	if !ok {
		return nil, errx.NotFound(nil, "unknown proposal id")
	}
	if p.Status != model.ProposalPending {
		return nil, errx.AlreadyResolved("this request is no longer valid")
	}

	key := pendingKey{userID: p.UserID, action: p.ActionName}

	if !l.now().Before(p.ExpiresAt) {
		p.Status = model.ProposalExpired
		delete(l.pending, key)
		return nil, errx.Expired("this request is no longer valid")
	}

	if decision == DecisionApprove {
		p.Status = model.ProposalApproved
	} else {
		p.Status = model.ProposalRejected
	}
	delete(l.pending, key)
	return p.Clone(), nil
}

// MarkExecuted implements Ledger.
func (l *MemoryLedger) MarkExecuted(_ context.Context, proposalID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[proposalID]
	if !ok {
		return errx.NotFound(nil, "unknown proposal id")
	}
	if p.Status != model.ProposalApproved {
		return errx.InvalidState("only approved proposals can be marked executed")
	}
	p.Status = model.ProposalExecuted
	return nil
}

// Get implements Ledger.
func (l *MemoryLedger) Get(_ context.Context, proposalID string) (*model.ActionProposal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[proposalID]
	if !ok {
		return nil, errx.NotFound(nil, "unknown proposal id")
	}
	return p.Clone(), nil
}

var _ Ledger = (*MemoryLedger)(nil)
