// Package consent tracks proposed actions from registration until the user
// approves, rejects, or lets them expire. Proposal lifecycle:
//
//	pending -> approved | rejected | expired
//	approved -> executed
//
// An execution attempt is terminal for the ledger even when the downstream
// call failed; a retry requires a fresh proposal.
package consent

import (
	"context"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
)

// Decision is the user's answer to a consent prompt.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Ledger owns every registered proposal until it reaches a terminal state.
//
// At most one pending proposal may exist per (user_id, action_name) pair:
// registering a duplicate while the first is pending returns the existing
// proposal id rather than creating a second ledger entry. Per-proposal state
// transitions are atomic under concurrent access; the first resolver wins and
// later ones get an already-resolved error.
type Ledger interface {
	// Register stores a pending proposal and returns its id, or the id of an
	// already-pending proposal for the same (user_id, action_name).
	Register(ctx context.Context, p *model.ActionProposal) (string, error)

	// Resolve applies the user's decision. It fails with NotFound for unknown
	// ids, AlreadyResolved for non-pending proposals, and Expired once the
	// deadline passed (transitioning the proposal to expired as a side effect).
	Resolve(ctx context.Context, proposalID string, decision Decision) (*model.ActionProposal, error)

	// MarkExecuted retires an approved proposal after the execution attempt,
	// regardless of the attempt's success.
	MarkExecuted(ctx context.Context, proposalID string) error

	// Get returns the proposal in its current state.
	Get(ctx context.Context, proposalID string) (*model.ActionProposal, error)
}
