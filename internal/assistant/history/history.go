// Package history persists per-user chat exchanges so the API layer can show
// recent context alongside new answers.
package history

import (
	"context"
	"time"

	"github.com/Cardassist-core-poc/server/internal/assistant/model"
)

// Exchange is one completed query/response round trip.
type Exchange struct {
	Query      string             `json:"query"`
	Modality   model.Modality     `json:"modality"`
	Kind       model.ResponseKind `json:"kind"`
	Message    string             `json:"message"`
	ProposalID string             `json:"proposal_id,omitempty"`
	At         time.Time          `json:"at"`
}

// Repository stores the rolling exchange history of a user.
type Repository interface {
	// Append records an exchange at the tail of the user's history.
	Append(ctx context.Context, userID string, e *Exchange) error

	// Recent returns up to limit most recent exchanges, oldest first.
	// A user with no history gets an empty slice, not an error.
	Recent(ctx context.Context, userID string, limit int) ([]*Exchange, error)

	// Clear drops the user's history.
	Clear(ctx context.Context, userID string) error
}
