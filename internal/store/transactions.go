package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var transactionColumns = []string{
	"id", "user_id", "transaction_id", "amount", "merchant", "category",
	"date", "status", "is_emi", "emi_tenure", "emi_amount", "created_at",
}

// TransactionRepository reads and mutates card transactions.
type TransactionRepository struct {
	q       Querier
	timeout time.Duration
}

func NewTransactionRepository(q Querier) *TransactionRepository {
	return &TransactionRepository{q: q}
}

// RecentByUser returns the user's most recent transactions, newest first.
func (r *TransactionRepository) RecentByUser(ctx context.Context, userID string, limit uint64) ([]Transaction, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 10
	}
	return list[Transaction](ctx, r.q, r.timeout, qb.
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC").
		Limit(limit))
}

// EMIByUser returns the user's transactions currently on EMI.
func (r *TransactionRepository) EMIByUser(ctx context.Context, userID string) ([]Transaction, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return list[Transaction](ctx, r.q, r.timeout, qb.
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID, "is_emi": true}).
		OrderBy("date DESC"))
}

// GetByTransactionID returns one transaction scoped to the user.
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, userID, transactionID string) (*Transaction, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if transactionID == "" {
		return nil, errx.InvalidInput("transaction id is required")
	}
	return get[Transaction](ctx, r.q, r.timeout, qb.
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID, "transaction_id": transactionID}))
}

// MarkDisputed flags a transaction as disputed.
func (r *TransactionRepository) MarkDisputed(ctx context.Context, userID, transactionID string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if transactionID == "" {
		return errx.InvalidInput("transaction id is required")
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("transactions").
		Set("status", "disputed").
		Where(squirrel.Eq{"user_id": userID, "transaction_id": transactionID}))
}

// ConvertToEMI moves a transaction onto an EMI schedule.
func (r *TransactionRepository) ConvertToEMI(ctx context.Context, userID, transactionID string, tenureMonths int, emiAmount float64) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if transactionID == "" {
		return errx.InvalidInput("transaction id is required")
	}
	if tenureMonths <= 0 {
		return errx.InvalidInput("emi tenure must be positive")
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("transactions").
		Set("is_emi", true).
		Set("emi_tenure", tenureMonths).
		Set("emi_amount", emiAmount).
		Where(squirrel.Eq{"user_id": userID, "transaction_id": transactionID}))
}
