package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var repaymentColumns = []string{
	"id", "user_id", "repayment_id", "amount", "payment_method", "status",
	"payment_date", "bill_id", "created_at",
}

// RepaymentRepository reads and records payments.
type RepaymentRepository struct {
	q       Querier
	timeout time.Duration
}

func NewRepaymentRepository(q Querier) *RepaymentRepository {
	return &RepaymentRepository{q: q}
}

// RecentByUser returns the user's most recent repayments, newest first.
func (r *RepaymentRepository) RecentByUser(ctx context.Context, userID string, limit uint64) ([]Repayment, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = 10
	}
	return list[Repayment](ctx, r.q, r.timeout, qb.
		Select(repaymentColumns...).
		From("repayments").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("payment_date DESC").
		Limit(limit))
}

// Insert records a committed repayment.
func (r *RepaymentRepository) Insert(ctx context.Context, p *Repayment) error {
	if p == nil {
		return errx.InvalidInput("repayment is required")
	}
	if err := requireUserID(p.UserID); err != nil {
		return err
	}
	if p.Amount <= 0 {
		return errx.InvalidInput("repayment amount must be positive")
	}
	sql, args, err := qb.
		Insert("repayments").
		Columns("user_id", "repayment_id", "amount", "payment_method", "status", "payment_date", "bill_id").
		Values(p.UserID, p.RepaymentID, p.Amount, p.PaymentMethod, p.Status, p.PaymentDate, p.BillID).
		ToSql()
	if err != nil {
		return err
	}
	ctx, cancel := bound(ctx, r.timeout)
	defer cancel()
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return errx.WrapPg(err)
	}
	return nil
}
