package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var billColumns = []string{
	"id", "user_id", "bill_id", "bill_date", "due_date", "total_amount",
	"minimum_due", "paid_amount", "status", "statement_pdf_url", "created_at",
}

// BillRepository reads and mutates monthly statements.
type BillRepository struct {
	q       Querier
	timeout time.Duration
}

func NewBillRepository(q Querier) *BillRepository {
	return &BillRepository{q: q}
}

// LatestByUser returns the user's most recent bill.
func (r *BillRepository) LatestByUser(ctx context.Context, userID string) (*Bill, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return get[Bill](ctx, r.q, r.timeout, qb.
		Select(billColumns...).
		From("bills").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("bill_date DESC").
		Limit(1))
}

// LatestOverdueByUser returns the user's most recent overdue bill.
func (r *BillRepository) LatestOverdueByUser(ctx context.Context, userID string) (*Bill, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return get[Bill](ctx, r.q, r.timeout, qb.
		Select(billColumns...).
		From("bills").
		Where(squirrel.Eq{"user_id": userID, "status": "overdue"}).
		OrderBy("due_date DESC").
		Limit(1))
}

// RecordPayment adds a committed repayment amount to the bill's paid total and
// marks it paid once covered.
func (r *BillRepository) RecordPayment(ctx context.Context, userID, billID string, amount float64) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if billID == "" {
		return errx.InvalidInput("bill id is required")
	}
	if amount <= 0 {
		return errx.InvalidInput("payment amount must be positive")
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("bills").
		Set("paid_amount", squirrel.Expr("paid_amount + ?", amount)).
		Set("status", squirrel.Expr(
			"CASE WHEN paid_amount + ? >= total_amount THEN 'paid' ELSE status END", amount,
		)).
		Where(squirrel.Eq{"user_id": userID, "bill_id": billID}))
}
