package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
)

var collectionColumns = []string{
	"id", "user_id", "overdue_amount", "days_overdue", "last_contact_date",
	"payment_plan_offered", "status", "notes", "created_at", "updated_at",
}

// CollectionRepository reads and mutates overdue account records.
type CollectionRepository struct {
	q       Querier
	timeout time.Duration
}

func NewCollectionRepository(q Querier) *CollectionRepository {
	return &CollectionRepository{q: q}
}

// GetByUser returns the user's collections record.
func (r *CollectionRepository) GetByUser(ctx context.Context, userID string) (*Collection, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return get[Collection](ctx, r.q, r.timeout, qb.
		Select(collectionColumns...).
		From("collections").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1))
}

// OfferPaymentPlan marks a payment plan as offered on the user's record.
func (r *CollectionRepository) OfferPaymentPlan(ctx context.Context, userID string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("collections").
		Set("payment_plan_offered", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": userID}))
}

// Settle resolves the collections record after a committed settlement payment.
func (r *CollectionRepository) Settle(ctx context.Context, userID string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("collections").
		Set("status", "resolved").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": userID}))
}
