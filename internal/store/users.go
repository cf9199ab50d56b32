package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var userColumns = []string{
	"id", "user_id", "name", "email", "phone", "card_number", "card_status",
	"credit_limit", "available_credit", "is_active", "created_at", "last_login",
}

// UserRepository reads and mutates cardholder accounts.
type UserRepository struct {
	q       Querier
	timeout time.Duration
}

func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

// GetByID returns the user scoped to the given external user id.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*User, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return get[User](ctx, r.q, r.timeout, qb.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"user_id": userID}))
}

// UpdateCardStatus sets the card status (active, blocked, expired).
func (r *UserRepository) UpdateCardStatus(ctx context.Context, userID, status string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if status == "" {
		return errx.InvalidInput("card status is required")
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("users").
		Set("card_status", status).
		Where(squirrel.Eq{"user_id": userID}))
}

// UpdateContact changes the registered email and/or phone. Nil fields are left
// untouched.
func (r *UserRepository) UpdateContact(ctx context.Context, userID string, email, phone *string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if email == nil && phone == nil {
		return errx.InvalidInput("nothing to update")
	}
	update := qb.Update("users").Where(squirrel.Eq{"user_id": userID})
	if email != nil {
		update = update.Set("email", *email)
	}
	if phone != nil {
		update = update.Set("phone", *phone)
	}
	return exec(ctx, r.q, r.timeout, update)
}

// DebitAvailableCredit reduces available credit after a committed spend.
func (r *UserRepository) DebitAvailableCredit(ctx context.Context, userID string, amount float64) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("users").
		Set("available_credit", squirrel.Expr("available_credit - ?", amount)).
		Where(squirrel.Eq{"user_id": userID}))
}

// CreditAvailableCredit restores available credit after a committed repayment.
func (r *UserRepository) CreditAvailableCredit(ctx context.Context, userID string, amount float64) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("users").
		Set("available_credit", squirrel.Expr("available_credit + ?", amount)).
		Where(squirrel.Eq{"user_id": userID}))
}
