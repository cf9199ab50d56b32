package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

var deliveryColumns = []string{
	"id", "user_id", "tracking_number", "status", "address",
	"estimated_delivery", "actual_delivery", "created_at",
}

// DeliveryRepository reads and mutates card delivery tracking rows.
type DeliveryRepository struct {
	q       Querier
	timeout time.Duration
}

func NewDeliveryRepository(q Querier) *DeliveryRepository {
	return &DeliveryRepository{q: q}
}

// LatestByUser returns the most recent delivery for the user.
func (r *DeliveryRepository) LatestByUser(ctx context.Context, userID string) (*CardDelivery, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	return get[CardDelivery](ctx, r.q, r.timeout, qb.
		Select(deliveryColumns...).
		From("card_deliveries").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(1))
}

// UpdateAddress changes the delivery address on the user's latest shipment.
func (r *DeliveryRepository) UpdateAddress(ctx context.Context, userID, address string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	if address == "" {
		return errx.InvalidInput("address is required")
	}
	return exec(ctx, r.q, r.timeout, qb.
		Update("card_deliveries").
		Set("address", address).
		Where(squirrel.Expr(
			"id = (SELECT id FROM card_deliveries WHERE user_id = ? ORDER BY created_at DESC LIMIT 1)",
			userID,
		)))
}
