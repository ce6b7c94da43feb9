package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mindsy/internal/models"
)

type SubscriptionRepo struct {
	db *DB
}

func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Upsert mirrors payment-provider state; webhooks are the only writer.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s models.Subscription) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO subscriptions (user_id, tier, stripe_customer_id, stripe_subscription_id, current_period_start, current_period_end, updated_at)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, NOW())
ON CONFLICT (user_id)
DO UPDATE SET
  tier = EXCLUDED.tier,
  stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, subscriptions.stripe_customer_id),
  stripe_subscription_id = COALESCE(EXCLUDED.stripe_subscription_id, subscriptions.stripe_subscription_id),
  current_period_start = EXCLUDED.current_period_start,
  current_period_end = EXCLUDED.current_period_end,
  updated_at = NOW()`,
		s.UserID, s.Tier, s.StripeCustomerID, s.StripeSubID, s.CurrentPeriodStart, s.CurrentPeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) GetByUser(ctx context.Context, userID string) (models.Subscription, error) {
	var s models.Subscription
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, tier, COALESCE(stripe_customer_id,''), COALESCE(stripe_subscription_id,''),
       current_period_start, current_period_end, updated_at
FROM subscriptions WHERE user_id=$1`, userID).
		Scan(&s.UserID, &s.Tier, &s.StripeCustomerID, &s.StripeSubID, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Subscription{}, ErrNotFound
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return s, nil
}

func (r *SubscriptionRepo) UserIDForCustomer(ctx context.Context, customerID string) (string, error) {
	var userID string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id FROM subscriptions WHERE stripe_customer_id=$1`, customerID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup customer: %w", err)
	}
	return userID, nil
}
