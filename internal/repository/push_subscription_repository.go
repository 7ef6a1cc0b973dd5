package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// PushSubscriptionRepository stores browser push endpoints.
type PushSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepository constructs the repository.
func NewPushSubscriptionRepository(db *sqlx.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert saves the subscription keyed by endpoint. A browser re-subscribing moves the endpoint to the new owner.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) (*models.PushSubscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	const query = `INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (endpoint)
DO UPDATE SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, updated_at = EXCLUDED.updated_at
RETURNING id, user_id, endpoint, p256dh, auth, created_at, updated_at`
	var stored models.PushSubscription
	if err := r.db.GetContext(ctx, &stored, query, sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt, sub.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	return &stored, nil
}

// ListByUser returns the user's subscriptions.
func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	const query = `SELECT id, user_id, endpoint, p256dh, auth, created_at, updated_at FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at DESC`
	var subs []models.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}
