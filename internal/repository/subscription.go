package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelichko/storefront/internal/model"
)

type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *model.RestockSubscription) error
	ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]model.RestockSubscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgSubscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &pgSubscriptionRepo{pool: pool}
}

func (r *pgSubscriptionRepo) Upsert(ctx context.Context, sub *model.RestockSubscription) error {
	sub.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO restock_subscriptions (id, product_id, email, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (product_id, email) DO UPDATE SET created_at = restock_subscriptions.created_at
		 RETURNING id, created_at`,
		sub.ID, sub.ProductID, sub.Email,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *pgSubscriptionRepo) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]model.RestockSubscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, email, created_at FROM restock_subscriptions
		 WHERE product_id = ANY($1) ORDER BY created_at`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.RestockSubscription
	for rows.Next() {
		var s model.RestockSubscription
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}

func (r *pgSubscriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM restock_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
