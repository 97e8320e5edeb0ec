package repository

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/store-ratings/internal/domain"
)

// RatingsRepository provides helpers for store ratings.
type RatingsRepository struct {
	db DBTX
}

// RatingUpsertParams captures the payload required to upsert a rating.
type RatingUpsertParams struct {
	UserID  int64
	StoreID int64
	Value   int
}

// Upsert inserts or updates a rating and indicates whether it was newly created.
func (r *RatingsRepository) Upsert(ctx context.Context, params RatingUpsertParams) (domain.Rating, bool, error) {
	const query = `
        INSERT INTO ratings (user_id, store_id, rating_value)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, store_id)
        DO UPDATE SET rating_value = EXCLUDED.rating_value, updated_at = now()
        RETURNING id, user_id, store_id, rating_value, created_at, updated_at, (xmax = 0) AS inserted
    `

	var rating domain.Rating
	var inserted bool
	err := r.db.QueryRow(ctx, query, params.UserID, params.StoreID, params.Value).Scan(
		&rating.ID,
		&rating.UserID,
		&rating.StoreID,
		&rating.Value,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Rating{}, false, translate(err)
	}

	return rating, inserted, nil
}

// Aggregate returns the rounded rating average and count for a store.
func (r *RatingsRepository) Aggregate(ctx context.Context, storeID int64) (domain.RatingAggregate, error) {
	const query = `
        SELECT ROUND(AVG(rating_value)::numeric, 1)::float8 AS average,
               COUNT(*)::int8 AS count
        FROM ratings
        WHERE store_id = $1
    `

	var agg domain.RatingAggregate
	err := r.db.QueryRow(ctx, query, storeID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

// Get retrieves a rating for a specific user/store combination.
func (r *RatingsRepository) Get(ctx context.Context, userID, storeID int64) (domain.Rating, error) {
	const query = `
        SELECT id, user_id, store_id, rating_value, created_at, updated_at
        FROM ratings
        WHERE user_id = $1 AND store_id = $2
    `
	var rating domain.Rating
	err := r.db.QueryRow(ctx, query, userID, storeID).Scan(
		&rating.ID,
		&rating.UserID,
		&rating.StoreID,
		&rating.Value,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		return domain.Rating{}, translate(err)
	}
	return rating, nil
}

// ValuesByUser returns the user's rating value per store, limited to storeIDs,
// in a single query.
func (r *RatingsRepository) ValuesByUser(ctx context.Context, userID int64, storeIDs []int64) (map[int64]int, error) {
	values := make(map[int64]int, len(storeIDs))
	if len(storeIDs) == 0 {
		return values, nil
	}

	const query = `
        SELECT store_id, rating_value
        FROM ratings
        WHERE user_id = $1 AND store_id = ANY($2)
    `
	rows, err := r.db.Query(ctx, query, userID, storeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var storeID int64
		var value int
		if err := rows.Scan(&storeID, &value); err != nil {
			return nil, err
		}
		values[storeID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// ListForStore returns every rating for a store with the rater's identity, newest first.
func (r *RatingsRepository) ListForStore(ctx context.Context, storeID int64) ([]domain.RaterRating, error) {
	const query = `
        SELECT r.id, r.user_id, u.name, u.email, r.rating_value, r.created_at, r.updated_at
        FROM ratings r
        JOIN users u ON u.id = r.user_id
        WHERE r.store_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `
	rows, err := r.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]domain.RaterRating, 0)
	for rows.Next() {
		var rating domain.RaterRating
		if err := rows.Scan(
			&rating.ID,
			&rating.UserID,
			&rating.UserName,
			&rating.UserEmail,
			&rating.Value,
			&rating.CreatedAt,
			&rating.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

// Count returns the number of ratings across all stores.
func (r *RatingsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n)
	return n, err
}
