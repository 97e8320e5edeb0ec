package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating represents a single user's rating for a store.
type Rating struct {
	ID        int64
	UserID    int64
	StoreID   int64
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingAggregate provides the rounded average and count for a store's ratings.
// Average is nil when Count is zero.
type RatingAggregate struct {
	Average *float64
	Count   int64
}

// RaterRating is a rating joined with the rater's identity, used by owner dashboards.
type RaterRating struct {
	ID        int64
	UserID    int64
	UserName  string
	UserEmail string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRatingValue reports whether v is an allowed star value.
func ValidRatingValue(v int) bool {
	return v >= MinRating && v <= MaxRating
}
