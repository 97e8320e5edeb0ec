package domain

import "time"

// Store is a rated entity. AverageRating is nil until the first rating arrives.
type Store struct {
	ID            int64
	Name          string
	Email         string
	Address       string
	OwnerID       int64
	AverageRating *float64
	RatingCount   int64
	Owner         *OwnerSummary
	UserRating    *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwnerSummary is the nested view of a store's owner in admin listings.
type OwnerSummary struct {
	ID    int64
	Name  string
	Email string
}
