package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/repository"
)

// RatingResult is the outcome of SubmitRating: the persisted rating and the store
// carrying its recomputed aggregate.
type RatingResult struct {
	Rating  domain.Rating
	Created bool
	Store   domain.Store
}

// SubmitRating records userID's rating of storeID, replacing any earlier rating by the
// same user, and recomputes the store's average and count in the same transaction.
func (s *Service) SubmitRating(ctx context.Context, userID, storeID int64, value int) (RatingResult, error) {
	if !domain.ValidRatingValue(value) {
		return RatingResult{}, apperr.Field("ratingValue", "Rating must be between 1 and 5")
	}
	if storeID <= 0 {
		return RatingResult{}, apperr.Field("storeId", "Valid store ID is required")
	}

	var result RatingResult
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		// Serialises concurrent raters of the same store.
		if _, err := tx.Stores.LockByID(ctx, storeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("Store not found")
			}
			return internal("Failed to submit rating", err)
		}

		rating, created, err := tx.Ratings.Upsert(ctx, repository.RatingUpsertParams{
			UserID:  userID,
			StoreID: storeID,
			Value:   value,
		})
		if err != nil {
			return internal("Failed to submit rating", err)
		}

		store, err := tx.Stores.RecalculateAggregate(ctx, storeID)
		if err != nil {
			return internal("Failed to submit rating", err)
		}

		result = RatingResult{Rating: rating, Created: created, Store: store}
		return nil
	})
	if err != nil {
		return RatingResult{}, err
	}

	s.metrics.RatingSubmitted(result.Created)
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"store_id": storeID,
		"created":  result.Created,
	}).Debug("rating submitted")
	return result, nil
}
