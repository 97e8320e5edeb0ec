package service

import (
	"context"
	"errors"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/repository"
)

// AdminStats are the platform-wide totals shown on the admin dashboard.
type AdminStats struct {
	TotalUsers   int64
	TotalStores  int64
	TotalRatings int64
}

// OwnerView is a store owner's view of their store and its ratings.
type OwnerView struct {
	Store   domain.Store
	Ratings []domain.RaterRating
}

// AdminDashboard counts users, stores and ratings.
func (s *Service) AdminDashboard(ctx context.Context) (AdminStats, error) {
	var (
		stats AdminStats
		err   error
	)
	if stats.TotalUsers, err = s.repo.Users.Count(ctx); err != nil {
		return AdminStats{}, internal("Failed to fetch dashboard data", err)
	}
	if stats.TotalStores, err = s.repo.Stores.Count(ctx); err != nil {
		return AdminStats{}, internal("Failed to fetch dashboard data", err)
	}
	if stats.TotalRatings, err = s.repo.Ratings.Count(ctx); err != nil {
		return AdminStats{}, internal("Failed to fetch dashboard data", err)
	}
	return stats, nil
}

// OwnerDashboard returns the store owned by ownerID with every rating, newest first.
func (s *Service) OwnerDashboard(ctx context.Context, ownerID int64) (OwnerView, error) {
	store, err := s.repo.Stores.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return OwnerView{}, apperr.NotFound("No store found for this owner")
		}
		return OwnerView{}, internal("Failed to fetch dashboard data", err)
	}

	ratings, err := s.repo.Ratings.ListForStore(ctx, store.ID)
	if err != nil {
		return OwnerView{}, internal("Failed to fetch dashboard data", err)
	}
	return OwnerView{Store: store, Ratings: ratings}, nil
}
