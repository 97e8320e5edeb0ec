package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/repository"
)

// StoreQuery holds raw store listing parameters as received from the caller.
type StoreQuery struct {
	// Search matches name or address.
	Search    *string
	Name      *string
	Email     *string
	Address   *string
	SortBy    string
	SortOrder string
}

// UserQuery holds raw user listing parameters as received from the caller.
type UserQuery struct {
	// Search matches name, email or address.
	Search    *string
	Name      *string
	Email     *string
	Address   *string
	Role      string
	SortBy    string
	SortOrder string
}

// ListStores is the user-facing store listing. It sorts by name unless told otherwise and,
// when requesterID is set, annotates every store with that user's own rating.
func (s *Service) ListStores(ctx context.Context, q StoreQuery, requesterID *int64) ([]domain.Store, error) {
	filters, err := storeFilters(q, repository.StoreSortName, repository.SortAsc)
	if err != nil {
		return nil, err
	}
	stores, err := s.repo.Stores.List(ctx, filters)
	if err != nil {
		return nil, internal("Failed to fetch stores", err)
	}
	if requesterID == nil || len(stores) == 0 {
		return stores, nil
	}

	ids := make([]int64, len(stores))
	for i, st := range stores {
		ids[i] = st.ID
	}
	values, err := s.repo.Ratings.ValuesByUser(ctx, *requesterID, ids)
	if err != nil {
		return nil, internal("Failed to fetch stores", err)
	}
	for i := range stores {
		if v, ok := values[stores[i].ID]; ok {
			v := v
			stores[i].UserRating = &v
		}
	}
	return stores, nil
}

// ListStoresAdmin is the admin store listing, newest first by default.
func (s *Service) ListStoresAdmin(ctx context.Context, q StoreQuery) ([]domain.Store, error) {
	filters, err := storeFilters(q, repository.StoreSortCreatedAt, repository.SortDesc)
	if err != nil {
		return nil, err
	}
	stores, err := s.repo.Stores.List(ctx, filters)
	if err != nil {
		return nil, internal("Failed to fetch stores", err)
	}
	return stores, nil
}

// ListUsers returns users matching q, newest first by default.
func (s *Service) ListUsers(ctx context.Context, q UserQuery) ([]domain.User, error) {
	filters := repository.UserListFilters{
		Search:  q.Search,
		Name:    q.Name,
		Email:   q.Email,
		Address: q.Address,
		SortBy:  repository.UserSortCreatedAt,
		Order:   repository.SortDesc,
	}

	if raw := strings.TrimSpace(q.Role); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return nil, apperr.Field("role", "Role must be one of: admin, user, store_owner")
		}
		filters.Role = &role
	}
	if raw := strings.TrimSpace(q.SortBy); raw != "" {
		key, ok := repository.ParseUserSort(raw)
		if !ok {
			return nil, apperr.Field("sortBy", "sortBy must be one of: name, email, address, role, createdAt")
		}
		filters.SortBy = key
		filters.Order = repository.SortAsc
	}
	if raw := strings.TrimSpace(q.SortOrder); raw != "" {
		order, ok := repository.ParseSortOrder(raw)
		if !ok {
			return nil, apperr.Field("sortOrder", "sortOrder must be asc or desc")
		}
		filters.Order = order
	}

	users, err := s.repo.Users.List(ctx, filters)
	if err != nil {
		return nil, internal("Failed to fetch users", err)
	}
	return users, nil
}

// GetUser returns a single user with the owned store summary for store owners.
func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, apperr.NotFound("User not found")
		}
		return domain.User{}, internal("Failed to fetch user", err)
	}
	return user, nil
}

// storeFilters validates q. The default sort applies only when SortBy is absent; an
// explicit SortBy without SortOrder sorts ascending.
func storeFilters(q StoreQuery, defaultSort repository.StoreSort, defaultOrder repository.SortOrder) (repository.StoreListFilters, error) {
	filters := repository.StoreListFilters{
		Search:  q.Search,
		Name:    q.Name,
		Email:   q.Email,
		Address: q.Address,
		SortBy:  defaultSort,
		Order:   defaultOrder,
	}
	if raw := strings.TrimSpace(q.SortBy); raw != "" {
		key, ok := repository.ParseStoreSort(raw)
		if !ok {
			return filters, apperr.Field("sortBy", "sortBy must be one of: name, email, address, rating")
		}
		filters.SortBy = key
		filters.Order = repository.SortAsc
	}
	if raw := strings.TrimSpace(q.SortOrder); raw != "" {
		order, ok := repository.ParseSortOrder(raw)
		if !ok {
			return filters, apperr.Field("sortOrder", "sortOrder must be asc or desc")
		}
		filters.Order = order
	}
	return filters, nil
}
