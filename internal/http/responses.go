package httpserver

import (
	"time"

	"github.com/Clark-Hu/store-ratings/internal/domain"
)

type userResponse struct {
	ID         int64                 `json:"id"`
	Name       string                `json:"name"`
	Email      string                `json:"email"`
	Address    *string               `json:"address"`
	Role       domain.Role           `json:"role"`
	StoreID    *int64                `json:"storeId,omitempty"`
	OwnedStore *storeSummaryResponse `json:"ownedStore,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

type storeSummaryResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	AverageRating *float64 `json:"averageRating"`
}

type ownerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type storeResponse struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Address       string         `json:"address"`
	OwnerID       int64          `json:"ownerId"`
	AverageRating *float64       `json:"averageRating"`
	RatingCount   int64          `json:"ratingCount"`
	Owner         *ownerResponse `json:"owner,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// userStoreResponse is the user-facing listing row; userRating is always present.
type userStoreResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Address       string   `json:"address"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int64    `json:"ratingCount"`
	UserRating    *int     `json:"userRating"`
}

type sessionResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      userResponse `json:"user"`
}

type ratingResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	StoreID     int64     `json:"storeId"`
	RatingValue int       `json:"ratingValue"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type storeAggregateResponse struct {
	ID            int64    `json:"id"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int64    `json:"ratingCount"`
}

type submitRatingResponse struct {
	Message string                 `json:"message"`
	Created bool                   `json:"created"`
	Rating  ratingResponse         `json:"rating"`
	Store   storeAggregateResponse `json:"store"`
}

type dashboardResponse struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}

type ownerStoreResponse struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int64    `json:"ratingCount"`
}

type raterRatingResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	RatingValue int       `json:"ratingValue"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ownerDashboardResponse struct {
	Store   ownerStoreResponse    `json:"store"`
	Ratings []raterRatingResponse `json:"ratings"`
}

func toUserResponse(user domain.User) userResponse {
	resp := userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Address:   user.Address,
		Role:      user.Role,
		StoreID:   user.StoreID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.OwnedStore != nil {
		resp.OwnedStore = &storeSummaryResponse{
			ID:            user.OwnedStore.ID,
			Name:          user.OwnedStore.Name,
			AverageRating: user.OwnedStore.AverageRating,
		}
	}
	return resp
}

func toStoreResponse(store domain.Store) storeResponse {
	resp := storeResponse{
		ID:            store.ID,
		Name:          store.Name,
		Email:         store.Email,
		Address:       store.Address,
		OwnerID:       store.OwnerID,
		AverageRating: store.AverageRating,
		RatingCount:   store.RatingCount,
		CreatedAt:     store.CreatedAt,
		UpdatedAt:     store.UpdatedAt,
	}
	if store.Owner != nil {
		resp.Owner = &ownerResponse{
			ID:    store.Owner.ID,
			Name:  store.Owner.Name,
			Email: store.Owner.Email,
		}
	}
	return resp
}

func toUserStoreResponse(store domain.Store) userStoreResponse {
	return userStoreResponse{
		ID:            store.ID,
		Name:          store.Name,
		Email:         store.Email,
		Address:       store.Address,
		AverageRating: store.AverageRating,
		RatingCount:   store.RatingCount,
		UserRating:    store.UserRating,
	}
}

func toRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		ID:          rating.ID,
		UserID:      rating.UserID,
		StoreID:     rating.StoreID,
		RatingValue: rating.Value,
		CreatedAt:   rating.CreatedAt,
		UpdatedAt:   rating.UpdatedAt,
	}
}
