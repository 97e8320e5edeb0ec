package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
)

func (s *Server) handleOwnerDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.respondAppError(w, r, apperr.Unauthenticated("Authentication required."))
		return
	}

	view, err := s.svc.OwnerDashboard(r.Context(), user.ID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	ratings := make([]raterRatingResponse, 0, len(view.Ratings))
	for _, rt := range view.Ratings {
		ratings = append(ratings, raterRatingResponse{
			ID:          rt.ID,
			UserID:      rt.UserID,
			UserName:    rt.UserName,
			UserEmail:   rt.UserEmail,
			RatingValue: rt.Value,
			CreatedAt:   rt.CreatedAt,
			UpdatedAt:   rt.UpdatedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, ownerDashboardResponse{
		Store: ownerStoreResponse{
			ID:            view.Store.ID,
			Name:          view.Store.Name,
			Address:       view.Store.Address,
			AverageRating: view.Store.AverageRating,
			RatingCount:   view.Store.RatingCount,
		},
		Ratings: ratings,
	})
}
