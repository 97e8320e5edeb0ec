package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
)

// ratingRequest decodes ratingValue as a float so integral values such as 4.0 are accepted.
type ratingRequest struct {
	StoreID     int64   `json:"storeId" validate:"required,min=1" msg:"Valid store ID is required"`
	RatingValue float64 `json:"ratingValue" validate:"whole,min=1,max=5" msg:"Rating must be between 1 and 5"`
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.respondAppError(w, r, apperr.Unauthenticated("Authentication required."))
		return
	}

	stores, err := s.svc.ListStores(r.Context(), buildStoreQuery(r.URL.Query()), &user.ID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	items := make([]userStoreResponse, 0, len(stores))
	for _, st := range stores {
		items = append(items, toUserStoreResponse(st))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"stores": items})
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.respondAppError(w, r, apperr.Unauthenticated("Authentication required."))
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	result, err := s.svc.SubmitRating(r.Context(), user.ID, req.StoreID, int(req.RatingValue))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, submitRatingResponse{
		Message: "Rating submitted successfully",
		Created: result.Created,
		Rating:  toRatingResponse(result.Rating),
		Store: storeAggregateResponse{
			ID:            result.Store.ID,
			AverageRating: result.Store.AverageRating,
			RatingCount:   result.Store.RatingCount,
		},
	})
}
