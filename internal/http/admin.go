package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/service"
)

type createUserRequest struct {
	Name     string  `json:"name" label:"Name" validate:"required,min=2,max=60"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" label:"Password" validate:"required,password"`
	Address  *string `json:"address" label:"Address" validate:"omitempty,max=400"`
	Role     string  `json:"role" label:"Role" validate:"omitempty,oneof=admin user store_owner"`
}

type storeFields struct {
	Name    string `json:"name" label:"Store name" validate:"required,min=2,max=60"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" label:"Address" validate:"required,max=400"`
}

type createStoreRequest struct {
	Name    string `json:"name" label:"Store name" validate:"required,min=2,max=60"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" label:"Address" validate:"required,max=400"`
	OwnerID int64  `json:"ownerId" validate:"required,min=1" msg:"Valid owner ID is required"`
}

type createStoreWithOwnerRequest struct {
	Owner createUserRequest `json:"owner"`
	Store storeFields       `json:"store"`
}

func (req *createUserRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = service.NormalizeEmail(req.Email)
	req.Role = strings.TrimSpace(req.Role)
}

func (req *storeFields) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = service.NormalizeEmail(req.Email)
	req.Address = strings.TrimSpace(req.Address)
}

func (req createUserRequest) input() service.CreateUserInput {
	return service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     domain.Role(req.Role),
	}
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.AdminDashboard(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, dashboardResponse{
		TotalUsers:   stats.TotalUsers,
		TotalStores:  stats.TotalStores,
		TotalRatings: stats.TotalRatings,
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.normalize()
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	user, err := s.svc.CreateUser(r.Context(), req.input())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    toUserResponse(user),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context(), buildUserQuery(r.URL.Query()))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"users": items})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	user, err := s.svc.GetUser(r.Context(), id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"user": toUserResponse(user)})
}

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = service.NormalizeEmail(req.Email)
	req.Address = strings.TrimSpace(req.Address)
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	store, err := s.svc.CreateStore(r.Context(), service.CreateStoreInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Store created successfully",
		"store":   toStoreResponse(store),
	})
}

func (s *Server) handleCreateStoreWithOwner(w http.ResponseWriter, r *http.Request) {
	var req createStoreWithOwnerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Owner.normalize()
	req.Store.normalize()
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	owner, store, err := s.svc.CreateStoreWithOwner(r.Context(), req.Owner.input(), service.NewStoreInput{
		Name:    req.Store.Name,
		Email:   req.Store.Email,
		Address: req.Store.Address,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Store and owner created successfully",
		"user":    toUserResponse(owner),
		"store":   toStoreResponse(store),
	})
}

func (s *Server) handleAdminListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := s.svc.ListStoresAdmin(r.Context(), buildStoreQuery(r.URL.Query()))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	items := make([]storeResponse, 0, len(stores))
	for _, st := range stores {
		items = append(items, toStoreResponse(st))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"stores": items})
}

// buildStoreQuery extracts store listing parameters. Validation of sort keys happens in the service.
func buildStoreQuery(query url.Values) service.StoreQuery {
	return service.StoreQuery{
		Search:    optionalParam(query, "search"),
		Name:      optionalParam(query, "name"),
		Email:     optionalParam(query, "email"),
		Address:   optionalParam(query, "address"),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(query.Get("sortOrder"))),
	}
}

func buildUserQuery(query url.Values) service.UserQuery {
	return service.UserQuery{
		Search:    optionalParam(query, "search"),
		Name:      optionalParam(query, "name"),
		Email:     optionalParam(query, "email"),
		Address:   optionalParam(query, "address"),
		Role:      strings.TrimSpace(query.Get("role")),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(query.Get("sortOrder"))),
	}
}

func optionalParam(query url.Values, key string) *string {
	val := strings.TrimSpace(query.Get(key))
	if val == "" {
		return nil
	}
	return &val
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Field(name, "Invalid "+name+" parameter")
	}
	return id, nil
}
