package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/service"
)

type signupRequest struct {
	Name     string  `json:"name" label:"Name" validate:"required,min=20,max=60"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" label:"Password" validate:"required,password"`
	Address  *string `json:"address" label:"Address" validate:"omitempty,max=400"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" msg:"Current password is required"`
	NewPassword     string `json:"newPassword" label:"New password" validate:"required,password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = service.NormalizeEmail(req.Email)
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	session, err := s.svc.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sessionResponse{
		Message:   "User registered successfully",
		Token:     session.Token,
		ExpiresIn: int64(session.ExpiresIn / time.Second),
		User:      toUserResponse(session.User),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Email = service.NormalizeEmail(req.Email)
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	session, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse{
		Message:   "Login successful",
		Token:     session.Token,
		ExpiresIn: int64(session.ExpiresIn / time.Second),
		User:      toUserResponse(session.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.respondAppError(w, r, apperr.Unauthenticated("Authentication required."))
		return
	}
	fresh, err := s.svc.Me(r.Context(), user.ID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user": toUserResponse(fresh),
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		s.respondAppError(w, r, apperr.Unauthenticated("Authentication required."))
		return
	}

	var req changePasswordRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if err := s.svc.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
