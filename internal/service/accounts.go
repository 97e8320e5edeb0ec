package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/repository"
	"github.com/Clark-Hu/store-ratings/internal/validation"
)

const msgInvalidCredentials = "Invalid email or password"

// seedAdminInput applies the admin-create rules to the ADMIN_* settings.
type seedAdminInput struct {
	Name     string `json:"ADMIN_NAME" label:"Admin name" validate:"required,min=2,max=60"`
	Email    string `json:"ADMIN_EMAIL" validate:"required,email"`
	Password string `json:"ADMIN_PASSWORD" label:"Admin password" validate:"required,password"`
}

// SignupInput carries a self-registration request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Address  *string
}

// Session is a freshly issued token together with the user it belongs to.
type Session struct {
	Token     string
	ExpiresIn time.Duration
	User      domain.User
}

// Signup registers a new account with role user and logs it in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	user, err := s.createAccount(ctx, CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Address:  in.Address,
		Role:     domain.RoleUser,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.repo.Users.GetCredentials(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperr.Unauthenticated(msgInvalidCredentials)
		}
		return Session{}, internal("Failed to login", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return Session{}, internal("Failed to login", err)
	}
	if !ok {
		return Session{}, apperr.Unauthenticated(msgInvalidCredentials)
	}

	user.PasswordHash = ""
	return s.issueSession(user)
}

// Authenticate resolves a bearer token to the current user record.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, apperr.Unauthenticated("Invalid token. User not found.")
		}
		return domain.User{}, internal("Failed to authenticate", err)
	}
	return user, nil
}

// Me returns the profile of userID.
func (s *Service) Me(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, apperr.NotFound("User not found")
		}
		return domain.User{}, internal("Failed to fetch user", err)
	}
	return user, nil
}

// ChangePassword replaces the password of userID after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	hash, err := s.repo.Users.GetPasswordHash(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return internal("Failed to change password", err)
	}

	ok, err := s.hasher.Verify(hash, current)
	if err != nil {
		return internal("Failed to change password", err)
	}
	if !ok {
		return apperr.Field("currentPassword", "Current password is incorrect")
	}

	newHash, err := s.hasher.Hash(next)
	if err != nil {
		return internal("Failed to change password", err)
	}
	if err := s.repo.Users.UpdatePassword(ctx, userID, newHash); err != nil {
		return internal("Failed to change password", err)
	}
	s.logger.WithField("user_id", userID).Info("password changed")
	return nil
}

// SeedAdmin creates an admin account for email unless one is already registered.
// It reports whether a new account was created.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validation.New().Struct(seedAdminInput{Name: name, Email: email, Password: password}); err != nil {
		return false, err
	}
	exists, err := s.repo.Users.EmailExists(ctx, email)
	if err != nil {
		return false, internal("Failed to seed admin", err)
	}
	if exists {
		return false, nil
	}

	_, err = s.createAccount(ctx, CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		// A concurrent instance won the race.
		if apperr.Is(err, apperr.KindConflict) {
			return false, nil
		}
		return false, err
	}
	s.logger.WithField("email", email).Info("admin account seeded")
	return true, nil
}

func (s *Service) issueSession(user domain.User) (Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, internal("Failed to issue token", err)
	}
	return Session{Token: token, ExpiresIn: s.tokens.TTL(), User: user}, nil
}

// createAccount hashes the password and inserts the user, mapping a duplicate email to Conflict.
func (s *Service) createAccount(ctx context.Context, in CreateUserInput) (domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.User{}, apperr.Field("role", "Role must be one of: admin, user, store_owner")
	}

	email := NormalizeEmail(in.Email)
	exists, err := s.repo.Users.EmailExists(ctx, email)
	if err != nil {
		return domain.User{}, internal("Failed to create user", err)
	}
	if exists {
		return domain.User{}, apperr.Conflict("Email already registered")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, internal("Failed to create user", err)
	}

	user, err := s.repo.Users.Create(ctx, repository.UserCreateParams{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Address:      trimOptional(in.Address),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.User{}, apperr.Conflict("Email already registered")
		}
		return domain.User{}, internal("Failed to create user", err)
	}
	return user, nil
}
