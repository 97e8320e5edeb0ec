package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/repository"
)

const (
	msgInvalidOwner     = "Invalid owner ID or user is not a store owner"
	msgOwnerHasStore    = "Store owner already has a store"
	msgStoreEmailExists = "Store email already exists"
	msgDanglingOwner    = "Store email already exists. The store owner account was created but has no store yet; create the store again with a different email."
)

// CreateUserInput carries an admin request to create an account of any role.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  *string
	// Role defaults to user when empty.
	Role domain.Role
}

// CreateStoreInput carries an admin request to create a store for an existing owner.
type CreateStoreInput struct {
	Name    string
	Email   string
	Address string
	OwnerID int64
}

// NewStoreInput is the store half of CreateStoreWithOwner.
type NewStoreInput struct {
	Name    string
	Email   string
	Address string
}

// CreateUser provisions an account on behalf of an admin.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (domain.User, error) {
	user, err := s.createAccount(ctx, in)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user provisioned")
	return user, nil
}

// CreateStore creates a store for an existing store owner and links it back to the owner.
func (s *Service) CreateStore(ctx context.Context, in CreateStoreInput) (domain.Store, error) {
	var store domain.Store
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		var err error
		store, err = s.createStore(ctx, tx, in)
		return err
	})
	if err != nil {
		return domain.Store{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"store_id": store.ID,
		"owner_id": store.OwnerID,
	}).Info("store provisioned")
	return store, nil
}

// CreateStoreWithOwner creates a store_owner account and its store in one transaction.
// Any failure leaves neither row behind.
func (s *Service) CreateStoreWithOwner(ctx context.Context, owner CreateUserInput, store NewStoreInput) (domain.User, domain.Store, error) {
	owner.Role = domain.RoleStoreOwner

	var (
		createdUser  domain.User
		createdStore domain.Store
	)
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		txSvc := s.withRepository(tx)
		user, err := txSvc.createAccount(ctx, owner)
		if err != nil {
			return err
		}
		created, err := txSvc.createStore(ctx, tx, CreateStoreInput{
			Name:    store.Name,
			Email:   store.Email,
			Address: store.Address,
			OwnerID: user.ID,
		})
		if err != nil {
			return err
		}
		// Re-read so the owner carries the linked store.
		createdUser, err = tx.Users.GetByID(ctx, user.ID)
		if err != nil {
			return internal("Failed to create store", err)
		}
		createdStore = created
		return nil
	})
	if err != nil {
		// The owner row was rolled back, so there is no dangling account to disclose.
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Message == msgDanglingOwner {
			return domain.User{}, domain.Store{}, apperr.Conflict(msgStoreEmailExists)
		}
		return domain.User{}, domain.Store{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"store_id": createdStore.ID,
		"owner_id": createdUser.ID,
	}).Info("store and owner provisioned")
	return createdUser, createdStore, nil
}

func (s *Service) createStore(ctx context.Context, tx *repository.Repository, in CreateStoreInput) (domain.Store, error) {
	owner, err := tx.Users.GetByID(ctx, in.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Store{}, apperr.Field("ownerId", msgInvalidOwner)
		}
		return domain.Store{}, internal("Failed to create store", err)
	}
	if owner.Role != domain.RoleStoreOwner {
		return domain.Store{}, apperr.Field("ownerId", msgInvalidOwner)
	}
	if owner.OwnedStore != nil {
		return domain.Store{}, apperr.Conflict(msgOwnerHasStore)
	}

	email := NormalizeEmail(in.Email)
	taken, err := tx.Stores.EmailExists(ctx, email)
	if err != nil {
		return domain.Store{}, internal("Failed to create store", err)
	}
	if taken {
		return domain.Store{}, apperr.Conflict(msgDanglingOwner)
	}

	store, err := tx.Stores.Create(ctx, repository.StoreCreateParams{
		Name:    strings.TrimSpace(in.Name),
		Email:   email,
		Address: strings.TrimSpace(in.Address),
		OwnerID: owner.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			switch repository.ConstraintOf(err) {
			case "stores_owner_id_key":
				return domain.Store{}, apperr.Conflict(msgOwnerHasStore)
			case "stores_email_key":
				return domain.Store{}, apperr.Conflict(msgDanglingOwner)
			}
			return domain.Store{}, apperr.Conflict(msgStoreEmailExists)
		}
		return domain.Store{}, internal("Failed to create store", err)
	}

	if err := tx.Users.LinkStore(ctx, owner.ID, store.ID); err != nil {
		return domain.Store{}, internal("Failed to link store to owner", err)
	}
	return store, nil
}

func (s *Service) withRepository(repo *repository.Repository) *Service {
	clone := *s
	clone.repo = repo
	return &clone
}
