// Package service implements the store-rating use cases on top of the repositories:
// accounts, provisioning, rating aggregation, directory queries and dashboards.
package service

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/auth"
	"github.com/Clark-Hu/store-ratings/internal/metrics"
	"github.com/Clark-Hu/store-ratings/internal/repository"
)

// Service bundles the dependencies shared by every use case.
type Service struct {
	repo    *repository.Repository
	hasher  *auth.Hasher
	tokens  *auth.Issuer
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

// New constructs a Service. metrics may be nil.
func New(repo *repository.Repository, hasher *auth.Hasher, tokens *auth.Issuer, m *metrics.Metrics, logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// internal wraps an unexpected repository failure, leaving classified errors untouched.
func internal(message string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(message, err)
}
