package auth

import (
	"github.com/Clark-Hu/store-ratings/internal/apperr"
	"github.com/Clark-Hu/store-ratings/internal/domain"
)

// Authorize returns a Forbidden error unless role is one of allowed.
func Authorize(role domain.Role, allowed ...domain.Role) error {
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return apperr.Forbidden("Access denied. Insufficient permissions.")
}
