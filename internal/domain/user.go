package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleUser, RoleStoreOwner}

// ParseRole converts a raw string into a Role, rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	for _, r := range Roles {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User is an account. PasswordHash is only populated by credential lookups.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Address      *string
	Role         Role
	StoreID      *int64
	OwnedStore   *StoreSummary
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StoreSummary is the nested view of a store owner's store.
type StoreSummary struct {
	ID            int64
	Name          string
	AverageRating *float64
}
