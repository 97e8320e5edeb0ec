package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/store-ratings/internal/domain"
)

// UsersRepository provides persistence helpers for user accounts.
type UsersRepository struct {
	db DBTX
}

// Password hashes are never part of userColumns; only GetCredentials reads them.
const userColumns = `
    u.id,
    u.name,
    u.email,
    u.address,
    u.role::text,
    u.store_id,
    u.created_at,
    u.updated_at,
    owned.id,
    owned.name,
    owned.average_rating::float8
`

const userFrom = ` FROM users u LEFT JOIN stores owned ON owned.owner_id = u.id`

// UserCreateParams bundles the fields required to create a user.
type UserCreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Address      *string
	Role         domain.Role
}

// UserSort is a sortable user column.
type UserSort string

const (
	UserSortName      UserSort = "name"
	UserSortEmail     UserSort = "email"
	UserSortAddress   UserSort = "address"
	UserSortRole      UserSort = "role"
	UserSortCreatedAt UserSort = "createdAt"
)

var userSortColumns = map[UserSort]string{
	UserSortName:      "u.name",
	UserSortEmail:     "u.email",
	UserSortAddress:   "u.address",
	UserSortRole:      "u.role::text",
	UserSortCreatedAt: "u.created_at",
}

// ParseUserSort validates a user sort key. created_at is accepted as an alias of createdAt.
func ParseUserSort(raw string) (UserSort, bool) {
	key := UserSort(strings.TrimSpace(raw))
	if key == "created_at" {
		key = UserSortCreatedAt
	}
	_, ok := userSortColumns[key]
	return key, ok
}

// UserListFilters encapsulates search and ordering options for user listings.
type UserListFilters struct {
	Search  *string
	Name    *string
	Email   *string
	Address *string
	Role    *domain.Role
	SortBy  UserSort
	Order   SortOrder
}

// Create inserts a new user row and returns the stored entity.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	const insert = `
        INSERT INTO users (name, email, password_hash, address, role)
        VALUES ($1, $2, $3, $4, $5::user_role)
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, insert, params.Name, params.Email, params.PasswordHash, params.Address, string(params.Role)).Scan(&id)
	if err != nil {
		return domain.User{}, translate(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a user by identifier, including the owned store summary.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := `SELECT ` + userColumns + userFrom + ` WHERE u.id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.User{}, translate(err)
	}
	return user, nil
}

// GetCredentials fetches a user by email together with the password hash.
func (r *UsersRepository) GetCredentials(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + `, u.password_hash` + userFrom + ` WHERE u.email = $1`
	var hash string
	user, err := scanUser(r.db.QueryRow(ctx, query, email), &hash)
	if err != nil {
		return domain.User{}, translate(err)
	}
	user.PasswordHash = hash
	return user, nil
}

// GetPasswordHash returns the stored hash for a user id.
func (r *UsersRepository) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		return "", translate(err)
	}
	return hash, nil
}

// EmailExists reports whether any user is registered with email.
func (r *UsersRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// UpdatePassword replaces a user's password hash.
func (r *UsersRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkStore records the store a store owner owns.
func (r *UsersRepository) LinkStore(ctx context.Context, userID, storeID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET store_id = $2, updated_at = now() WHERE id = $1`, userID, storeID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of registered users.
func (r *UsersRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// List returns users that match the provided filters.
func (r *UsersRepository) List(ctx context.Context, filters UserListFilters) ([]domain.User, error) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		p := arg(containsPattern(*filters.Search))
		where = append(where, fmt.Sprintf("(u.name ILIKE %[1]s OR u.email ILIKE %[1]s OR u.address ILIKE %[1]s)", p))
	}
	if filters.Name != nil && strings.TrimSpace(*filters.Name) != "" {
		where = append(where, fmt.Sprintf("u.name ILIKE %s", arg(containsPattern(*filters.Name))))
	}
	if filters.Email != nil && strings.TrimSpace(*filters.Email) != "" {
		where = append(where, fmt.Sprintf("u.email ILIKE %s", arg(containsPattern(*filters.Email))))
	}
	if filters.Address != nil && strings.TrimSpace(*filters.Address) != "" {
		where = append(where, fmt.Sprintf("u.address ILIKE %s", arg(containsPattern(*filters.Address))))
	}
	if filters.Role != nil {
		where = append(where, fmt.Sprintf("u.role = %s::user_role", arg(string(*filters.Role))))
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = UserSortCreatedAt
	}
	column, ok := userSortColumns[sortBy]
	if !ok {
		return nil, fmt.Errorf("unsupported user sort %q", sortBy)
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(userColumns)
	queryBuilder.WriteString(userFrom)
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	dir := filters.Order.sql()
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s, u.id %s", column, dir, dir))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(row pgx.Row, extra ...any) (domain.User, error) {
	var (
		user      domain.User
		role      string
		storeID   *int64
		storeName *string
		storeAvg  *float64
	)

	dest := []any{
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Address,
		&role,
		&user.StoreID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&storeID,
		&storeName,
		&storeAvg,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.User{}, err
	}

	user.Role = domain.Role(role)
	if storeID != nil && user.Role == domain.RoleStoreOwner {
		summary := &domain.StoreSummary{ID: *storeID, AverageRating: storeAvg}
		if storeName != nil {
			summary.Name = *storeName
		}
		user.OwnedStore = summary
	}
	return user, nil
}
