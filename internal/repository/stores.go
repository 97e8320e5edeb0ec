package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/store-ratings/internal/domain"
)

// StoresRepository provides persistence helpers for store entities.
type StoresRepository struct {
	db DBTX
}

const storeColumns = `
    s.id,
    s.name,
    s.email,
    s.address,
    s.owner_id,
    s.average_rating::float8,
    s.rating_count,
    s.created_at,
    s.updated_at
`

// StoreCreateParams bundles the fields required to create a store.
type StoreCreateParams struct {
	Name    string
	Email   string
	Address string
	OwnerID int64
}

// StoreSort is a sortable store column.
type StoreSort string

const (
	StoreSortName      StoreSort = "name"
	StoreSortEmail     StoreSort = "email"
	StoreSortAddress   StoreSort = "address"
	StoreSortRating    StoreSort = "rating"
	StoreSortCreatedAt StoreSort = "createdAt"
)

// Unrated stores sort as 0 so they land at the bottom of a descending rating sort.
var storeSortColumns = map[StoreSort]string{
	StoreSortName:      "s.name",
	StoreSortEmail:     "s.email",
	StoreSortAddress:   "s.address",
	StoreSortRating:    "COALESCE(s.average_rating, 0)",
	StoreSortCreatedAt: "s.created_at",
}

// ParseStoreSort validates a caller-supplied store sort key. averageRating is accepted
// as an alias of rating; createdAt is not caller-selectable.
func ParseStoreSort(raw string) (StoreSort, bool) {
	key := StoreSort(strings.TrimSpace(raw))
	if key == "averageRating" {
		key = StoreSortRating
	}
	if key == StoreSortCreatedAt {
		return "", false
	}
	_, ok := storeSortColumns[key]
	return key, ok
}

// StoreListFilters encapsulates search and ordering options for store listings.
type StoreListFilters struct {
	// Search matches name OR address.
	Search  *string
	Name    *string
	Email   *string
	Address *string
	SortBy  StoreSort
	Order   SortOrder
}

// Create inserts a new store row and returns the stored entity.
func (r *StoresRepository) Create(ctx context.Context, params StoreCreateParams) (domain.Store, error) {
	query := `
        INSERT INTO stores AS s (name, email, address, owner_id)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + storeColumns

	store, err := scanStore(r.db.QueryRow(ctx, query, params.Name, params.Email, params.Address, params.OwnerID))
	if err != nil {
		return domain.Store{}, translate(err)
	}
	return store, nil
}

// GetByID fetches a store by its identifier.
func (r *StoresRepository) GetByID(ctx context.Context, id int64) (domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores s WHERE s.id = $1`
	store, err := scanStore(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Store{}, translate(err)
	}
	return store, nil
}

// LockByID fetches a store and holds a row lock on it until the surrounding
// transaction ends. Must be called inside WithTx.
func (r *StoresRepository) LockByID(ctx context.Context, id int64) (domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores s WHERE s.id = $1 FOR UPDATE`
	store, err := scanStore(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Store{}, translate(err)
	}
	return store, nil
}

// GetByOwner fetches the store owned by ownerID.
func (r *StoresRepository) GetByOwner(ctx context.Context, ownerID int64) (domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores s WHERE s.owner_id = $1`
	store, err := scanStore(r.db.QueryRow(ctx, query, ownerID))
	if err != nil {
		return domain.Store{}, translate(err)
	}
	return store, nil
}

// EmailExists reports whether any store uses email.
func (r *StoresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stores WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// RecalculateAggregate recomputes average_rating and rating_count from the ratings
// table in a single statement and returns the updated store.
func (r *StoresRepository) RecalculateAggregate(ctx context.Context, id int64) (domain.Store, error) {
	query := `
        UPDATE stores AS s
        SET average_rating = agg.average,
            rating_count = agg.total,
            updated_at = now()
        FROM (
            SELECT ROUND(AVG(rating_value)::numeric, 1) AS average,
                   COUNT(*)::int AS total
            FROM ratings
            WHERE store_id = $1
        ) AS agg
        WHERE s.id = $1
        RETURNING ` + storeColumns

	store, err := scanStore(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Store{}, translate(err)
	}
	return store, nil
}

// Count returns the number of stores.
func (r *StoresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stores`).Scan(&n)
	return n, err
}

// List returns stores that match the provided filters, each with its owner summary.
// An empty SortBy orders by name.
func (r *StoresRepository) List(ctx context.Context, filters StoreListFilters) ([]domain.Store, error) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		p := arg(containsPattern(*filters.Search))
		where = append(where, fmt.Sprintf("(s.name ILIKE %[1]s OR s.address ILIKE %[1]s)", p))
	}
	if filters.Name != nil && strings.TrimSpace(*filters.Name) != "" {
		where = append(where, fmt.Sprintf("s.name ILIKE %s", arg(containsPattern(*filters.Name))))
	}
	if filters.Email != nil && strings.TrimSpace(*filters.Email) != "" {
		where = append(where, fmt.Sprintf("s.email ILIKE %s", arg(containsPattern(*filters.Email))))
	}
	if filters.Address != nil && strings.TrimSpace(*filters.Address) != "" {
		where = append(where, fmt.Sprintf("s.address ILIKE %s", arg(containsPattern(*filters.Address))))
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = StoreSortName
	}
	column, ok := storeSortColumns[sortBy]
	if !ok {
		return nil, fmt.Errorf("unsupported store sort %q", sortBy)
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(storeColumns)
	queryBuilder.WriteString(", o.id, o.name, o.email FROM stores s JOIN users o ON o.id = s.owner_id")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	dir := filters.Order.sql()
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s %s, s.id %s", column, dir, dir))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := make([]domain.Store, 0)
	for rows.Next() {
		var owner domain.OwnerSummary
		store, err := scanStore(rows, &owner.ID, &owner.Name, &owner.Email)
		if err != nil {
			return nil, err
		}
		store.Owner = &owner
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stores, nil
}

func scanStore(row pgx.Row, extra ...any) (domain.Store, error) {
	var store domain.Store
	dest := []any{
		&store.ID,
		&store.Name,
		&store.Email,
		&store.Address,
		&store.OwnerID,
		&store.AverageRating,
		&store.RatingCount,
		&store.CreatedAt,
		&store.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Store{}, err
	}
	return store, nil
}
