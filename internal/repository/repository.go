package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/store-ratings/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("repository: conflict")
)

// ConflictError names the constraint behind an ErrConflict.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("repository: conflict on %s", e.Constraint)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users   *UsersRepository
	Stores  *StoresRepository
	Ratings *RatingsRepository

	// pool is nil when the repository is bound to a transaction.
	pool *pgxpool.Pool
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return bind(pool, pool)
}

func bind(db DBTX, pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:   &UsersRepository{db: db},
		Stores:  &StoresRepository{db: db},
		Ratings: &RatingsRepository{db: db},
		pool:    pool,
	}
}

// WithTx runs fn with repositories bound to a single transaction, committing when fn
// returns nil and rolling back otherwise. Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(bind(tx, nil))
	})
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &ConflictError{Constraint: pgErr.ConstraintName}
	}
	return err
}

// ConstraintOf returns the constraint named by a conflict error, if any.
func ConstraintOf(err error) string {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Constraint
	}
	return ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching value as a literal substring.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(value)) + "%"
}

// SortOrder is the direction of a listing sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc" in any case; empty means asc.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc":
		return SortAsc, true
	case "desc":
		return SortDesc, true
	}
	return "", false
}

func (o SortOrder) sql() string {
	if o == SortDesc {
		return "DESC"
	}
	return "ASC"
}
