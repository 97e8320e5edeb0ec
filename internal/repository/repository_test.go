package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/Clark-Hu/store-ratings/internal/domain"
	"github.com/Clark-Hu/store-ratings/internal/pgtest"
)

type testEnv struct {
	ctx        context.Context
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	return &testEnv{
		ctx:        context.Background(),
		repository: NewWithPool(pgtest.New(t)),
	}
}

func mustCreateUser(t testing.TB, env *testEnv, email string, role domain.Role) domain.User {
	t.Helper()
	user, err := env.repository.Users.Create(env.ctx, UserCreateParams{
		Name:         "Repository Test User " + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create user %q: %v", email, err)
	}
	return user
}

func mustCreateStore(t testing.TB, env *testEnv, name, address string) domain.Store {
	t.Helper()
	owner := mustCreateUser(t, env, fmt.Sprintf("owner-%s@example.com", name), domain.RoleStoreOwner)
	store, err := env.repository.Stores.Create(env.ctx, StoreCreateParams{
		Name:    name,
		Email:   fmt.Sprintf("store-%s@example.com", name),
		Address: address,
		OwnerID: owner.ID,
	})
	if err != nil {
		t.Fatalf("create store %q: %v", name, err)
	}
	if err := env.repository.Users.LinkStore(env.ctx, owner.ID, store.ID); err != nil {
		t.Fatalf("link store: %v", err)
	}
	return store
}

func TestUsersRepository_CreateGetCredentials(t *testing.T) {
	env := newTestEnv(t)

	addr := "12 Market Street"
	created, err := env.repository.Users.Create(env.ctx, UserCreateParams{
		Name:         "A Perfectly Long Display Name",
		Email:        "alice@example.com",
		PasswordHash: "bcrypt-hash",
		Address:      &addr,
		Role:         domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Role != domain.RoleUser {
		t.Fatalf("role = %q, want user", created.Role)
	}
	if created.PasswordHash != "" {
		t.Fatalf("GetByID must not load the password hash")
	}
	if created.Address == nil || *created.Address != addr {
		t.Fatalf("address = %v, want %q", created.Address, addr)
	}

	creds, err := env.repository.Users.GetCredentials(env.ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.PasswordHash != "bcrypt-hash" || creds.ID != created.ID {
		t.Fatalf("credentials = %+v", creds)
	}

	_, err = env.repository.Users.Create(env.ctx, UserCreateParams{
		Name: "Duplicate", Email: "alice@example.com", PasswordHash: "x", Role: domain.RoleUser,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email err = %v, want ErrConflict", err)
	}
	if ConstraintOf(err) != "users_email_key" {
		t.Fatalf("constraint = %q, want users_email_key", ConstraintOf(err))
	}

	if _, err := env.repository.Users.GetByID(env.ctx, 999999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ID, got %v", err)
	}

	if err := env.repository.Users.UpdatePassword(env.ctx, created.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	hash, err := env.repository.Users.GetPasswordHash(env.ctx, created.ID)
	if err != nil || hash != "new-hash" {
		t.Fatalf("hash = %q, err = %v", hash, err)
	}
}

func TestUsersRepository_ListFiltersAndOwnedStore(t *testing.T) {
	env := newTestEnv(t)

	mustCreateUser(t, env, "zed@example.com", domain.RoleUser)
	mustCreateUser(t, env, "amy@example.com", domain.RoleAdmin)
	store := mustCreateStore(t, env, "Corner", "1 Side Road")

	owners := domain.RoleStoreOwner
	users, err := env.repository.Users.List(env.ctx, UserListFilters{Role: &owners})
	if err != nil {
		t.Fatalf("list owners: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("owners = %d, want 1", len(users))
	}
	if users[0].OwnedStore == nil || users[0].OwnedStore.ID != store.ID {
		t.Fatalf("owned store = %+v, want id %d", users[0].OwnedStore, store.ID)
	}
	if users[0].OwnedStore.AverageRating != nil {
		t.Fatalf("unrated store average = %v, want nil", *users[0].OwnedStore.AverageRating)
	}

	search := "ZED@"
	users, err = env.repository.Users.List(env.ctx, UserListFilters{Search: &search})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 || users[0].Email != "zed@example.com" {
		t.Fatalf("search result = %+v", users)
	}

	users, err = env.repository.Users.List(env.ctx, UserListFilters{SortBy: UserSortEmail, Order: SortAsc})
	if err != nil {
		t.Fatalf("sorted list: %v", err)
	}
	if len(users) != 3 || users[0].Email != "amy@example.com" {
		t.Fatalf("sorted by email = %+v", users)
	}

	wildcard := "%"
	users, err = env.repository.Users.List(env.ctx, UserListFilters{Search: &wildcard})
	if err != nil {
		t.Fatalf("wildcard search: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("literal %% search matched %d users", len(users))
	}
}

func TestUsersRepository_SortByRoleIsAlphabetical(t *testing.T) {
	env := newTestEnv(t)

	mustCreateUser(t, env, "user@example.com", domain.RoleUser)
	mustCreateUser(t, env, "admin@example.com", domain.RoleAdmin)
	mustCreateStore(t, env, "Corner", "1 Side Road")

	tests := []struct {
		order SortOrder
		want  []domain.Role
	}{
		{order: SortAsc, want: []domain.Role{domain.RoleAdmin, domain.RoleStoreOwner, domain.RoleUser}},
		{order: SortDesc, want: []domain.Role{domain.RoleUser, domain.RoleStoreOwner, domain.RoleAdmin}},
	}
	for _, tt := range tests {
		users, err := env.repository.Users.List(env.ctx, UserListFilters{SortBy: UserSortRole, Order: tt.order})
		if err != nil {
			t.Fatalf("list sorted by role %s: %v", tt.order, err)
		}
		got := make([]domain.Role, 0, len(users))
		for _, u := range users {
			got = append(got, u.Role)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("roles sorted %s = %v, want %v", tt.order, got, tt.want)
		}
	}
}

func TestStoresRepository_ListSearchAndSort(t *testing.T) {
	env := newTestEnv(t)

	a := mustCreateStore(t, env, "Alpha Shop", "1 High Street")
	b := mustCreateStore(t, env, "Bakery", "22 Shopping Lane")
	mustCreateStore(t, env, "Cafe", "3 Quiet Road")

	search := "shop"
	stores, err := env.repository.Stores.List(env.ctx, StoreListFilters{Search: &search})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(stores) != 2 || stores[0].ID != a.ID || stores[1].ID != b.ID {
		t.Fatalf("search shop = %+v", stores)
	}
	if stores[0].Owner == nil || stores[0].Owner.ID != a.OwnerID {
		t.Fatalf("owner summary missing: %+v", stores[0].Owner)
	}

	rater := mustCreateUser(t, env, "rater@example.com", domain.RoleUser)
	if _, _, err := env.repository.Ratings.Upsert(env.ctx, RatingUpsertParams{UserID: rater.ID, StoreID: b.ID, Value: 5}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := env.repository.Stores.RecalculateAggregate(env.ctx, b.ID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	stores, err = env.repository.Stores.List(env.ctx, StoreListFilters{SortBy: StoreSortRating, Order: SortDesc})
	if err != nil {
		t.Fatalf("sort by rating: %v", err)
	}
	if stores[0].ID != b.ID {
		t.Fatalf("top rated = %d, want %d", stores[0].ID, b.ID)
	}

	email := "STORE-CAFE"
	stores, err = env.repository.Stores.List(env.ctx, StoreListFilters{Email: &email, SortBy: StoreSortCreatedAt, Order: SortDesc})
	if err != nil {
		t.Fatalf("email filter: %v", err)
	}
	if len(stores) != 1 || stores[0].Name != "Cafe" {
		t.Fatalf("email filter = %+v", stores)
	}
}

func TestStoresRepository_Constraints(t *testing.T) {
	env := newTestEnv(t)

	store := mustCreateStore(t, env, "Unique", "1 Road")

	_, err := env.repository.Stores.Create(env.ctx, StoreCreateParams{
		Name: "Second", Email: "other@example.com", Address: "2 Road", OwnerID: store.OwnerID,
	})
	if !errors.Is(err, ErrConflict) || ConstraintOf(err) != "stores_owner_id_key" {
		t.Fatalf("second store for owner err = %v", err)
	}

	owner := mustCreateUser(t, env, "fresh-owner@example.com", domain.RoleStoreOwner)
	_, err = env.repository.Stores.Create(env.ctx, StoreCreateParams{
		Name: "Copy", Email: store.Email, Address: "3 Road", OwnerID: owner.ID,
	})
	if !errors.Is(err, ErrConflict) || ConstraintOf(err) != "stores_email_key" {
		t.Fatalf("duplicate store email err = %v", err)
	}

	got, err := env.repository.Stores.GetByOwner(env.ctx, store.OwnerID)
	if err != nil || got.ID != store.ID {
		t.Fatalf("GetByOwner = %+v, %v", got, err)
	}
	if _, err := env.repository.Stores.GetByOwner(env.ctx, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByOwner without store err = %v", err)
	}
}

func TestRatingsRepository_UpsertAndAggregate(t *testing.T) {
	env := newTestEnv(t)

	store := mustCreateStore(t, env, "Rated", "1 Road")
	user1 := mustCreateUser(t, env, "user1@example.com", domain.RoleUser)
	user2 := mustCreateUser(t, env, "user2@example.com", domain.RoleUser)

	params := RatingUpsertParams{UserID: user1.ID, StoreID: store.ID, Value: 4}
	rating, inserted, err := env.repository.Ratings.Upsert(env.ctx, params)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first upsert to insert")
	}
	if rating.Value != params.Value {
		t.Fatalf("rating value = %v, want %v", rating.Value, params.Value)
	}

	params.Value = 2
	updated, inserted, err := env.repository.Ratings.Upsert(env.ctx, params)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if inserted {
		t.Fatalf("expected update, not insert")
	}
	if updated.ID != rating.ID {
		t.Fatalf("upsert created a new row: %d != %d", updated.ID, rating.ID)
	}

	_, inserted, err = env.repository.Ratings.Upsert(env.ctx, RatingUpsertParams{UserID: user2.ID, StoreID: store.ID, Value: 5})
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected insert for second rater")
	}

	agg, err := env.repository.Ratings.Aggregate(env.ctx, store.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Count != 2 {
		t.Fatalf("agg count = %d, want 2", agg.Count)
	}
	if agg.Average == nil || *agg.Average != 3.5 {
		t.Fatalf("agg average = %v, want 3.5", agg.Average)
	}

	recalculated, err := env.repository.Stores.RecalculateAggregate(env.ctx, store.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if recalculated.RatingCount != 2 || recalculated.AverageRating == nil || *recalculated.AverageRating != 3.5 {
		t.Fatalf("store aggregate = %v/%d", recalculated.AverageRating, recalculated.RatingCount)
	}

	fetched, err := env.repository.Ratings.Get(env.ctx, user1.ID, store.ID)
	if err != nil {
		t.Fatalf("get rating: %v", err)
	}
	if fetched.Value != 2 {
		t.Fatalf("fetched rating = %v, want 2", fetched.Value)
	}

	if _, err := env.repository.Ratings.Get(env.ctx, 999999, store.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing rating, got %v", err)
	}

	values, err := env.repository.Ratings.ValuesByUser(env.ctx, user1.ID, []int64{store.ID, 424242})
	if err != nil {
		t.Fatalf("values by user: %v", err)
	}
	if len(values) != 1 || values[store.ID] != 2 {
		t.Fatalf("values = %v", values)
	}

	list, err := env.repository.Ratings.ListForStore(env.ctx, store.ID)
	if err != nil {
		t.Fatalf("list for store: %v", err)
	}
	if len(list) != 2 || list[0].UserEmail != "user2@example.com" {
		t.Fatalf("ratings newest first = %+v", list)
	}
}

func TestRatingsRepository_AggregateEmpty(t *testing.T) {
	env := newTestEnv(t)

	store := mustCreateStore(t, env, "Empty", "1 Road")

	agg, err := env.repository.Ratings.Aggregate(env.ctx, store.ID)
	if err != nil {
		t.Fatalf("aggregate without ratings: %v", err)
	}
	if agg.Count != 0 {
		t.Fatalf("agg.Count = %d, want 0", agg.Count)
	}
	if agg.Average != nil {
		t.Fatalf("agg.Average = %v, want nil", *agg.Average)
	}
}

func TestRepository_WithTxRollsBack(t *testing.T) {
	env := newTestEnv(t)

	sentinel := errors.New("abort")
	err := env.repository.WithTx(env.ctx, func(tx *Repository) error {
		if _, err := tx.Users.Create(env.ctx, UserCreateParams{
			Name: "Rolled Back", Email: "ghost@example.com", PasswordHash: "x", Role: domain.RoleUser,
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx err = %v, want sentinel", err)
	}

	exists, err := env.repository.Users.EmailExists(env.ctx, "ghost@example.com")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if exists {
		t.Fatalf("user survived rollback")
	}
}

func TestRatingsRepository_ConcurrentUpserts(t *testing.T) {
	env := newTestEnv(t)

	store := mustCreateStore(t, env, "Concurrent", "1 Road")
	const workers = 10
	raters := make([]int64, workers)
	for i := range raters {
		raters[i] = mustCreateUser(t, env, fmt.Sprintf("user-%d@example.com", i), domain.RoleUser).ID
	}

	var wg sync.WaitGroup
	for _, rater := range raters {
		wg.Add(1)
		go func(rater int64) {
			defer wg.Done()
			params := RatingUpsertParams{UserID: rater, StoreID: store.ID, Value: 4}
			if _, inserted, err := env.repository.Ratings.Upsert(env.ctx, params); err != nil {
				t.Errorf("upsert failed for %d: %v", rater, err)
			} else if !inserted {
				t.Errorf("expected insert for %d", rater)
			}
		}(rater)
	}
	wg.Wait()

	agg, err := env.repository.Ratings.Aggregate(env.ctx, store.ID)
	if err != nil {
		t.Fatalf("aggregate after concurrent upserts: %v", err)
	}
	if agg.Count != workers {
		t.Fatalf("agg.Count = %d, want %d", agg.Count, workers)
	}
}

func TestParseSortKeys(t *testing.T) {
	if _, ok := ParseStoreSort("rating"); !ok {
		t.Fatalf("rating should be a valid store sort")
	}
	if key, ok := ParseStoreSort("averageRating"); !ok || key != StoreSortRating {
		t.Fatalf("averageRating alias = %q, %v", key, ok)
	}
	if _, ok := ParseStoreSort("owner_id; DROP TABLE stores"); ok {
		t.Fatalf("arbitrary sort key accepted")
	}
	if _, ok := ParseStoreSort("createdAt"); ok {
		t.Fatalf("createdAt should not be caller-selectable for stores")
	}
	if key, ok := ParseUserSort("created_at"); !ok || key != UserSortCreatedAt {
		t.Fatalf("created_at alias = %q, %v", key, ok)
	}
	if _, ok := ParseSortOrder("DESC"); !ok {
		t.Fatalf("DESC should parse")
	}
	if _, ok := ParseSortOrder("sideways"); ok {
		t.Fatalf("unknown order accepted")
	}
}

func BenchmarkRatingsRepositoryUpsert(b *testing.B) {
	env := newTestEnv(b)

	store := mustCreateStore(b, env, "Bench", "1 Road")
	user := mustCreateUser(b, env, "bench@example.com", domain.RoleUser)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := env.repository.Ratings.Upsert(env.ctx, RatingUpsertParams{
			UserID:  user.ID,
			StoreID: store.ID,
			Value:   i%5 + 1,
		})
		if err != nil {
			b.Fatalf("upsert: %v", err)
		}
	}
}
