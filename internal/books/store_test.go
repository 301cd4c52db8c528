package books_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/internal/books"
	"github.com/goliatone/go-tiered-cache/pkg/testsupport"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := books.OpenDB(ctx, books.DriverSQLite, dsn, 1, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, books.Migrate(ctx, db, slog.New(slog.DiscardHandler)))
	return db
}

func seed(t *testing.T, store *books.Store) []books.Book {
	t.Helper()

	var fixtures []books.Book
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("books.json"), &fixtures)

	for i := range fixtures {
		id, err := store.Create(context.Background(), fixtures[i])
		require.NoError(t, err)
		fixtures[i].ID = id
	}
	return fixtures
}

func TestStore_CreateGet(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	ctx := context.Background()

	id, err := store.Create(ctx, books.Book{ID: 99, Title: "t1", Author: "a1", ISBN: "isbn1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id, "ids are assigned by the store")

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, books.Book{ID: 1, Title: "t1", Author: "a1", ISBN: "isbn1"}, got)

	_, err = store.Get(ctx, 404)
	require.Error(t, err)
	assert.True(t, cache.IsNotFound(err))
}

func TestStore_CreateErrors(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	ctx := context.Background()

	_, err := store.Create(ctx, books.Book{Title: "t1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		book books.Book
		code errors.ErrorCode
	}{
		{name: "duplicate title", book: books.Book{Title: "t1"}, code: errors.CodeAlreadyExists},
		{name: "missing title", book: books.Book{Author: "a1"}, code: errors.CodeInvalidInput},
		{name: "isbn too long", book: books.Book{Title: "t2", ISBN: strings.Repeat("9", 40)}, code: errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.book)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestStore_Update(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	fixtures := seed(t, store)
	ctx := context.Background()

	updated := fixtures[0]
	updated.Title = "t1_db_updated"
	require.NoError(t, store.Update(ctx, updated.ID, updated))

	got, err := store.Get(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, "t1_db_updated", got.Title)

	err = store.Update(ctx, 404, updated)
	assert.True(t, cache.IsNotFound(err))

	clash := fixtures[1]
	clash.Title = "t1_db_updated"
	err = store.Update(ctx, clash.ID, clash)
	assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))
}

func TestStore_Upsert(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, 7, books.Book{Title: "t1", Author: "a1", ISBN: "isbn1"}))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.Title)

	require.NoError(t, store.Upsert(ctx, 7, books.Book{Title: "t2", Author: "a2", ISBN: "isbn2"}))

	got, err = store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, books.Book{ID: 7, Title: "t2", Author: "a2", ISBN: "isbn2"}, got)
}

func TestStore_Delete(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	fixtures := seed(t, store)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, fixtures[2].ID))

	_, err := store.Get(ctx, fixtures[2].ID)
	assert.True(t, cache.IsNotFound(err))

	err = store.Delete(ctx, fixtures[2].ID)
	assert.True(t, cache.IsNotFound(err))
}

func TestStore_ListPagination(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	seed(t, store)
	ctx := context.Background()

	tests := []struct {
		name    string
		offset  int
		limit   int
		wantIDs []int64
	}{
		{name: "first page", offset: 0, limit: 2, wantIDs: []int64{1, 2}},
		{name: "second page", offset: 2, limit: 2, wantIDs: []int64{3, 4}},
		{name: "partial page", offset: 4, limit: 2, wantIDs: []int64{5}},
		{name: "past the end", offset: 10, limit: 2, wantIDs: []int64{}},
		{name: "unbounded", offset: 1, limit: 0, wantIDs: []int64{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, nil, tt.offset, tt.limit)
			require.NoError(t, err)
			require.NotNil(t, got)

			ids := make([]int64, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStore_ListFilter(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	seed(t, store)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter cache.Predicate
		want   int
	}{
		{name: "title", filter: cache.Predicate{"title": "Designing"}, want: 2},
		{name: "author", filter: cache.Predicate{"author": "Huyen"}, want: 1},
		{name: "isbn", filter: cache.Predicate{"isbn": "9781492"}, want: 1},
		{name: "combined", filter: cache.Predicate{"title": "Designing", "author": "Kleppmann"}, want: 1},
		{name: "empty values are ignored", filter: cache.Predicate{"title": "", "author": ""}, want: 5},
		{name: "no match", filter: cache.Predicate{"title": "Cobol"}, want: 0},
		{name: "percent is literal", filter: cache.Predicate{"title": "%"}, want: 0},
		{name: "underscore is literal", filter: cache.Predicate{"title": "_"}, want: 0},
		{name: "backslash is literal", filter: cache.Predicate{"title": `\`}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter, 0, 0)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	_, err := store.List(ctx, cache.Predicate{"price": "10"}, 0, 0)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestStore_ListFilterWildcardsInTitles(t *testing.T) {
	store := books.NewStore(newTestDB(t))
	seed(t, store)
	ctx := context.Background()

	percent, err := store.Create(ctx, books.Book{Title: "100% Go", Author: "a1", ISBN: "isbn1"})
	require.NoError(t, err)
	underscore, err := store.Create(ctx, books.Book{Title: "snake_case style", Author: "a2", ISBN: "isbn2"})
	require.NoError(t, err)

	got, err := store.List(ctx, cache.Predicate{"title": "%"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, percent, got[0].ID)

	got, err = store.List(ctx, cache.Predicate{"title": "e_c"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, underscore, got[0].ID)

	got, err = store.List(ctx, cache.Predicate{"title": "0%"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% Go", got[0].Title)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, books.Migrate(context.Background(), db, slog.New(slog.DiscardHandler)))
}

func TestOpenDB_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		driver string
		dsn    string
	}{
		{name: "empty dsn", driver: books.DriverSQLite, dsn: ""},
		{name: "unknown driver", driver: "oracle", dsn: "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := books.OpenDB(ctx, tt.driver, tt.dsn, 1, 0)
			require.Error(t, err)
			assert.Nil(t, db)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}
}
