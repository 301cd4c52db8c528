package books

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math"
	"slices"
	"strings"

	"github.com/jmgilman/go/errors"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiered-cache/cache"
)

// searchable lists the columns accepted in a List filter.
var searchable = []string{"title", "author", "isbn"}

// Store persists books with bun. It is the source of truth behind the cache.
type Store struct {
	db bun.IDB
}

var _ cache.Store[int64, Book] = (*Store)(nil)

// NewStore returns a Store over db.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// Get returns the book with id.
func (s *Store) Get(ctx context.Context, id int64) (Book, error) {
	var book Book

	err := s.db.NewSelect().
		Model(&book).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Book{}, cache.NotFound(id)
		}
		return Book{}, dbError(err, "select", id)
	}
	return book, nil
}

// Create inserts book and returns its assigned id. Any id on book is ignored.
func (s *Store) Create(ctx context.Context, book Book) (int64, error) {
	if err := book.Validate(); err != nil {
		return 0, err
	}

	book.ID = 0
	if _, err := s.db.NewInsert().Model(&book).Exec(ctx); err != nil {
		return 0, dbError(err, "insert", nil)
	}
	return book.ID, nil
}

// Update replaces the book with id. A missing id is a not-found error.
func (s *Store) Update(ctx context.Context, id int64, book Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	book.ID = id
	res, err := s.db.NewUpdate().
		Model(&book).
		Column("title", "author", "isbn").
		WherePK().
		Exec(ctx)
	if err != nil {
		return dbError(err, "update", id)
	}
	return requireRow(res, id)
}

// Upsert writes book under id, inserting it when absent.
func (s *Store) Upsert(ctx context.Context, id int64, book Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	book.ID = id
	_, err := s.db.NewInsert().
		Model(&book).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("author = EXCLUDED.author").
		Set("isbn = EXCLUDED.isbn").
		Exec(ctx)
	if err != nil {
		return dbError(err, "upsert", id)
	}
	return nil
}

// Delete removes the book with id. A missing id is a not-found error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Model((*Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return dbError(err, "delete", id)
	}
	return requireRow(res, id)
}

// List returns books ordered by id. Each filter entry is a literal substring
// match on a searchable column; empty values are ignored. A non-positive
// limit returns every row after offset.
func (s *Store) List(ctx context.Context, filter cache.Predicate, offset, limit int) ([]Book, error) {
	books := make([]Book, 0)

	q := s.db.NewSelect().Model(&books)
	for field, value := range filter {
		column := strings.ToLower(field)
		if !slices.Contains(searchable, column) {
			return nil, errors.WithContext(
				errors.Newf(errors.CodeInvalidInput, "books: cannot filter on %q", field),
				"field", field,
			)
		}
		if value == "" {
			continue
		}
		q = q.Where(`?TableAlias.? LIKE ? ESCAPE '\'`, bun.Ident(column), "%"+likeEscaper.Replace(value)+"%")
	}

	if limit <= 0 {
		limit = math.MaxInt32
	}

	err := q.OrderExpr("?TableAlias.id ASC").
		Offset(max(offset, 0)).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, dbError(err, "list", nil)
	}
	return books, nil
}

// likeEscaper makes LIKE wildcards in filter values match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err, "rows affected", id)
	}
	if n == 0 {
		return cache.NotFound(id)
	}
	return nil
}

func dbError(err error, op string, id any) error {
	if isUniqueViolation(err) {
		return errors.WithContext(
			errors.Wrap(err, errors.CodeAlreadyExists, "books: a book with this title already exists"),
			"op", op,
		)
	}

	wrapped := errors.Wrapf(err, errors.CodeDatabase, "books: %s failed", op)
	if id != nil {
		return errors.WithContext(wrapped, "id", id)
	}
	return wrapped
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
