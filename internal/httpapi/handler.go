// Package httpapi exposes the books inventory over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmgilman/go/errors"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/internal/books"
	"github.com/goliatone/go-tiered-cache/repositorycache"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	healthTimeout   = 2 * time.Second
)

// Books is the cached book repository served by the API.
type Books interface {
	Load(ctx context.Context, id int64) (books.Book, bool, error)
	Create(ctx context.Context, book books.Book) (int64, error)
	Put(ctx context.Context, id int64, book books.Book) error
	Invalidate(ctx context.Context, id int64) error
	List(ctx context.Context, filter cache.Predicate, offset, limit int) ([]books.Book, error)
	Stats() repositorycache.Stats
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server routes HTTP requests to a Books repository.
type Server struct {
	books  Books
	checks map[string]HealthCheck
	logger *slog.Logger
	router chi.Router
}

// NewServer builds the router. A nil logger discards.
func NewServer(b Books, checks map[string]HealthCheck, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		books:  b,
		checks: checks,
		logger: logger.With("component", "httpapi"),
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.health)
	s.router.Get("/debug/cache", s.stats)
	s.router.Post("/addBook", s.wrap(s.addBook))

	s.router.Route("/books", func(r chi.Router) {
		r.Get("/", s.wrap(s.listBooks))
		r.Get("/search", s.wrap(s.searchBooks))
		r.Get("/{id}", s.wrap(s.getBook))
		r.Put("/{id}", s.wrap(s.updateBook))
		r.Delete("/{id}", s.wrap(s.deleteBook))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type bookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type createdResponse struct {
	BookID int64 `json:"bookId"`
}

func (s *Server) addBook(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeBook(r)
	if err != nil {
		return err
	}

	id, err := s.books.Create(r.Context(), books.Book{Title: req.Title, Author: req.Author, ISBN: req.ISBN})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, createdResponse{BookID: id})
	return nil
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) error {
	id, err := bookID(r)
	if err != nil {
		return err
	}

	book, found, err := s.books.Load(r.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return bookNotFound{id: id}
	}

	writeJSON(w, http.StatusOK, book)
	return nil
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) error {
	id, err := bookID(r)
	if err != nil {
		return err
	}

	req, err := decodeBook(r)
	if err != nil {
		return err
	}

	book := books.Book{ID: id, Title: req.Title, Author: req.Author, ISBN: req.ISBN}
	if err := s.books.Put(r.Context(), id, book); err != nil {
		if cache.IsNotFound(err) {
			return bookNotFound{id: id}
		}
		return err
	}

	writeJSON(w, http.StatusOK, book)
	return nil
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) error {
	id, err := bookID(r)
	if err != nil {
		return err
	}

	if err := s.books.Invalidate(r.Context(), id); err != nil {
		if cache.IsNotFound(err) {
			return bookNotFound{id: id}
		}
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) error {
	return s.list(w, r, nil)
}

func (s *Server) searchBooks(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := cache.Predicate{}
	for _, field := range []string{"title", "author", "isbn"} {
		if v := q.Get(field); v != "" {
			filter[field] = v
		}
	}
	return s.list(w, r, filter)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, filter cache.Predicate) error {
	page, size, err := pagination(r)
	if err != nil {
		return err
	}

	result, err := s.books.List(r.Context(), filter, (page-1)*size, size)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp)
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.books.Stats())
}

func bookID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "invalid book id %q", raw),
			"id", raw,
		)
	}
	return id, nil
}

func decodeBook(r *http.Request) (bookRequest, error) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.Wrap(err, errors.CodeInvalidInput, "malformed book payload")
	}
	return req, nil
}

func pagination(r *http.Request) (page, size int, err error) {
	q := r.URL.Query()

	page, err = queryInt(q.Get("page"), "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err = queryInt(q.Get("pageSize"), "pageSize", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}

	if page < 1 {
		return 0, 0, errors.WithContext(errors.New(errors.CodeInvalidInput, "page must be at least 1"), "page", page)
	}
	if size < 1 || size > maxPageSize {
		return 0, 0, errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "pageSize must be between 1 and %d", maxPageSize),
			"pageSize", size,
		)
	}
	return page, size, nil
}

func queryInt(raw, name string, defaultValue int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.WithContext(
			errors.Wrapf(err, errors.CodeInvalidInput, "%s must be an integer", name),
			name, raw,
		)
	}
	return n, nil
}
