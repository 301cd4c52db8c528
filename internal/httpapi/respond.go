package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmgilman/go/errors"
)

// handlerFunc is an http handler that reports failures instead of writing them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// notFoundBody is the payload returned when a book id does not exist.
type notFoundBody struct {
	Message string `json:"message"`
	BookID  int64  `json:"bookId"`
}

// bookNotFound is returned by handlers to render notFoundBody.
type bookNotFound struct {
	id int64
}

func (e bookNotFound) Error() string {
	return "book not found"
}

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var nf bookNotFound
	if errors.As(err, &nf) {
		writeJSON(w, http.StatusNotFound, notFoundBody{Message: "Book not found", BookID: nf.id})
		return
	}

	resp := errors.ToJSON(err)
	status := statusFor(errors.GetCode(err))

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", resp.Code,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)

	writeJSON(w, status, resp)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeAlreadyExists, errors.CodeConflict:
		return http.StatusConflict
	case errors.CodeDatabase, errors.CodeNetwork, errors.CodeUnavailable, errors.CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
