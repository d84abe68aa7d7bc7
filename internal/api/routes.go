package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookreview/internal/analytics"
	"bookreview/internal/book"
	"bookreview/internal/httpx"
	"bookreview/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const readyTimeout = 2 * time.Second

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Books          book.Repository
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// NewRouter creates a new router with all routes configured
func NewRouter(d Deps) (*chi.Mux, error) {
	index, err := web.NewIndexHandler()
	if err != nil {
		return nil, err
	}

	bookService := book.NewService(d.Books)
	books := book.NewHTTPHandler(bookService)
	stats := analytics.NewHTTPHandler(analytics.NewService(d.Books))

	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware)
	r.Use(httpx.CORSMiddleware(d.AllowedOrigins))
	r.Use(httpx.RequestSizeLimitMiddleware(d.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Method(http.MethodGet, "/", index)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := bookService.Ready(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err, "request_id", httpx.RequestIDFrom(r))
			httpx.WriteError(w, http.StatusServiceUnavailable, "Store not ready")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/books", func(r chi.Router) {
		r.Post("/", books.Create)
		r.Get("/", books.List)
		r.Get("/search", books.Search)
		r.Get("/{title}", books.GetByTitle)
		r.Put("/{title}", books.Update)
		r.Delete("/{title}", books.Delete)
		r.Post("/{title}/review", books.AddReview)
	})
	r.Get("/book/{id}", books.GetByID)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/avg_rating/{author}", stats.AverageRating)
		r.Get("/most_reviewed", stats.MostReviewed)
		r.Get("/books_per_genre", stats.BooksPerGenre)
		r.Get("/top_rated", stats.TopRated)
	})

	return r, nil
}
