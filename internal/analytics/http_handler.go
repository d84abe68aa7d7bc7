package analytics

import (
	"errors"
	"net/http"

	"bookreview/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// AverageRating handles GET /analytics/avg_rating/{author}
func (h *HTTPHandler) AverageRating(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.AverageRating(r.Context(), httpx.PathParam(r, "author"))
	if err != nil {
		if errors.Is(err, ErrNoBooks) {
			httpx.WriteError(w, http.StatusNotFound, "No books found for this author")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// MostReviewed handles GET /analytics/most_reviewed
func (h *HTTPHandler) MostReviewed(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.MostReviewed(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoBooks) {
			httpx.WriteError(w, http.StatusNotFound, "No books found")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// BooksPerGenre handles GET /analytics/books_per_genre
func (h *HTTPHandler) BooksPerGenre(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.BooksPerGenre(r.Context())
	if err != nil {
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// TopRated handles GET /analytics/top_rated
func (h *HTTPHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.TopRated(r.Context())
	if err != nil {
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
