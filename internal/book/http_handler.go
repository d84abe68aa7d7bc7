package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"strings"

	"bookreview/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createBookRequest struct {
	Title   string   `json:"title" validate:"required"`
	Author  string   `json:"author" validate:"required"`
	Genre   *string  `json:"genre" validate:"required"`
	Rating  *float64 `json:"rating"`
	Reviews []string `json:"reviews"`
}

type addReviewRequest struct {
	Review string `json:"review" validate:"required"`
}

// createFieldMessages keeps the wording clients of the service already rely on.
var createFieldMessages = map[string]string{
	"title":  "Title is required and must be a string",
	"author": "Author is required and must be a string",
	"genre":  "Genre is required and must be a string",
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, createFieldMessages)
		return
	}
	if errs := httpx.ValidateStruct(req); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, messageFor(errs[0], createFieldMessages))
		return
	}

	nb := NewBook{
		Title:   req.Title,
		Author:  req.Author,
		Genre:   *req.Genre,
		Reviews: req.Reviews,
	}
	if req.Rating != nil {
		nb.Rating = *req.Rating
	}

	if _, err := h.service.Create(r.Context(), nb); err != nil {
		if errors.Is(err, ErrDuplicateTitle) {
			httpx.WriteError(w, http.StatusConflict, "Book with this title already exists")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusCreated, "Book added successfully")
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, books)
}

// GetByTitle handles GET /books/{title}
func (h *HTTPHandler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByTitle(r.Context(), httpx.PathParam(r, "title"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Book not found")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

// GetByID handles GET /book/{id}
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetByID(r.Context(), httpx.PathParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			httpx.WriteError(w, http.StatusBadRequest, "Invalid ID")
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "Book not found")
		default:
			httpx.WriteInternalError(w, r, err)
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

// Update handles PUT /books/{title}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, status, message := decodePatch(r)
	if status != 0 {
		httpx.WriteError(w, status, message)
		return
	}

	if err := h.service.Update(r.Context(), httpx.PathParam(r, "title"), patch); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Book not found")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Book updated successfully")
}

// Delete handles DELETE /books/{title}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httpx.PathParam(r, "title")); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Book not found")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Book deleted successfully")
}

// AddReview handles POST /books/{title}/review
func (h *HTTPHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	reviewMessages := map[string]string{"review": "Review is required"}

	var req addReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, reviewMessages)
		return
	}
	if errs := httpx.ValidateStruct(req); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, messageFor(errs[0], reviewMessages))
		return
	}

	if err := h.service.AddReview(r.Context(), httpx.PathParam(r, "title"), req.Review); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Book not found")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Review added successfully")
}

// Search handles GET /books/search?query=...
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	books, err := h.service.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "No books found")
			return
		}
		httpx.WriteInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, books)
}

// decodePatch accepts only the updatable fields, each with its JSON type.
// A non-zero status means the body was rejected with the returned message.
func decodePatch(r *http.Request) (Patch, int, string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return Patch{}, http.StatusRequestEntityTooLarge, "Request body too large"
		}
		return Patch{}, http.StatusBadRequest, "Request body must be a JSON object"
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return Patch{}, http.StatusBadRequest, "Request body must be a JSON object"
	}

	var rejected []string
	for key := range raw {
		if !slices.Contains(UpdatableFields, key) {
			rejected = append(rejected, key)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return Patch{}, http.StatusBadRequest, "Fields not updatable: " + strings.Join(rejected, ", ")
	}

	var patch Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Patch{}, http.StatusBadRequest, fmt.Sprintf("Field %s has the wrong type", typeErr.Field)
		}
		return Patch{}, http.StatusBadRequest, "Request body must be a JSON object"
	}
	if patch.IsEmpty() {
		return Patch{}, http.StatusBadRequest, "No updatable fields provided"
	}
	if patch.Author != nil && *patch.Author == "" {
		return Patch{}, http.StatusBadRequest, "Author must not be empty"
	}
	return patch, 0, ""
}

func writeDecodeError(w http.ResponseWriter, err error, fieldMessages map[string]string) {
	if errors.Is(err, httpx.ErrBodyTooLarge) {
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	var typeErr *httpx.TypeError
	if errors.As(err, &typeErr) {
		if msg, ok := fieldMessages[typeErr.Field]; ok {
			httpx.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		if typeErr.Field != "" {
			httpx.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Field %s has the wrong type", typeErr.Field))
			return
		}
	}
	httpx.WriteError(w, http.StatusBadRequest, "Request body must be a JSON object")
}

func messageFor(fe httpx.FieldError, fieldMessages map[string]string) string {
	if msg, ok := fieldMessages[fe.Field]; ok {
		return msg
	}
	return fe.Message
}
