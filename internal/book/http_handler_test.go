package book_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookreview/internal/book"
	"bookreview/internal/book/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) (*book.HTTPHandler, *mocks.MockRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockRepository(ctrl)
	return book.NewHTTPHandler(book.NewService(mockRepo)), mockRepo
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestHTTPHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *mocks.MockRepository)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "success with defaults",
			body: `{"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi"}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().ExistsByTitle(gomock.Any(), "Dune").Return(false, nil)
				m.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *book.Book) error {
					assert.Equal(t, 0.0, b.Rating)
					assert.Equal(t, []string{}, b.Reviews)
					b.ID = "abc"
					return nil
				})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "empty genre is accepted",
			body: `{"title":"Dune","author":"Frank Herbert","genre":"","rating":4.5,"reviews":["great"]}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().ExistsByTitle(gomock.Any(), "Dune").Return(false, nil)
				m.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *book.Book) error {
					assert.Equal(t, "", b.Genre)
					assert.Equal(t, 4.5, b.Rating)
					assert.Equal(t, []string{"great"}, b.Reviews)
					return nil
				})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing title",
			body:           `{"author":"Frank Herbert","genre":"Sci-Fi"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Title is required and must be a string",
		},
		{
			name:           "title wrong type",
			body:           `{"title":42,"author":"Frank Herbert","genre":"Sci-Fi"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Title is required and must be a string",
		},
		{
			name:           "empty author",
			body:           `{"title":"Dune","author":"","genre":"Sci-Fi"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Author is required and must be a string",
		},
		{
			name:           "missing genre",
			body:           `{"title":"Dune","author":"Frank Herbert"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Genre is required and must be a string",
		},
		{
			name:           "rating wrong type",
			body:           `{"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi","rating":"high"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Field rating has the wrong type",
		},
		{
			name:           "not json",
			body:           `title=Dune`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Request body must be a JSON object",
		},
		{
			name: "duplicate title from existence check",
			body: `{"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi"}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().ExistsByTitle(gomock.Any(), "Dune").Return(true, nil)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Book with this title already exists",
		},
		{
			name: "duplicate title from unique index",
			body: `{"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi"}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().ExistsByTitle(gomock.Any(), "Dune").Return(false, nil)
				m.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(book.ErrDuplicateTitle)
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Book with this title already exists",
		},
		{
			name: "store failure",
			body: `{"title":"Dune","author":"Frank Herbert","genre":"Sci-Fi"}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().ExistsByTitle(gomock.Any(), "Dune").Return(false, errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockRepo := newHandler(t)
			if tt.setupMock != nil {
				tt.setupMock(mockRepo)
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			handler.Create(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
			} else {
				assert.JSONEq(t, `{"message":"Book added successfully"}`, w.Body.String())
			}
		})
	}
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().FindAll(gomock.Any()).Return([]book.Book{
			{ID: "1", Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Rating: 4.5},
		}, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t,
			`[{"_id":"1","title":"Dune","author":"Frank Herbert","genre":"Sci-Fi","rating":4.5,"reviews":[]}]`,
			w.Body.String())
	})

	t.Run("empty catalog is an empty array", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().FindAll(gomock.Any()).Return(nil, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().FindAll(gomock.Any()).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w))
	})
}

func TestHTTPHandler_GetByTitle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().FindByTitle(gomock.Any(), "Dune").Return(book.Book{ID: "1", Title: "Dune"}, nil)

		w := httptest.NewRecorder()
		r := withParam(httptest.NewRequest(http.MethodGet, "/books/Dune", nil), "title", "Dune")
		handler.GetByTitle(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var got book.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Dune", got.Title)
		assert.Equal(t, []string{}, got.Reviews)
	})

	t.Run("not found", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().FindByTitle(gomock.Any(), "Missing").Return(book.Book{}, book.ErrNotFound)

		w := httptest.NewRecorder()
		r := withParam(httptest.NewRequest(http.MethodGet, "/books/Missing", nil), "title", "Missing")
		handler.GetByTitle(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Book not found", decodeError(t, w))
	})
}

func TestHTTPHandler_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		returnErr      error
		expectedStatus int
	}{
		{name: "success", id: "65f1c0ffee", expectedStatus: http.StatusOK},
		{name: "invalid id", id: "xyz", returnErr: book.ErrInvalidID, expectedStatus: http.StatusBadRequest},
		{name: "not found", id: "65f1c0ffee", returnErr: book.ErrNotFound, expectedStatus: http.StatusNotFound},
		{name: "store failure", id: "65f1c0ffee", returnErr: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockRepo := newHandler(t)
			mockRepo.EXPECT().FindByID(gomock.Any(), tt.id).Return(book.Book{ID: tt.id, Title: "Dune"}, tt.returnErr)

			w := httptest.NewRecorder()
			r := withParam(httptest.NewRequest(http.MethodGet, "/book/"+tt.id, nil), "id", tt.id)
			handler.GetByID(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusBadRequest {
				assert.Equal(t, "Invalid ID", decodeError(t, w))
			}
		})
	}
}

func TestHTTPHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *mocks.MockRepository)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "partial update",
			body: `{"rating":4.9}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().UpdateByTitle(gomock.Any(), "Dune", gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, p book.Patch) (int64, error) {
						require.NotNil(t, p.Rating)
						assert.Equal(t, 4.9, *p.Rating)
						assert.Nil(t, p.Author)
						assert.Nil(t, p.Genre)
						assert.Nil(t, p.Reviews)
						return 1, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "replace reviews",
			body: `{"reviews":["a","b"],"genre":"Classic"}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().UpdateByTitle(gomock.Any(), "Dune", gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, p book.Patch) (int64, error) {
						require.NotNil(t, p.Reviews)
						assert.Equal(t, []string{"a", "b"}, *p.Reviews)
						require.NotNil(t, p.Genre)
						assert.Equal(t, "Classic", *p.Genre)
						return 1, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "no match",
			body: `{"author":"Someone"}`,
			setupMock: func(m *mocks.MockRepository) {
				m.EXPECT().UpdateByTitle(gomock.Any(), "Dune", gomock.Any()).Return(int64(0), nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Book not found",
		},
		{
			name:           "title is not updatable",
			body:           `{"title":"Other"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Fields not updatable: title",
		},
		{
			name:           "id keys are not updatable",
			body:           `{"rating":3,"id":"1","_id":"2"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Fields not updatable: _id, id",
		},
		{
			name:           "empty object",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No updatable fields provided",
		},
		{
			name:           "not an object",
			body:           `["rating"]`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Request body must be a JSON object",
		},
		{
			name:           "wrong type",
			body:           `{"rating":"five"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Field rating has the wrong type",
		},
		{
			name:           "empty author",
			body:           `{"author":""}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Author must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockRepo := newHandler(t)
			if tt.setupMock != nil {
				tt.setupMock(mockRepo)
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPut, "/books/Dune", strings.NewReader(tt.body))
			handler.Update(w, withParam(r, "title", "Dune"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
			} else {
				assert.JSONEq(t, `{"message":"Book updated successfully"}`, w.Body.String())
			}
		})
	}
}

func TestHTTPHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().DeleteByTitle(gomock.Any(), "Dune").Return(int64(1), nil)

		w := httptest.NewRecorder()
		handler.Delete(w, withParam(httptest.NewRequest(http.MethodDelete, "/books/Dune", nil), "title", "Dune"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Book deleted successfully"}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().DeleteByTitle(gomock.Any(), "Dune").Return(int64(0), nil)

		w := httptest.NewRecorder()
		handler.Delete(w, withParam(httptest.NewRequest(http.MethodDelete, "/books/Dune", nil), "title", "Dune"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Book not found", decodeError(t, w))
	})
}

func TestHTTPHandler_AddReview(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		matched        int64
		callsRepo      bool
		expectedStatus int
		expectedError  string
	}{
		{name: "success", body: `{"review":"Loved it"}`, matched: 1, callsRepo: true, expectedStatus: http.StatusOK},
		{name: "book missing", body: `{"review":"Loved it"}`, matched: 0, callsRepo: true, expectedStatus: http.StatusNotFound, expectedError: "Book not found"},
		{name: "missing review", body: `{}`, expectedStatus: http.StatusBadRequest, expectedError: "Review is required"},
		{name: "empty review", body: `{"review":""}`, expectedStatus: http.StatusBadRequest, expectedError: "Review is required"},
		{name: "review wrong type", body: `{"review":5}`, expectedStatus: http.StatusBadRequest, expectedError: "Review is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockRepo := newHandler(t)
			if tt.callsRepo {
				mockRepo.EXPECT().AppendReview(gomock.Any(), "Dune", "Loved it").Return(tt.matched, nil)
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/books/Dune/review", strings.NewReader(tt.body))
			handler.AddReview(w, withParam(r, "title", "Dune"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
			} else {
				assert.JSONEq(t, `{"message":"Review added successfully"}`, w.Body.String())
			}
		})
	}
}

func TestHTTPHandler_Search(t *testing.T) {
	t.Run("matches", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().SearchByTitle(gomock.Any(), "dun").Return([]book.Book{{ID: "1", Title: "Dune"}}, nil)

		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/books/search?query=dun", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got []book.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Dune", got[0].Title)
	})

	t.Run("missing query", func(t *testing.T) {
		handler, _ := newHandler(t)

		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/books/search", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Query parameter is required", decodeError(t, w))
	})

	t.Run("no matches", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().SearchByTitle(gomock.Any(), "zzz").Return([]book.Book{}, nil)

		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/books/search?query=zzz", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "No books found", decodeError(t, w))
	})
}
