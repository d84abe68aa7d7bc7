package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"bookreview/internal/book"
)

// SampleBooks is a small catalog used across handler and router tests.
func SampleBooks() []book.Book {
	return []book.Book{
		{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Rating: 4.5, Reviews: []string{"epic", "dense"}},
		{Title: "Emma", Author: "Jane Austen", Genre: "Classic", Rating: 4.0, Reviews: []string{"witty"}},
		{Title: "Persuasion", Author: "Jane Austen", Genre: "Classic", Rating: 3.5},
		{Title: "Neuromancer", Author: "William Gibson", Genre: "Sci-Fi", Rating: 4.2, Reviews: []string{"sharp", "fast", "cold"}},
	}
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		if raw, ok := body.(string); ok {
			bodyBytes = []byte(raw)
		} else {
			bodyBytes, _ = json.Marshal(body)
		}
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Raw    []byte
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response. Body is only filled for JSON objects.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Raw:    bodyBytes,
		Body:   bodyMap,
	}
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}

// AssertResponseBody checks if the response body contains expected field
func AssertResponseBody(t interface {
	Errorf(format string, args ...any)
}, body map[string]interface{}, key string, expectedValue interface{}) {
	value, ok := body[key]
	if !ok {
		t.Errorf("response body missing key %q", key)
		return
	}
	if value != expectedValue {
		t.Errorf("got %q for key %q, want %q", value, key, expectedValue)
	}
}
