// Package web serves the static landing page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/index.html
var templatesFS embed.FS

// Endpoint is one row of the landing page's route table.
type Endpoint struct {
	Method  string
	Path    string
	Summary string
}

// Endpoints lists the public API routes.
var Endpoints = []Endpoint{
	{http.MethodPost, "/books", "Add a book"},
	{http.MethodGet, "/books", "List every book"},
	{http.MethodGet, "/books/search?query=", "Search titles"},
	{http.MethodGet, "/books/{title}", "Get a book by title"},
	{http.MethodPut, "/books/{title}", "Update author, genre, rating or reviews"},
	{http.MethodDelete, "/books/{title}", "Delete a book"},
	{http.MethodPost, "/books/{title}/review", "Add a review"},
	{http.MethodGet, "/book/{id}", "Get a book by id"},
	{http.MethodGet, "/analytics/avg_rating/{author}", "Average rating of an author"},
	{http.MethodGet, "/analytics/most_reviewed", "Book with the most reviews"},
	{http.MethodGet, "/analytics/books_per_genre", "Book count per genre"},
	{http.MethodGet, "/analytics/top_rated", "Three highest rated books"},
}

// NewIndexHandler renders the landing page once and serves the bytes.
func NewIndexHandler() (http.Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Title     string
		Endpoints []Endpoint
	}{
		Title:     "Book Review Service",
		Endpoints: Endpoints,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render index template: %w", err)
	}
	page := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	}), nil
}
