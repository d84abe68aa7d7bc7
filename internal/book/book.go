package book

import (
	"errors"
)

var (
	// ErrNotFound is returned when no book matches a lookup.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateTitle is returned when a book with the same title already exists.
	ErrDuplicateTitle = errors.New("book with this title already exists")
	// ErrInvalidID is returned when an id cannot be parsed as a store identifier.
	ErrInvalidID = errors.New("invalid book id")
)

// Book represents a catalog entry. ID is the string form of the store identifier.
type Book struct {
	ID      string   `json:"_id"`
	Title   string   `json:"title"`
	Author  string   `json:"author"`
	Genre   string   `json:"genre"`
	Rating  float64  `json:"rating"`
	Reviews []string `json:"reviews"`
}

// Normalize makes sure Reviews is never nil so it encodes as an empty array.
func (b *Book) Normalize() {
	if b.Reviews == nil {
		b.Reviews = []string{}
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Author  *string   `json:"author,omitempty"`
	Genre   *string   `json:"genre,omitempty"`
	Rating  *float64  `json:"rating,omitempty"`
	Reviews *[]string `json:"reviews,omitempty"`
}

// UpdatableFields lists the JSON keys accepted by Patch.
var UpdatableFields = []string{"author", "genre", "rating", "reviews"}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Author == nil && p.Genre == nil && p.Rating == nil && p.Reviews == nil
}

// Apply copies every present field of the patch onto b.
func (p Patch) Apply(b *Book) {
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.Reviews != nil {
		b.Reviews = append([]string{}, (*p.Reviews)...)
	}
}

// GenreCount is one row of the books-per-genre aggregation.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}
