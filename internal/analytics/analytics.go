package analytics

import (
	"errors"
	"math"
)

// ErrNoBooks is returned when an aggregate has no books to work on.
var ErrNoBooks = errors.New("no books found")

// TopRatedLimit is how many books the top-rated query returns.
const TopRatedLimit = 3

// AuthorRating is the mean rating of one author's books.
type AuthorRating struct {
	Author        string  `json:"author"`
	AverageRating float64 `json:"average_rating"`
}

// ReviewCount identifies the book with the most reviews.
type ReviewCount struct {
	Title       string `json:"title"`
	ReviewCount int    `json:"review_count"`
}

// RatedBook is the projection returned by the top-rated query.
type RatedBook struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// roundRating rounds half away from zero at two fractional digits.
func roundRating(x float64) float64 {
	return math.Round(x*100) / 100
}
