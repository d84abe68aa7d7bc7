package analytics

import (
	"context"

	"bookreview/internal/book"
)

// Service answers the read-only catalog aggregates.
type Service struct {
	repo book.Repository
}

func NewService(repo book.Repository) *Service {
	return &Service{repo: repo}
}

// AverageRating returns the rounded mean rating of every book by author.
func (s *Service) AverageRating(ctx context.Context, author string) (AuthorRating, error) {
	books, err := s.repo.FindByAuthor(ctx, author)
	if err != nil {
		return AuthorRating{}, err
	}
	if len(books) == 0 {
		return AuthorRating{}, ErrNoBooks
	}

	var sum float64
	for _, b := range books {
		sum += b.Rating
	}
	return AuthorRating{
		Author:        author,
		AverageRating: roundRating(sum / float64(len(books))),
	}, nil
}

// MostReviewed returns the first book, in store order, with the most reviews.
func (s *Service) MostReviewed(ctx context.Context) (ReviewCount, error) {
	books, err := s.repo.FindAll(ctx)
	if err != nil {
		return ReviewCount{}, err
	}
	if len(books) == 0 {
		return ReviewCount{}, ErrNoBooks
	}

	best := 0
	for i := 1; i < len(books); i++ {
		if len(books[i].Reviews) > len(books[best].Reviews) {
			best = i
		}
	}
	return ReviewCount{Title: books[best].Title, ReviewCount: len(books[best].Reviews)}, nil
}

func (s *Service) BooksPerGenre(ctx context.Context) ([]book.GenreCount, error) {
	counts, err := s.repo.GroupCountByGenre(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []book.GenreCount{}
	}
	return counts, nil
}

// TopRated returns up to TopRatedLimit books by descending rating.
func (s *Service) TopRated(ctx context.Context) ([]RatedBook, error) {
	books, err := s.repo.FindSortedByRating(ctx, TopRatedLimit)
	if err != nil {
		return nil, err
	}

	out := make([]RatedBook, 0, len(books))
	for _, b := range books {
		out = append(out, RatedBook{Title: b.Title, Rating: b.Rating})
	}
	return out, nil
}
