package book

import (
	"context"
	"errors"
)

// NewBook carries the validated fields of a create request.
type NewBook struct {
	Title   string
	Author  string
	Genre   string
	Rating  float64
	Reviews []string
}

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new book unless the title is already taken.
func (s *Service) Create(ctx context.Context, nb NewBook) (Book, error) {
	exists, err := s.repo.ExistsByTitle(ctx, nb.Title)
	if err != nil {
		return Book{}, err
	}
	if exists {
		return Book{}, ErrDuplicateTitle
	}

	b := Book{
		Title:   nb.Title,
		Author:  nb.Author,
		Genre:   nb.Genre,
		Rating:  nb.Rating,
		Reviews: nb.Reviews,
	}
	b.Normalize()

	// The unique index reports concurrent creates that slipped past the check above.
	if err := s.repo.Insert(ctx, &b); err != nil {
		return Book{}, err
	}
	return b, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	books, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeAll(books), nil
}

// GetByTitle returns the book with exactly this title.
func (s *Service) GetByTitle(ctx context.Context, title string) (Book, error) {
	b, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		return Book{}, err
	}
	b.Normalize()
	return b, nil
}

// GetByID returns the book with the given store id.
func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	b.Normalize()
	return b, nil
}

// Update applies patch to the book with this title.
func (s *Service) Update(ctx context.Context, title string, patch Patch) error {
	matched, err := s.repo.UpdateByTitle(ctx, title, patch)
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the book with this title.
func (s *Service) Delete(ctx context.Context, title string) error {
	deleted, err := s.repo.DeleteByTitle(ctx, title)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview appends review to the book's reviews.
func (s *Service) AddReview(ctx context.Context, title, review string) error {
	matched, err := s.repo.AppendReview(ctx, title, review)
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// Search returns books whose title contains query, ignoring case.
// ErrNotFound is returned when nothing matches.
func (s *Service) Search(ctx context.Context, query string) ([]Book, error) {
	books, err := s.repo.SearchByTitle(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return normalizeAll(books), nil
}

// Ready reports whether the backing store answers.
func (s *Service) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return errors.Join(errors.New("store not ready"), err)
	}
	return nil
}

func normalizeAll(books []Book) []Book {
	if books == nil {
		return []Book{}
	}
	for i := range books {
		books[i].Normalize()
	}
	return books
}
