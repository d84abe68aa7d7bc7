package book

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks bookreview/internal/book Repository

// Repository defines the contract for book data storage.
// It is the only layer aware of store identifiers and query syntax.
type Repository interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	FindByTitle(ctx context.Context, title string) (Book, error)
	FindByID(ctx context.Context, id string) (Book, error)
	FindAll(ctx context.Context) ([]Book, error)
	FindByAuthor(ctx context.Context, author string) ([]Book, error)
	Insert(ctx context.Context, b *Book) error
	UpdateByTitle(ctx context.Context, title string, patch Patch) (int64, error)
	AppendReview(ctx context.Context, title, review string) (int64, error)
	DeleteByTitle(ctx context.Context, title string) (int64, error)
	SearchByTitle(ctx context.Context, query string) ([]Book, error)
	GroupCountByGenre(ctx context.Context) ([]GenreCount, error)
	FindSortedByRating(ctx context.Context, limit int) ([]Book, error)
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
}
