package testutil

import (
	"cmp"
	"context"
	"regexp"
	"slices"
	"sync"

	"bookreview/internal/book"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-process book.Repository with ObjectID identifiers.
// Books are kept in insertion order.
type MemoryRepository struct {
	mu    sync.Mutex
	books []book.Book
	err   error
}

var _ book.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// FailWith makes every later call return err. Pass nil to recover.
func (m *MemoryRepository) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Seed inserts books and returns them with their assigned ids.
func (m *MemoryRepository) Seed(books ...book.Book) []book.Book {
	out := make([]book.Book, 0, len(books))
	for _, b := range books {
		if err := m.Insert(context.Background(), &b); err != nil {
			panic(err)
		}
		out = append(out, b)
	}
	return out
}

func (m *MemoryRepository) indexOf(title string) int {
	return slices.IndexFunc(m.books, func(b book.Book) bool { return b.Title == title })
}

func clone(b book.Book) book.Book {
	b.Reviews = append([]string{}, b.Reviews...)
	return b
}

func (m *MemoryRepository) filter(keep func(book.Book) bool) []book.Book {
	out := []book.Book{}
	for _, b := range m.books {
		if keep(b) {
			out = append(out, clone(b))
		}
	}
	return out
}

func (m *MemoryRepository) ExistsByTitle(_ context.Context, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.indexOf(title) >= 0, nil
}

func (m *MemoryRepository) FindByTitle(_ context.Context, title string) (book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return book.Book{}, m.err
	}
	i := m.indexOf(title)
	if i < 0 {
		return book.Book{}, book.ErrNotFound
	}
	return clone(m.books[i]), nil
}

func (m *MemoryRepository) FindByID(_ context.Context, id string) (book.Book, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return book.Book{}, book.ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return book.Book{}, m.err
	}
	i := slices.IndexFunc(m.books, func(b book.Book) bool { return b.ID == id })
	if i < 0 {
		return book.Book{}, book.ErrNotFound
	}
	return clone(m.books[i]), nil
}

func (m *MemoryRepository) FindAll(_ context.Context) ([]book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(book.Book) bool { return true }), nil
}

func (m *MemoryRepository) FindByAuthor(_ context.Context, author string) ([]book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(b book.Book) bool { return b.Author == author }), nil
}

func (m *MemoryRepository) Insert(_ context.Context, b *book.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.indexOf(b.Title) >= 0 {
		return book.ErrDuplicateTitle
	}
	b.Normalize()
	b.ID = primitive.NewObjectID().Hex()
	m.books = append(m.books, clone(*b))
	return nil
}

func (m *MemoryRepository) UpdateByTitle(_ context.Context, title string, patch book.Patch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	i := m.indexOf(title)
	if i < 0 {
		return 0, nil
	}
	patch.Apply(&m.books[i])
	m.books[i].Normalize()
	return 1, nil
}

func (m *MemoryRepository) AppendReview(_ context.Context, title, review string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	i := m.indexOf(title)
	if i < 0 {
		return 0, nil
	}
	m.books[i].Reviews = append(m.books[i].Reviews, review)
	return 1, nil
}

func (m *MemoryRepository) DeleteByTitle(_ context.Context, title string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	i := m.indexOf(title)
	if i < 0 {
		return 0, nil
	}
	m.books = slices.Delete(m.books, i, i+1)
	return 1, nil
}

func (m *MemoryRepository) SearchByTitle(_ context.Context, query string) ([]book.Book, error) {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.filter(func(b book.Book) bool { return re.MatchString(b.Title) }), nil
}

func (m *MemoryRepository) GroupCountByGenre(_ context.Context) ([]book.GenreCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int64{}
	for _, b := range m.books {
		counts[b.Genre]++
	}
	out := make([]book.GenreCount, 0, len(counts))
	for genre, n := range counts {
		out = append(out, book.GenreCount{Genre: genre, Count: n})
	}
	slices.SortFunc(out, func(a, b book.GenreCount) int { return cmp.Compare(a.Genre, b.Genre) })
	return out, nil
}

func (m *MemoryRepository) FindSortedByRating(_ context.Context, limit int) ([]book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := m.filter(func(book.Book) bool { return true })
	slices.SortStableFunc(out, func(a, b book.Book) int { return cmp.Compare(b.Rating, a.Rating) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) EnsureSchema(_ context.Context) error {
	return nil
}

func (m *MemoryRepository) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
