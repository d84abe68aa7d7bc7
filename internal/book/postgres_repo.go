package book

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"bookreview/migrations"
)

const uniqueViolation = "23505"

const bookColumns = "id, title, author, genre, rating, reviews"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(timeoutCtx, `SELECT EXISTS(SELECT 1 FROM books WHERE title = $1)`, title).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepo) FindByTitle(ctx context.Context, title string) (Book, error) {
	return r.findOne(ctx, `SELECT `+bookColumns+` FROM books WHERE title = $1`, title)
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (Book, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Book{}, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return r.findOne(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, parsed)
}

func (r *PostgresRepo) findOne(ctx context.Context, query string, args ...any) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("find book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) FindAll(ctx context.Context) ([]Book, error) {
	return r.query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at, id`)
}

func (r *PostgresRepo) FindByAuthor(ctx context.Context, author string) ([]Book, error) {
	return r.query(ctx, `SELECT `+bookColumns+` FROM books WHERE author = $1 ORDER BY created_at, id`, author)
}

func (r *PostgresRepo) SearchByTitle(ctx context.Context, query string) ([]Book, error) {
	return r.query(ctx,
		`SELECT `+bookColumns+` FROM books WHERE title ~* $1 ORDER BY created_at, id`,
		regexp.QuoteMeta(query),
	)
}

func (r *PostgresRepo) FindSortedByRating(ctx context.Context, limit int) ([]Book, error) {
	return r.query(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY rating DESC, created_at, id LIMIT $1`,
		limit,
	)
}

func (r *PostgresRepo) query(ctx context.Context, query string, args ...any) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return out, nil
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b  Book
		id uuid.UUID
	)
	if err := row.Scan(&id, &b.Title, &b.Author, &b.Genre, &b.Rating, &b.Reviews); err != nil {
		return Book{}, err
	}
	b.ID = id.String()
	b.Normalize()
	return b, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, b *Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b.Normalize()
	id := uuid.New()
	_, err := r.db.Exec(timeoutCtx,
		`INSERT INTO books (id, title, author, genre, rating, reviews) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, b.Title, b.Author, b.Genre, b.Rating, b.Reviews,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID = id.String()
	return nil
}

func (r *PostgresRepo) UpdateByTitle(ctx context.Context, title string, patch Patch) (int64, error) {
	sets := []string{}
	args := []any{}
	argn := 1

	if patch.Author != nil {
		sets = append(sets, fmt.Sprintf("author = $%d", argn))
		args = append(args, *patch.Author)
		argn++
	}
	if patch.Genre != nil {
		sets = append(sets, fmt.Sprintf("genre = $%d", argn))
		args = append(args, *patch.Genre)
		argn++
	}
	if patch.Rating != nil {
		sets = append(sets, fmt.Sprintf("rating = $%d", argn))
		args = append(args, *patch.Rating)
		argn++
	}
	if patch.Reviews != nil {
		reviews := *patch.Reviews
		if reviews == nil {
			reviews = []string{}
		}
		sets = append(sets, fmt.Sprintf("reviews = $%d", argn))
		args = append(args, reviews)
		argn++
	}
	if len(sets) == 0 {
		return 0, errors.New("update book: empty patch")
	}

	query := fmt.Sprintf("UPDATE books SET %s WHERE title = $%d", strings.Join(sets, ", "), argn)
	args = append(args, title)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update book: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) AppendReview(ctx context.Context, title, review string) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx,
		`UPDATE books SET reviews = array_append(reviews, $1) WHERE title = $2`,
		review, title,
	)
	if err != nil {
		return 0, fmt.Errorf("append review: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) DeleteByTitle(ctx context.Context, title string) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE title = $1`, title)
	if err != nil {
		return 0, fmt.Errorf("delete book: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) GroupCountByGenre(ctx context.Context) ([]GenreCount, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, `SELECT genre, COUNT(*) FROM books GROUP BY genre ORDER BY genre`)
	if err != nil {
		return nil, fmt.Errorf("count genres: %w", err)
	}
	defer rows.Close()

	out := []GenreCount{}
	for rows.Next() {
		var gc GenreCount
		if err := rows.Scan(&gc.Genre, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan genre count: %w", err)
		}
		out = append(out, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre counts: %w", err)
	}
	return out, nil
}

// EnsureSchema applies the embedded goose migrations.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.db)
	defer db.Close()

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
