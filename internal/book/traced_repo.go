package book

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bookreview/book"

// TracedRepository wraps a Repository with one span per call.
type TracedRepository struct {
	inner  Repository
	tracer trace.Tracer
}

// NewTracedRepository decorates inner. A nil tracer falls back to the global provider.
func NewTracedRepository(inner Repository, tracer trace.Tracer) *TracedRepository {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &TracedRepository{inner: inner, tracer: tracer}
}

func (r *TracedRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "book."+op, trace.WithAttributes(attrs...))
}

// finish records err on span. Domain misses are not span errors.
func finish(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateTitle) || errors.Is(err, ErrInvalidID) {
		return
	}
	span.SetStatus(codes.Error, err.Error())
}

func (r *TracedRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	ctx, span := r.start(ctx, "ExistsByTitle", attribute.String("book.title", title))
	exists, err := r.inner.ExistsByTitle(ctx, title)
	span.SetAttributes(attribute.Bool("book.exists", exists))
	finish(span, err)
	return exists, err
}

func (r *TracedRepository) FindByTitle(ctx context.Context, title string) (Book, error) {
	ctx, span := r.start(ctx, "FindByTitle", attribute.String("book.title", title))
	b, err := r.inner.FindByTitle(ctx, title)
	finish(span, err)
	return b, err
}

func (r *TracedRepository) FindByID(ctx context.Context, id string) (Book, error) {
	ctx, span := r.start(ctx, "FindByID", attribute.String("book.id", id))
	b, err := r.inner.FindByID(ctx, id)
	finish(span, err)
	return b, err
}

func (r *TracedRepository) FindAll(ctx context.Context) ([]Book, error) {
	ctx, span := r.start(ctx, "FindAll")
	books, err := r.inner.FindAll(ctx)
	span.SetAttributes(attribute.Int("books.count", len(books)))
	finish(span, err)
	return books, err
}

func (r *TracedRepository) FindByAuthor(ctx context.Context, author string) ([]Book, error) {
	ctx, span := r.start(ctx, "FindByAuthor", attribute.String("book.author", author))
	books, err := r.inner.FindByAuthor(ctx, author)
	span.SetAttributes(attribute.Int("books.count", len(books)))
	finish(span, err)
	return books, err
}

func (r *TracedRepository) Insert(ctx context.Context, b *Book) error {
	ctx, span := r.start(ctx, "Insert", attribute.String("book.title", b.Title))
	err := r.inner.Insert(ctx, b)
	if err == nil {
		span.SetAttributes(attribute.String("book.id", b.ID))
	}
	finish(span, err)
	return err
}

func (r *TracedRepository) UpdateByTitle(ctx context.Context, title string, patch Patch) (int64, error) {
	ctx, span := r.start(ctx, "UpdateByTitle", attribute.String("book.title", title))
	matched, err := r.inner.UpdateByTitle(ctx, title, patch)
	span.SetAttributes(attribute.Int64("books.matched", matched))
	finish(span, err)
	return matched, err
}

func (r *TracedRepository) AppendReview(ctx context.Context, title, review string) (int64, error) {
	ctx, span := r.start(ctx, "AppendReview", attribute.String("book.title", title))
	matched, err := r.inner.AppendReview(ctx, title, review)
	span.SetAttributes(attribute.Int64("books.matched", matched))
	finish(span, err)
	return matched, err
}

func (r *TracedRepository) DeleteByTitle(ctx context.Context, title string) (int64, error) {
	ctx, span := r.start(ctx, "DeleteByTitle", attribute.String("book.title", title))
	deleted, err := r.inner.DeleteByTitle(ctx, title)
	span.SetAttributes(attribute.Int64("books.deleted", deleted))
	finish(span, err)
	return deleted, err
}

func (r *TracedRepository) SearchByTitle(ctx context.Context, query string) ([]Book, error) {
	ctx, span := r.start(ctx, "SearchByTitle", attribute.String("search.query", query))
	books, err := r.inner.SearchByTitle(ctx, query)
	span.SetAttributes(attribute.Int("books.count", len(books)))
	finish(span, err)
	return books, err
}

func (r *TracedRepository) GroupCountByGenre(ctx context.Context) ([]GenreCount, error) {
	ctx, span := r.start(ctx, "GroupCountByGenre")
	counts, err := r.inner.GroupCountByGenre(ctx)
	span.SetAttributes(attribute.Int("genres.count", len(counts)))
	finish(span, err)
	return counts, err
}

func (r *TracedRepository) FindSortedByRating(ctx context.Context, limit int) ([]Book, error) {
	ctx, span := r.start(ctx, "FindSortedByRating", attribute.Int("query.limit", limit))
	books, err := r.inner.FindSortedByRating(ctx, limit)
	span.SetAttributes(attribute.Int("books.count", len(books)))
	finish(span, err)
	return books, err
}

func (r *TracedRepository) EnsureSchema(ctx context.Context) error {
	ctx, span := r.start(ctx, "EnsureSchema")
	err := r.inner.EnsureSchema(ctx)
	finish(span, err)
	return err
}

func (r *TracedRepository) Ping(ctx context.Context) error {
	ctx, span := r.start(ctx, "Ping")
	err := r.inner.Ping(ctx)
	finish(span, err)
	return err
}
