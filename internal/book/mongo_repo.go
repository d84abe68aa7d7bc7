package book

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CollectionName is the MongoDB collection holding book documents.
const CollectionName = "books"

const titleIndexName = "title_unique"

// bookDocument is the stored shape of a Book.
type bookDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	Title   string             `bson:"title"`
	Author  string             `bson:"author"`
	Genre   string             `bson:"genre"`
	Rating  float64            `bson:"rating"`
	Reviews []string           `bson:"reviews"`
}

func (d bookDocument) toBook() Book {
	b := Book{
		ID:      d.ID.Hex(),
		Title:   d.Title,
		Author:  d.Author,
		Genre:   d.Genre,
		Rating:  d.Rating,
		Reviews: d.Reviews,
	}
	b.Normalize()
	return b
}

type MongoRepo struct {
	db      *mongo.Database
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{db: db, coll: db.Collection(CollectionName), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *MongoRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.coll.CountDocuments(timeoutCtx, bson.M{"title": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count books by title: %w", err)
	}
	return n > 0, nil
}

func (r *MongoRepo) FindByTitle(ctx context.Context, title string) (Book, error) {
	return r.findOne(ctx, bson.M{"title": title})
}

func (r *MongoRepo) FindByID(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc bookDocument
	err := r.coll.FindOne(timeoutCtx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("find book: %w", err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) FindAll(ctx context.Context) ([]Book, error) {
	return r.find(ctx, bson.M{}, byInsertion())
}

func (r *MongoRepo) FindByAuthor(ctx context.Context, author string) ([]Book, error) {
	return r.find(ctx, bson.M{"author": author}, byInsertion())
}

func (r *MongoRepo) SearchByTitle(ctx context.Context, query string) ([]Book, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{"title": pattern}, byInsertion())
}

func (r *MongoRepo) FindSortedByRating(ctx context.Context, limit int) ([]Book, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

// ObjectIDs lead with their creation time, so _id order is insertion order.
func byInsertion() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

func (r *MongoRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(timeoutCtx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}

	var docs []bookDocument
	if err := cursor.All(timeoutCtx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	out := make([]Book, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBook())
	}
	return out, nil
}

func (r *MongoRepo) Insert(ctx context.Context, b *Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b.Normalize()
	doc := bookDocument{
		Title:   b.Title,
		Author:  b.Author,
		Genre:   b.Genre,
		Rating:  b.Rating,
		Reviews: b.Reviews,
	}

	res, err := r.coll.InsertOne(timeoutCtx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("insert book: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert book: unexpected id type %T", res.InsertedID)
	}
	b.ID = oid.Hex()
	return nil
}

func (r *MongoRepo) UpdateByTitle(ctx context.Context, title string, patch Patch) (int64, error) {
	set := bson.M{}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.Genre != nil {
		set["genre"] = *patch.Genre
	}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.Reviews != nil {
		reviews := *patch.Reviews
		if reviews == nil {
			reviews = []string{}
		}
		set["reviews"] = reviews
	}
	if len(set) == 0 {
		return 0, errors.New("update book: empty patch")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(timeoutCtx, bson.M{"title": title}, bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("update book: %w", err)
	}
	return res.MatchedCount, nil
}

func (r *MongoRepo) AppendReview(ctx context.Context, title, review string) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(timeoutCtx,
		bson.M{"title": title},
		bson.M{"$push": bson.M{"reviews": review}},
	)
	if err != nil {
		return 0, fmt.Errorf("append review: %w", err)
	}
	return res.MatchedCount, nil
}

func (r *MongoRepo) DeleteByTitle(ctx context.Context, title string) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(timeoutCtx, bson.M{"title": title})
	if err != nil {
		return 0, fmt.Errorf("delete book: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepo) GroupCountByGenre(ctx context.Context) ([]GenreCount, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$genre"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "genre", Value: "$_id"},
			{Key: "count", Value: 1},
			{Key: "_id", Value: 0},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "genre", Value: 1}}}},
	}

	cursor, err := r.coll.Aggregate(timeoutCtx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate genres: %w", err)
	}

	var rows []struct {
		Genre string `bson:"genre"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(timeoutCtx, &rows); err != nil {
		return nil, fmt.Errorf("decode genre counts: %w", err)
	}

	out := make([]GenreCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, GenreCount{Genre: row.Genre, Count: row.Count})
	}
	return out, nil
}

// EnsureSchema creates the unique title index that backs the duplicate-title check.
func (r *MongoRepo) EnsureSchema(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(timeoutCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(titleIndexName),
	})
	if err != nil {
		return fmt.Errorf("create title index: %w", err)
	}
	return nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Client().Ping(timeoutCtx, readpref.Primary())
}
