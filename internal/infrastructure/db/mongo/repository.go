package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/query"
)

// Repository is the generic CRUD operation set over one collection. Every
// resource repository embeds it; entity-specific queries live alongside in
// the embedding type.
type Repository[T any] struct {
	col  *mongo.Collection
	name string
	// scope is merged into every read/write filter. Used to hide
	// soft-deleted documents.
	scope bson.M
}

func NewRepository[T any](db *mongo.Database, collection, name string) *Repository[T] {
	return &Repository[T]{col: db.Collection(collection), name: name}
}

// NewScopedRepository returns a Repository whose every operation additionally
// matches scope.
func NewScopedRepository[T any](db *mongo.Database, collection, name string, scope bson.M) *Repository[T] {
	return &Repository[T]{col: db.Collection(collection), name: name, scope: scope}
}

// FindAll applies the forced base filter, then the request's descriptor.
// Empty results are a success, never an error.
func (r *Repository[T]) FindAll(ctx context.Context, base bson.M, d query.Descriptor) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	for k, v := range d.Filter {
		filter[k] = v
	}
	// Forced scoping wins over anything the client asked for.
	for k, v := range base {
		filter[k] = v
	}
	for k, v := range r.scope {
		filter[k] = v
	}

	opts := options.Find().SetSort(d.Sort).SetSkip(d.Skip).SetLimit(d.Limit)
	if len(d.Projection) > 0 {
		opts.SetProjection(d.Projection)
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.name, err)
	}

	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.name, err)
	}
	return docs, nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", domain.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc T
	if err := r.col.FindOne(ctx, r.idFilter(oid)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &domain.NotFoundError{Resource: r.name, ID: id}
		}
		return nil, fmt.Errorf("find %s: %w", r.name, err)
	}
	return &doc, nil
}

func (r *Repository[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, r.translateWrite(err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return doc, nil
	}
	// Fetch back so server-assigned fields are populated.
	return r.FindByID(ctx, oid.Hex())
}

func (r *Repository[T]) UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", domain.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range patch {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	err = r.col.FindOneAndUpdate(ctx, r.idFilter(oid), bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &domain.NotFoundError{Resource: r.name, ID: id}
		}
		return nil, r.translateWrite(err)
	}
	return &doc, nil
}

func (r *Repository[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: '%s'", domain.ErrInvalidID, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, r.idFilter(oid))
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.name, err)
	}
	if res.DeletedCount == 0 {
		return &domain.NotFoundError{Resource: r.name, ID: id}
	}
	return nil
}

func (r *Repository[T]) idFilter(oid primitive.ObjectID) bson.M {
	f := bson.M{"_id": oid}
	for k, v := range r.scope {
		f[k] = v
	}
	return f
}

// translateWrite converts store write errors into operational domain errors.
func (r *Repository[T]) translateWrite(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return &domain.DuplicateKeyError{Field: duplicateKeyField(err)}
	}
	return fmt.Errorf("write %s: %w", r.name, err)
}

// duplicateKeyField derives the conflicting field from the duplicate-key
// error payload instead of assuming which field collided. Mongo reports
// `... index: email_1 dup key: ...`; the index name is `<field>_<direction>`.
func duplicateKeyField(err error) string {
	msg := err.Error()
	const marker = "index: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	idx := msg[i+len(marker):]
	if j := strings.IndexAny(idx, " \t"); j >= 0 {
		idx = idx[:j]
	}
	if j := strings.LastIndexByte(idx, '_'); j > 0 {
		idx = idx[:j]
	}
	return idx
}
