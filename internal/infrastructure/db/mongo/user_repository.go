package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

const collectionUsers = "users"

// activeScope hides soft-deleted principals from every repository operation.
var activeScope = bson.M{"active": bson.M{"$ne": false}}

type UserRepository struct {
	*Repository[domain.User]
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		Repository: NewScopedRepository[domain.User](db, collectionUsers, "user", activeScope),
		col:        db.Collection(collectionUsers),
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"email": email}
	for k, v := range activeScope {
		filter[k] = v
	}

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEmailNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByResetHash(ctx context.Context, hash string, now time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"passwordResetToken":   hash,
		"passwordResetExpires": bson.M{"$gt": now},
	}
	for k, v := range activeScope {
		filter[k] = v
	}

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("find user by reset token: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) SavePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"password":          hash,
			"passwordChangedAt": changedAt,
			"updatedAt":         time.Now().UTC(),
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	}

	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	if res.MatchedCount == 0 {
		return &domain.NotFoundError{Resource: "user", ID: id.Hex()}
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, hash string, expires time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"passwordResetToken":   hash,
		"passwordResetExpires": expires,
	}}

	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return &domain.NotFoundError{Resource: "user", ID: id.Hex()}
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$unset": bson.M{
		"passwordResetToken":   "",
		"passwordResetExpires": "",
	}}

	_, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"active":    false,
		"updatedAt": time.Now().UTC(),
	}}

	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if res.MatchedCount == 0 {
		return &domain.NotFoundError{Resource: "user", ID: id.Hex()}
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
