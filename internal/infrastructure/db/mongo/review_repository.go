package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

const collectionReviews = "reviews"

type ReviewRepository struct {
	*Repository[domain.Review]
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{
		Repository: NewRepository[domain.Review](db, collectionReviews, "review"),
		col:        db.Collection(collectionReviews),
	}
}

// AggregateRatings recomputes the rating aggregate from the full current
// review set of the tour. An empty set yields the zero aggregate.
func (r *ReviewRepository) AggregateRatings(ctx context.Context, tourID primitive.ObjectID) (domain.RatingStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("aggregate ratings: %w", err)
	}

	var rows []struct {
		NRating   int     `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.RatingStats{}, fmt.Errorf("decode rating aggregate: %w", err)
	}

	if len(rows) == 0 {
		return domain.RatingStats{}, nil
	}
	return domain.RatingStats{Average: rows[0].AvgRating, Quantity: rows[0].NRating}, nil
}

// EnsureIndexes creates the unique (tour, user) index so a user reviews a
// tour at most once.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
