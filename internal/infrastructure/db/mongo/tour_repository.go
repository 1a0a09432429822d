package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

const collectionTours = "tours"

type TourRepository struct {
	*Repository[domain.Tour]
	col *mongo.Collection
}

func NewTourRepository(db *mongo.Database) *TourRepository {
	return &TourRepository{
		Repository: NewRepository[domain.Tour](db, collectionTours, "tour"),
		col:        db.Collection(collectionTours),
	}
}

func (r *TourRepository) UpdateRatings(ctx context.Context, tourID primitive.ObjectID, stats domain.RatingStats) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"ratingsAverage":  stats.Average,
		"ratingsQuantity": stats.Quantity,
	}}

	_, err := r.col.UpdateByID(ctx, tourID, update)
	if err != nil {
		return fmt.Errorf("update tour ratings: %w", err)
	}
	return nil
}

// Stats groups tours by difficulty over the well-rated subset.
func (r *TourRepository) Stats(ctx context.Context) ([]ports.TourStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": 4.5}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toLower": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}

	stats := []ports.TourStats{}
	if err := cur.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan counts tour starts per month of the given year.
func (r *TourRepository) MonthlyPlan(ctx context.Context, year int) ([]ports.MonthlyPlanEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$sort", Value: bson.M{"numTourStarts": -1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}

	plan := []ports.MonthlyPlanEntry{}
	if err := cur.All(ctx, &plan); err != nil {
		return nil, fmt.Errorf("decode monthly plan: %w", err)
	}
	return plan, nil
}

// Within selects tours whose start location lies inside the sphere cap of
// radiusRadians around the center point.
func (r *TourRepository) Within(ctx context.Context, lat, lng, radiusRadians float64) ([]domain.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"startLocation": bson.M{
		"$geoWithin": bson.M{
			"$centerSphere": bson.A{bson.A{lng, lat}, radiusRadians},
		},
	}}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("tours within: %w", err)
	}

	tours := []domain.Tour{}
	if err := cur.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("decode tours within: %w", err)
	}
	return tours, nil
}

// Distances computes every tour's distance from the point, scaled by
// multiplier (meters to the requested unit).
func (r *TourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]ports.TourDistance, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": bson.A{lng, lat},
			},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
		}}},
		{{Key: "$project", Value: bson.M{"name": 1, "distance": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("tour distances: %w", err)
	}

	distances := []ports.TourDistance{}
	if err := cur.All(ctx, &distances); err != nil {
		return nil, fmt.Errorf("decode tour distances: %w", err)
	}
	return distances, nil
}

// EnsureIndexes creates the compound price/ratings index, the slug index, and
// the 2dsphere index required by the geo queries.
func (r *TourRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
		{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
