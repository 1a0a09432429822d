package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/natours/tour-booking-api/internal/core/domain"
)

const collectionBookings = "bookings"

type BookingRepository struct {
	*Repository[domain.Booking]
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		Repository: NewRepository[domain.Booking](db, collectionBookings, "booking"),
		col:        db.Collection(collectionBookings),
	}
}

func (r *BookingRepository) HasPaidBooking(ctx context.Context, tourID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"tour": tourID, "user": userID, "paid": true}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("count paid bookings: %w", err)
	}
	return n > 0, nil
}

// EnsureIndexes creates the lookup index used by the booking gate.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
	})
	return err
}
