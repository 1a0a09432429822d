package ports

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/query"
)

// Repository is the generic CRUD operation set every resource is served by.
// FindAll applies the base filter (forced sub-scoping, e.g. a parent tour id)
// before the request's query descriptor; an empty result is not an error.
// The by-id operations fail with *domain.NotFoundError when id resolves to
// nothing and domain.ErrInvalidID when it is not a well-formed identifier.
type Repository[T any] interface {
	FindAll(ctx context.Context, base bson.M, d query.Descriptor) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, doc *T) (*T, error)
	UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

type UserRepository interface {
	Repository[domain.User]

	// FindByEmail resolves an active principal by its case-normalized email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByResetHash resolves a principal whose stored reset-token hash
	// matches and whose reset expiry is after now.
	FindByResetHash(ctx context.Context, hash string, now time.Time) (*domain.User, error)
	// SavePassword stores a new credential hash, stamps passwordChangedAt,
	// and clears any outstanding reset token.
	SavePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error
	// SetResetToken stores the one-way hash and expiry of a reset token.
	SetResetToken(ctx context.Context, id primitive.ObjectID, hash string, expires time.Time) error
	// ClearResetToken removes reset-token fields, e.g. after a failed send.
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	// Deactivate soft-deletes the principal.
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

type TourRepository interface {
	Repository[domain.Tour]

	UpdateRatings(ctx context.Context, tourID primitive.ObjectID, stats domain.RatingStats) error
	Stats(ctx context.Context) ([]TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error)
	Within(ctx context.Context, lat, lng, radiusRadians float64) ([]domain.Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]TourDistance, error)
}

type ReviewRepository interface {
	Repository[domain.Review]

	// AggregateRatings recomputes the rating aggregate from the full current
	// review set of the tour. Idempotent by construction.
	AggregateRatings(ctx context.Context, tourID primitive.ObjectID) (domain.RatingStats, error)
}

type BookingRepository interface {
	Repository[domain.Booking]

	// HasPaidBooking reports whether the user holds a paid booking for the tour.
	HasPaidBooking(ctx context.Context, tourID, userID primitive.ObjectID) (bool, error)
}

// TourStats is one per-difficulty row of the tour statistics aggregation.
type TourStats struct {
	Difficulty string  `json:"difficulty" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"numTours"`
	NumRatings int     `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating" bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice" bson:"maxPrice"`
}

// MonthlyPlanEntry is one month of scheduled tour starts for a given year.
type MonthlyPlanEntry struct {
	Month         int      `json:"month" bson:"_id"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours" bson:"tours"`
}

// TourDistance pairs a tour with its distance from a reference point.
type TourDistance struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Distance float64            `json:"distance" bson:"distance"`
}
