package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

// ReviewService wraps review writes with the booking gate and the explicit
// tour-rating recompute that follows every successful write.
type ReviewService struct {
	reviews  ports.ReviewRepository
	tours    ports.TourRepository
	bookings ports.BookingRepository
	logger   zerolog.Logger
}

func NewReviewService(reviews ports.ReviewRepository, tours ports.TourRepository, bookings ports.BookingRepository, logger zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours, bookings: bookings, logger: logger}
}

// Create inserts a review after verifying the author holds a paid booking
// for the tour, then recomputes the tour's rating aggregate.
func (s *ReviewService) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	paid, err := s.bookings.HasPaidBooking(ctx, review.Tour, review.User)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, domain.ErrBookingRequired
	}

	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	created, err := s.reviews.Insert(ctx, review)
	if err != nil {
		return nil, err
	}

	if err := s.RecomputeRatings(ctx, created.Tour); err != nil {
		// The review is committed; a failed recompute self-heals on the next
		// write because the aggregate is derived from the full review set.
		s.logger.Error().Err(err).Str("tour", created.Tour.Hex()).Msg("rating recompute failed")
	}

	return created, nil
}

// RecomputeRatings rebuilds the tour's ratingsAverage/ratingsQuantity from
// the full current review set. Running it twice in a row yields the same
// result, which makes it safe under arbitrary request interleaving.
func (s *ReviewService) RecomputeRatings(ctx context.Context, tourID primitive.ObjectID) error {
	stats, err := s.reviews.AggregateRatings(ctx, tourID)
	if err != nil {
		return err
	}
	stats.Average = domain.RoundRating(stats.Average)
	return s.tours.UpdateRatings(ctx, tourID, stats)
}
