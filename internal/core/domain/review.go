package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review belongs to exactly one tour and one user; the (tour, user) pair is
// unique so a user reviews a tour at most once.
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Review    string             `json:"review" bson:"review"`
	Rating    float64            `json:"rating" bson:"rating"`
	Tour      primitive.ObjectID `json:"tour" bson:"tour"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt,omitempty" bson:"updatedAt"`

	// Author is resolved on demand from the user relation; never stored.
	Author *ReviewAuthor `json:"author,omitempty" bson:"-"`
}

// ReviewAuthor is the subset of the user relation exposed with a review.
type ReviewAuthor struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// RatingStats is the aggregate recomputed from the full review set of a tour.
type RatingStats struct {
	Average  float64
	Quantity int
}
