package domain

import (
	"math"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Location is a GeoJSON point with descriptive metadata.
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty"`
}

// Tour is the primary bookable entity.
type Tour struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name            string               `json:"name" bson:"name"`
	Slug            string               `json:"slug,omitempty" bson:"slug,omitempty"`
	Duration        int                  `json:"duration" bson:"duration"`
	MaxGroupSize    int                  `json:"maxGroupSize" bson:"maxGroupSize"`
	Difficulty      string               `json:"difficulty" bson:"difficulty"`
	RatingsAverage  float64              `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int                  `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Price           float64              `json:"price" bson:"price"`
	PriceDiscount   float64              `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty"`
	Summary         string               `json:"summary" bson:"summary"`
	Description     string               `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string               `json:"imageCover" bson:"imageCover"`
	Images          []string             `json:"images,omitempty" bson:"images,omitempty"`
	StartDates      []time.Time          `json:"startDates,omitempty" bson:"startDates,omitempty"`
	Special         bool                 `json:"special,omitempty" bson:"special,omitempty"`
	StartLocation   *Location            `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations       []Location           `json:"locations,omitempty" bson:"locations,omitempty"`
	Guides          []primitive.ObjectID `json:"guides,omitempty" bson:"guides,omitempty"`
	CreatedAt       time.Time            `json:"createdAt,omitempty" bson:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt,omitempty" bson:"updatedAt"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a tour name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// RoundRating normalizes a ratings average to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
