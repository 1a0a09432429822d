package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

// Earth radius used to convert a linear distance into radians for $centerSphere.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

// TourService hosts the tour aggregations and geo queries that sit outside
// the generic CRUD factory.
type TourService struct {
	tours ports.TourRepository
}

func NewTourService(tours ports.TourRepository) *TourService {
	return &TourService{tours: tours}
}

func (s *TourService) Stats(ctx context.Context) ([]ports.TourStats, error) {
	return s.tours.Stats(ctx)
}

func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]ports.MonthlyPlanEntry, error) {
	return s.tours.MonthlyPlan(ctx, year)
}

// Within returns tours whose start location lies within distance of the
// center point. unit is "mi" or "km".
func (s *TourService) Within(ctx context.Context, distance, latlng, unit string) ([]domain.Tour, error) {
	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	dist, err := strconv.ParseFloat(distance, 64)
	if err != nil || dist < 0 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid distance: '%s'", distance)}
	}

	radius := earthRadiusMiles
	if unit == "km" {
		radius = earthRadiusKm
	}

	return s.tours.Within(ctx, lat, lng, dist/radius)
}

// Distances returns every tour's distance from the given point, in unit.
func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]ports.TourDistance, error) {
	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	multiplier := metersToMiles
	if unit == "km" {
		multiplier = metersToKm
	}

	return s.tours.Distances(ctx, lat, lng, multiplier)
}

func parseLatLng(latlng string) (lat, lng float64, err error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, &domain.ValidationError{Message: "please provide latitude and longitude in the format lat,lng"}
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, &domain.ValidationError{Message: "please provide latitude and longitude in the format lat,lng"}
	}
	return lat, lng, nil
}
