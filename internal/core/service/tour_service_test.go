package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
)

type stubGeoTours struct {
	ports.TourRepository

	lastLat, lastLng float64
	lastRadius       float64
	lastMultiplier   float64
}

func (r *stubGeoTours) Within(_ context.Context, lat, lng, radiusRadians float64) ([]domain.Tour, error) {
	r.lastLat, r.lastLng, r.lastRadius = lat, lng, radiusRadians
	return []domain.Tour{}, nil
}

func (r *stubGeoTours) Distances(_ context.Context, lat, lng, multiplier float64) ([]ports.TourDistance, error) {
	r.lastLat, r.lastLng, r.lastMultiplier = lat, lng, multiplier
	return []ports.TourDistance{}, nil
}

func TestTourService_Within_ConvertsToRadians(t *testing.T) {
	repo := &stubGeoTours{}
	svc := NewTourService(repo)

	if _, err := svc.Within(context.Background(), "400", "34.111745,-118.113491", "mi"); err != nil {
		t.Fatalf("within failed: %v", err)
	}
	if repo.lastLat != 34.111745 || repo.lastLng != -118.113491 {
		t.Fatalf("unexpected center: %v,%v", repo.lastLat, repo.lastLng)
	}
	if want := 400 / 3963.2; math.Abs(repo.lastRadius-want) > 1e-12 {
		t.Fatalf("expected radius %v, got %v", want, repo.lastRadius)
	}

	if _, err := svc.Within(context.Background(), "400", "34.1,-118.1", "km"); err != nil {
		t.Fatalf("within failed: %v", err)
	}
	if want := 400 / 6378.1; math.Abs(repo.lastRadius-want) > 1e-12 {
		t.Fatalf("expected km radius %v, got %v", want, repo.lastRadius)
	}
}

func TestTourService_Within_InvalidInput(t *testing.T) {
	svc := NewTourService(&stubGeoTours{})

	var ve *domain.ValidationError
	if _, err := svc.Within(context.Background(), "400", "not-a-point", "mi"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for malformed center, got %v", err)
	}
	if _, err := svc.Within(context.Background(), "-5", "34.1,-118.1", "mi"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for negative distance, got %v", err)
	}
}

func TestTourService_Distances_Multiplier(t *testing.T) {
	repo := &stubGeoTours{}
	svc := NewTourService(repo)

	if _, err := svc.Distances(context.Background(), "34.1,-118.1", "mi"); err != nil {
		t.Fatalf("distances failed: %v", err)
	}
	if repo.lastMultiplier != 0.000621371 {
		t.Fatalf("expected miles multiplier, got %v", repo.lastMultiplier)
	}

	if _, err := svc.Distances(context.Background(), "34.1,-118.1", "km"); err != nil {
		t.Fatalf("distances failed: %v", err)
	}
	if repo.lastMultiplier != 0.001 {
		t.Fatalf("expected km multiplier, got %v", repo.lastMultiplier)
	}
}
