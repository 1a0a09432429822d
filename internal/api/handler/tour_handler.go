package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
	"github.com/natours/tour-booking-api/internal/core/service"
)

// TourHandler composes the generic resource factory with the tour-specific
// aggregation and geo endpoints.
type TourHandler struct {
	res *Resource[domain.Tour]
	svc *service.TourService
}

func NewTourHandler(repo ports.TourRepository, svc *service.TourService) *TourHandler {
	h := &TourHandler{svc: svc}
	h.res = &Resource[domain.Tour]{
		Name:        "tour",
		Plural:      "tours",
		Repo:        repo,
		Decode:      decodeTour,
		DecodePatch: decodeTourPatch,
	}
	return h
}

type locationRequest struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Day         int       `json:"day"`
}

type createTourRequest struct {
	Name          string            `json:"name" validate:"required,min=4"`
	Duration      int               `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int               `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty    string            `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64           `json:"price" validate:"required,gt=0"`
	PriceDiscount float64           `json:"priceDiscount" validate:"omitempty,gt=0,ltfield=Price"`
	Summary       string            `json:"summary" validate:"required"`
	Description   string            `json:"description"`
	ImageCover    string            `json:"imageCover" validate:"required"`
	Images        []string          `json:"images"`
	StartDates    []time.Time       `json:"startDates"`
	Special       bool              `json:"special"`
	StartLocation *locationRequest  `json:"startLocation"`
	Locations     []locationRequest `json:"locations" validate:"omitempty,dive"`
	Guides        []string          `json:"guides"`
}

func decodeTour(c echo.Context) (*domain.Tour, error) {
	var req createTourRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	guides, err := parseGuides(req.Guides)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tour := &domain.Tour{
		Name:            req.Name,
		Slug:            domain.Slugify(req.Name),
		Duration:        req.Duration,
		MaxGroupSize:    req.MaxGroupSize,
		Difficulty:      req.Difficulty,
		RatingsAverage:  4.5,
		RatingsQuantity: 0,
		Price:           req.Price,
		PriceDiscount:   req.PriceDiscount,
		Summary:         req.Summary,
		Description:     req.Description,
		ImageCover:      req.ImageCover,
		Images:          req.Images,
		StartDates:      req.StartDates,
		Special:         req.Special,
		Locations:       mapLocations(req.Locations),
		Guides:          guides,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.StartLocation != nil {
		loc := mapLocation(*req.StartLocation)
		tour.StartLocation = &loc
	}
	return tour, nil
}

// updateTourRequest carries the same field rules as creation; pointer fields
// distinguish "absent" from "set", so partial updates re-run the creation
// validators on exactly the fields they touch.
type updateTourRequest struct {
	Name          *string           `json:"name" validate:"omitempty,min=4"`
	Duration      *int              `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize  *int              `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty    *string           `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64          `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount *float64          `json:"priceDiscount" validate:"omitempty,gt=0"`
	Summary       *string           `json:"summary" validate:"omitempty,min=1"`
	Description   *string           `json:"description"`
	ImageCover    *string           `json:"imageCover"`
	Images        []string          `json:"images"`
	StartDates    []time.Time       `json:"startDates"`
	Special       *bool             `json:"special"`
	StartLocation *locationRequest  `json:"startLocation"`
	Locations     []locationRequest `json:"locations" validate:"omitempty,dive"`
	Guides        []string          `json:"guides"`
}

func decodeTourPatch(c echo.Context) (bson.M, error) {
	var req updateTourRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	if req.Price != nil && req.PriceDiscount != nil && *req.PriceDiscount >= *req.Price {
		return nil, &domain.ValidationError{Message: "discount price should be below regular price"}
	}

	patch := bson.M{}
	if req.Name != nil {
		patch["name"] = *req.Name
		// Slug follows the name.
		patch["slug"] = domain.Slugify(*req.Name)
	}
	if req.Duration != nil {
		patch["duration"] = *req.Duration
	}
	if req.MaxGroupSize != nil {
		patch["maxGroupSize"] = *req.MaxGroupSize
	}
	if req.Difficulty != nil {
		patch["difficulty"] = *req.Difficulty
	}
	if req.Price != nil {
		patch["price"] = *req.Price
	}
	if req.PriceDiscount != nil {
		patch["priceDiscount"] = *req.PriceDiscount
	}
	if req.Summary != nil {
		patch["summary"] = *req.Summary
	}
	if req.Description != nil {
		patch["description"] = *req.Description
	}
	if req.ImageCover != nil {
		patch["imageCover"] = *req.ImageCover
	}
	if req.Images != nil {
		patch["images"] = req.Images
	}
	if req.StartDates != nil {
		patch["startDates"] = req.StartDates
	}
	if req.Special != nil {
		patch["special"] = *req.Special
	}
	if req.StartLocation != nil {
		patch["startLocation"] = mapLocation(*req.StartLocation)
	}
	if req.Locations != nil {
		patch["locations"] = mapLocations(req.Locations)
	}
	if req.Guides != nil {
		guides, err := parseGuides(req.Guides)
		if err != nil {
			return nil, err
		}
		patch["guides"] = guides
	}
	return patch, nil
}

func parseGuides(in []string) ([]primitive.ObjectID, error) {
	guides := make([]primitive.ObjectID, 0, len(in))
	for _, g := range in {
		oid, err := primitive.ObjectIDFromHex(g)
		if err != nil {
			return nil, &domain.ValidationError{Message: "guides must be valid user identifiers"}
		}
		guides = append(guides, oid)
	}
	return guides, nil
}

func mapLocation(in locationRequest) domain.Location {
	if in.Type == "" {
		in.Type = "Point"
	}
	return domain.Location{
		Type:        in.Type,
		Coordinates: in.Coordinates,
		Address:     in.Address,
		Description: in.Description,
		Day:         in.Day,
	}
}

func mapLocations(in []locationRequest) []domain.Location {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Location, len(in))
	for i, l := range in {
		out[i] = mapLocation(l)
	}
	return out
}

func (h *TourHandler) List(c echo.Context) error   { return h.res.List(c) }
func (h *TourHandler) Get(c echo.Context) error    { return h.res.Get(c) }
func (h *TourHandler) Create(c echo.Context) error { return h.res.Create(c) }
func (h *TourHandler) Update(c echo.Context) error { return h.res.Update(c) }
func (h *TourHandler) Delete(c echo.Context) error { return h.res.Delete(c) }

// TopFive presets the query to the five best-rated, cheapest tours before
// running the standard list pipeline.
func (h *TourHandler) TopFive(c echo.Context) error {
	preset := url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {"name,price,ratingsAverage,summary,difficulty"},
	}
	c.Request().URL.RawQuery = preset.Encode()
	return h.res.List(c)
}

func (h *TourHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "stats", stats)
}

func (h *TourHandler) MonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return &domain.ValidationError{Message: "year must be a number"}
	}

	plan, err := h.svc.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "plan", plan)
}

func (h *TourHandler) Within(c echo.Context) error {
	tours, err := h.svc.Within(c.Request().Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		return err
	}
	return respondList(c, "tours", len(tours), tours)
}

func (h *TourHandler) Distances(c echo.Context) error {
	distances, err := h.svc.Distances(c.Request().Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		return err
	}
	return respondList(c, "distances", len(distances), distances)
}
