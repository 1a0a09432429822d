package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/natours/tour-booking-api/internal/api/metrics"
	"github.com/natours/tour-booking-api/internal/api/middleware"
	"github.com/natours/tour-booking-api/internal/core/domain"
	"github.com/natours/tour-booking-api/internal/core/ports"
	"github.com/natours/tour-booking-api/internal/core/service"
)

// ReviewHandler serves reviews both nested under a tour and flat. Creation
// runs through the review service for the booking gate; every write is
// followed by the tour-rating recompute.
type ReviewHandler struct {
	res *Resource[domain.Review]
}

func NewReviewHandler(repo ports.ReviewRepository, users ports.UserRepository, svc *service.ReviewService) *ReviewHandler {
	h := &ReviewHandler{}
	h.res = &Resource[domain.Review]{
		Name:   "review",
		Plural: "reviews",
		Repo:   repo,

		BaseFilter: func(c echo.Context) bson.M {
			if tourID := c.Param("tourId"); tourID != "" {
				if oid, err := primitive.ObjectIDFromHex(tourID); err == nil {
					return bson.M{"tour": oid}
				}
			}
			return bson.M{}
		},

		Decode: decodeReview,

		DecodePatch: decodeReviewPatch,

		CreateFn: func(ctx context.Context, doc *domain.Review) (*domain.Review, error) {
			return svc.Create(ctx, doc)
		},

		Resolve: func(ctx context.Context, doc *domain.Review) error {
			author, err := users.FindByID(ctx, doc.User.Hex())
			if err != nil {
				var nf *domain.NotFoundError
				if errors.As(err, &nf) {
					return nil
				}
				return err
			}
			doc.Author = &domain.ReviewAuthor{Name: author.Name, Photo: author.Photo}
			return nil
		},

		AfterWrite: func(ctx context.Context, doc *domain.Review) error {
			return svc.RecomputeRatings(ctx, doc.Tour)
		},
	}
	return h
}

type updateReviewRequest struct {
	Review *string  `json:"review" validate:"omitempty,min=1"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

func decodeReviewPatch(c echo.Context) (bson.M, error) {
	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	patch := bson.M{}
	if req.Review != nil {
		patch["review"] = *req.Review
	}
	if req.Rating != nil {
		patch["rating"] = *req.Rating
	}
	return patch, nil
}

type createReviewRequest struct {
	Review string  `json:"review" validate:"required"`
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Tour   string  `json:"tour"`
}

// decodeReview binds the payload, defaulting the tour from the nested route
// parameter and the author from the authenticated principal.
func decodeReview(c echo.Context) (*domain.Review, error) {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	if req.Tour == "" {
		req.Tour = c.Param("tourId")
	}
	tourID, err := primitive.ObjectIDFromHex(req.Tour)
	if err != nil {
		return nil, &domain.ValidationError{Message: "review must belong to a tour"}
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	return &domain.Review{
		Review: req.Review,
		Rating: req.Rating,
		Tour:   tourID,
		User:   user.ID,
	}, nil
}

func (h *ReviewHandler) List(c echo.Context) error { return h.res.List(c) }
func (h *ReviewHandler) Get(c echo.Context) error  { return h.res.Get(c) }

func (h *ReviewHandler) Create(c echo.Context) error {
	if err := h.res.Create(c); err != nil {
		return err
	}
	metrics.ReviewsWrittenTotal.WithLabelValues("create").Inc()
	return nil
}

func (h *ReviewHandler) Update(c echo.Context) error {
	if err := h.res.Update(c); err != nil {
		return err
	}
	metrics.ReviewsWrittenTotal.WithLabelValues("update").Inc()
	return nil
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	if err := h.res.Delete(c); err != nil {
		return err
	}
	metrics.ReviewsWrittenTotal.WithLabelValues("delete").Inc()
	return nil
}
