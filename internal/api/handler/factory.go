package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/natours/tour-booking-api/internal/core/ports"
	"github.com/natours/tour-booking-api/internal/core/query"
)

// Resource is the generic CRUD handler set every resource controller is
// built from. Entity-specific behavior plugs in through the optional hooks;
// everything else — query features, envelopes, not-found semantics — is
// shared.
type Resource[T any] struct {
	// Name keys single-document responses and not-found messages; Plural
	// keys list responses.
	Name   string
	Plural string
	Repo   ports.Repository[T]

	// BaseFilter derives a forced sub-scoping filter from the request,
	// e.g. restricting reviews to the parent tour. Optional.
	BaseFilter func(c echo.Context) bson.M
	// Decode binds and validates the creation payload. Required for Create.
	Decode func(c echo.Context) (*T, error)
	// DecodePatch binds the partial update payload. Required for Update.
	DecodePatch func(c echo.Context) (bson.M, error)
	// CreateFn overrides the plain insert, e.g. to run a service-level gate.
	CreateFn func(ctx context.Context, doc *T) (*T, error)
	// Resolve eagerly resolves declared relations on a fetched document.
	Resolve func(ctx context.Context, doc *T) error
	// AfterWrite runs synchronously after a successful update or delete
	// (and after Create unless CreateFn already covers it), receiving the
	// written document.
	AfterWrite func(ctx context.Context, doc *T) error
}

// List returns the scoped, filtered, sorted, projected, paginated result set
// with its count. Empty results are a 200 with results=0.
func (h *Resource[T]) List(c echo.Context) error {
	base := bson.M{}
	if h.BaseFilter != nil {
		base = h.BaseFilter(c)
	}

	d := query.Parse(c.QueryParams())
	docs, err := h.Repo.FindAll(c.Request().Context(), base, d)
	if err != nil {
		return err
	}

	return respondList(c, h.Plural, len(docs), docs)
}

func (h *Resource[T]) Get(c echo.Context) error {
	ctx := c.Request().Context()
	doc, err := h.Repo.FindByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if h.Resolve != nil {
		if err := h.Resolve(ctx, doc); err != nil {
			return err
		}
	}
	return respond(c, http.StatusOK, h.Name, doc)
}

func (h *Resource[T]) Create(c echo.Context) error {
	doc, err := h.Decode(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var created *T
	if h.CreateFn != nil {
		created, err = h.CreateFn(ctx, doc)
	} else {
		created, err = h.Repo.Insert(ctx, doc)
		if err == nil && h.AfterWrite != nil {
			err = h.AfterWrite(ctx, created)
		}
	}
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, h.Name, created)
}

func (h *Resource[T]) Update(c echo.Context) error {
	patch, err := h.DecodePatch(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	doc, err := h.Repo.UpdateByID(ctx, c.Param("id"), patch)
	if err != nil {
		return err
	}
	if h.AfterWrite != nil {
		if err := h.AfterWrite(ctx, doc); err != nil {
			return err
		}
	}

	return respond(c, http.StatusOK, h.Name, doc)
}

func (h *Resource[T]) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	// Fetch before delete so AfterWrite still sees the document's relations.
	var doc *T
	if h.AfterWrite != nil {
		var err error
		doc, err = h.Repo.FindByID(ctx, c.Param("id"))
		if err != nil {
			return err
		}
	}

	if err := h.Repo.DeleteByID(ctx, c.Param("id")); err != nil {
		return err
	}
	if h.AfterWrite != nil {
		if err := h.AfterWrite(ctx, doc); err != nil {
			return err
		}
	}

	return c.NoContent(http.StatusNoContent)
}
