package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/vendorverse/api/responses"
	"github.com/angelmondragon/vendorverse/api/validators"
	"github.com/angelmondragon/vendorverse/internal/catalog"
	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/angelmondragon/vendorverse/pkg/logger"
	"github.com/angelmondragon/vendorverse/pkg/pagination"
)

const maxFeaturedLimit = 50

type catalogReader interface {
	GetByID(id string) (catalog.Product, error)
	Featured(n int) []catalog.Product
	Filter(f catalog.Filter) []catalog.Product
	Categories() []catalog.Category
}

func CategoriesList(cat catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, cat.Categories())
	}
}

type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ProductsList filters the catalog by category, price range, merchant, minimum
// rating and a free-text search, one cursor page at a time.
func ProductsList(cat catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, next, err := pagination.Page(cat.Filter(filter), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, func(p catalog.Product) string { return p.ID })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		responses.WriteSuccess(w, ProductListResponse{Products: productsResponse(page), NextCursor: next})
	}
}

func parseProductFilter(r *http.Request) (catalog.Filter, error) {
	query := r.URL.Query()
	filter := catalog.Filter{
		Category: strings.TrimSpace(query.Get("category")),
		Merchant: strings.TrimSpace(query.Get("merchant")),
		Search:   strings.TrimSpace(query.Get("q")),
	}

	var err error
	if filter.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return catalog.Filter{}, err
	}
	if filter.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return catalog.Filter{}, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return catalog.Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	if filter.MinRating, err = validators.ParseQueryFloat(r, "rating", 0, 5); err != nil {
		return catalog.Filter{}, err
	}
	return filter, nil
}

func ProductsFeatured(cat catalogReader, defaultLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, maxFeaturedLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsResponse(cat.Featured(limit)))
	}
}

func ProductGet(cat catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		product, err := cat.GetByID(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productResponse(product))
	}
}
