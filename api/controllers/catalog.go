package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type catalogReader interface {
	Snapshot() *catalog.Snapshot
	ProductsForCategory(categoryID string) []catalog.Product
	DefaultCategory() (catalog.Category, bool)
	BestsellerCategory() string
}

type catalogResponse struct {
	Restaurant         *catalog.Restaurant  `json:"restaurant,omitempty"`
	Categories         []catalog.Category   `json:"categories"`
	Products           []catalog.Product    `json:"products"`
	Complements        []catalog.Complement `json:"complements"`
	DefaultCategoryID  string               `json:"default_category_id,omitempty"`
	BestsellerCategory string               `json:"bestseller_category"`
	Origin             catalog.Origin       `json:"origin"`
	FetchedAt          time.Time            `json:"fetched_at"`
}

type categoryProductsResponse struct {
	Category catalog.Category  `json:"category"`
	Products []catalog.Product `json:"products"`
}

// CatalogSnapshot returns the menu currently served to kiosks.
func CatalogSnapshot(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		snapshot := svc.Snapshot()
		resp := catalogResponse{
			Restaurant:         snapshot.Restaurant,
			Categories:         snapshot.Categories,
			Products:           snapshot.Products,
			Complements:        snapshot.Complements,
			BestsellerCategory: svc.BestsellerCategory(),
			Origin:             snapshot.Origin,
			FetchedAt:          snapshot.FetchedAt,
		}
		if def, ok := svc.DefaultCategory(); ok {
			resp.DefaultCategoryID = def.ID
		}
		responses.WriteSuccess(w, resp)
	}
}

// CatalogCategoryProducts lists the products shown under one category tab.
func CatalogCategoryProducts(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categoryID := chi.URLParam(r, "categoryID")
		category, ok := svc.Snapshot().FindCategory(categoryID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "category not found"))
			return
		}
		products := svc.ProductsForCategory(categoryID)
		if products == nil {
			products = []catalog.Product{}
		}
		responses.WriteSuccess(w, categoryProductsResponse{Category: category, Products: products})
	}
}
