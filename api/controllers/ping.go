package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/totem-backend/api/middleware"
	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/internal/catalog"
)

type snapshotReader interface {
	Snapshot() *catalog.Snapshot
}

type pingResponse struct {
	Scope           string         `json:"scope"`
	Status          string         `json:"status"`
	ServerTime      time.Time      `json:"server_time"`
	CatalogOrigin   catalog.Origin `json:"catalog_origin,omitempty"`
	CatalogLoadedAt *time.Time     `json:"catalog_loaded_at,omitempty"`
	KioskID         string         `json:"kiosk_id,omitempty"`
	SessionExpires  *time.Time     `json:"session_expires_at,omitempty"`
}

// PublicPing is the connectivity probe a kiosk polls before clearing a
// network overlay. It reports where the current menu came from.
func PublicPing(catalogSvc snapshotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := pingResponse{Scope: "public", Status: "ok", ServerTime: time.Now().UTC()}
		if catalogSvc != nil {
			if snap := catalogSvc.Snapshot(); snap != nil {
				resp.CatalogOrigin = snap.Origin
				loaded := snap.FetchedAt.UTC()
				resp.CatalogLoadedAt = &loaded
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := pingResponse{Scope: "admin", Status: "ok", ServerTime: time.Now().UTC()}
		if claims := middleware.AdminClaimsFromContext(r.Context()); claims != nil {
			resp.KioskID = claims.KioskID
			if claims.ExpiresAt != nil {
				expires := claims.ExpiresAt.Time.UTC()
				resp.SessionExpires = &expires
			}
		}
		responses.WriteSuccess(w, resp)
	}
}
