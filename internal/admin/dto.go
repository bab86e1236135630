package admin

import (
	"time"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/internal/orders"
)

// LoginInput is a PIN attempt from the dashboard gate.
type LoginInput struct {
	PIN      string `json:"pin" validate:"required,numeric,max=10"`
	KioskID  string `json:"kiosk_id" validate:"omitempty,max=64"`
	ClientIP string `json:"-"`
}

// Session is the bearer token issued after a correct PIN.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CatalogStatus describes the snapshot the kiosks are currently served.
type CatalogStatus struct {
	Restaurant  string         `json:"restaurant,omitempty"`
	Origin      catalog.Origin `json:"origin"`
	LastUpdate  time.Time      `json:"last_update"`
	Categories  int            `json:"categories"`
	Products    int            `json:"products"`
	Complements int            `json:"complements"`
	Degraded    bool           `json:"degraded"`
}

// Dashboard is the admin landing payload.
type Dashboard struct {
	Stats   orders.Stats  `json:"stats"`
	Catalog CatalogStatus `json:"catalog"`
	Kiosks  []string      `json:"kiosks"`
}

func catalogStatus(s *catalog.Snapshot) CatalogStatus {
	if s == nil {
		return CatalogStatus{Degraded: true}
	}
	status := CatalogStatus{
		Origin:      s.Origin,
		LastUpdate:  s.FetchedAt,
		Categories:  len(s.Categories),
		Products:    len(s.Products),
		Complements: len(s.Complements),
		Degraded:    s.Origin != catalog.OriginDatabase,
	}
	if s.Restaurant != nil {
		status.Restaurant = s.Restaurant.Name
	}
	return status
}
