package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

const (
	CatalogRefreshJobName = "catalog-refresh"
	SessionSweepJobName   = "session-idle-sweep"
)

type catalogRefresher interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

type idleSweeper interface {
	SweepIdle(ctx context.Context) []string
}

// CatalogRefreshJob reloads the menu snapshot served to kiosks. A degraded
// refresh still leaves a usable snapshot but is reported as a failure.
type CatalogRefreshJob struct {
	catalog catalogRefresher
	logg    *logger.Logger
}

func NewCatalogRefreshJob(c catalogRefresher, logg *logger.Logger) (*CatalogRefreshJob, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &CatalogRefreshJob{catalog: c, logg: logg}, nil
}

func (j *CatalogRefreshJob) Name() string { return CatalogRefreshJobName }

func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	snapshot, err := j.catalog.Refresh(ctx)
	if snapshot != nil {
		j.logg.Debug(j.logg.WithFields(ctx, map[string]any{
			"origin":   string(snapshot.Origin),
			"products": len(snapshot.Products),
		}), "catalog snapshot refreshed")
	}
	if err != nil {
		return fmt.Errorf("catalog refresh degraded: %w", err)
	}
	return nil
}

// SessionSweepJob returns kiosks left idle mid order to the welcome screen.
type SessionSweepJob struct {
	sessions idleSweeper
	logg     *logger.Logger
}

func NewSessionSweepJob(s idleSweeper, logg *logger.Logger) (*SessionSweepJob, error) {
	if s == nil {
		return nil, fmt.Errorf("session sweeper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &SessionSweepJob{sessions: s, logg: logg}, nil
}

func (j *SessionSweepJob) Name() string { return SessionSweepJobName }

func (j *SessionSweepJob) Run(ctx context.Context) error {
	reset := j.sessions.SweepIdle(ctx)
	if len(reset) > 0 {
		j.logg.Info(j.logg.WithField(ctx, "kiosks", reset), "idle kiosk sessions reset")
	}
	return nil
}
