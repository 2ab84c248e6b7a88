package store

import (
	"context"

	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// VisitLoader is the part of *service.VisitService the store uses.
type VisitLoader interface {
	GetVisitHistory(ctx context.Context, days int) (model.VisitHistory, error)
}

// Visits holds the visit history chart.
type Visits struct {
	svc VisitLoader
	settings

	History *Entry[model.VisitHistory]
}

// NewVisits creates an empty visits store.
func NewVisits(svc VisitLoader, opts ...Option) *Visits {
	return &Visits{
		svc:      svc,
		settings: newSettings("visits", opts),
		History:  NewEntry("visits.history", model.DefaultVisitHistory()),
	}
}

// LoadHistory loads the configured window once.
func (v *Visits) LoadHistory(ctx context.Context) error {
	return v.History.Load(ctx, func(ctx context.Context) (model.VisitHistory, error) {
		return v.svc.GetVisitHistory(ctx, v.visitDays)
	})
}

// Stats returns the history as legacy chart points.
func (v *Visits) Stats() []model.VisitStats {
	return v.History.Value().LegacyVisitStats()
}
