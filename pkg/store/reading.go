package store

import (
	"context"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// ReadingLoader is the part of *service.ReadingService the store uses.
type ReadingLoader interface {
	GetReadingSummary(ctx context.Context) (model.ReadingSummary, error)
	GetLatestReading(ctx context.Context) (model.LatestReading, error)
}

// Reading holds reading statistics and the latest review.
type Reading struct {
	svc ReadingLoader
	settings

	Summary *Entry[model.ReadingSummary]
	Latest  *Entry[model.LatestReading]
}

// NewReading creates an empty reading store.
func NewReading(svc ReadingLoader, opts ...Option) *Reading {
	return &Reading{
		svc:      svc,
		settings: newSettings("reading", opts),
		Summary:  NewEntry("reading.summary", model.DefaultReadingSummary()),
		Latest:   NewEntry("reading.latest", model.DefaultLatestReading()),
	}
}

// LoadSummary loads the reading summary once.
func (r *Reading) LoadSummary(ctx context.Context) error {
	return r.Summary.Load(ctx, r.svc.GetReadingSummary)
}

// LoadLatest loads the latest review once.
func (r *Reading) LoadLatest(ctx context.Context) error {
	return r.Latest.Load(ctx, r.svc.GetLatestReading)
}

// LoadAll loads both fields concurrently and waits for both.
func (r *Reading) LoadAll(ctx context.Context) error {
	results := batch.Settle(ctx, r.batch,
		batch.Task{Name: "summary", Run: r.LoadSummary},
		batch.Task{Name: "latest", Run: r.LoadLatest},
	)
	if results.Failed() > 0 {
		r.logger.Warn().Err(results.Err()).Msg("Reading loads failed")
	}
	return results.Err()
}

// LegacySummary returns the summary as {hc, rc}.
func (r *Reading) LegacySummary() model.LegacyReadingSummary {
	return r.Summary.Value().ToLegacy()
}

// LegacyLatest returns the latest review in the flattened legacy shape.
func (r *Reading) LegacyLatest() model.LegacyLatestReading {
	return r.Latest.Value().ToLegacy()
}

// ReadingSnapshot is a presentation copy of the reading store.
type ReadingSnapshot struct {
	Summary Snapshot[model.ReadingSummary] `json:"summary"`
	Latest  Snapshot[model.LatestReading]  `json:"latest"`
}

// Snapshot copies both fields.
func (r *Reading) Snapshot() ReadingSnapshot {
	return ReadingSnapshot{Summary: r.Summary.Snapshot(), Latest: r.Latest.Snapshot()}
}
