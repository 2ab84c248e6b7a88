package store

import (
	"context"
	"errors"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/model"
	"github.com/Sternrassler/rsywx-client/pkg/service"
)

// BookLoader is the part of *service.BookService the books store uses.
type BookLoader interface {
	GetBooksSummary(ctx context.Context) (model.BooksSummary, error)
	GetLatestBook(ctx context.Context) (model.LatestBook, error)
	GetRandomBooks(ctx context.Context, n int, refresh bool) ([]model.RandomBook, error)
	GetRecentBooks(ctx context.Context, n int) ([]model.RecentBook, error)
	GetForgetBooks(ctx context.Context, n int) ([]model.ForgetBook, error)
	GetTodayBooks(ctx context.Context) ([]model.TodayBook, error)
	LoadBooksDataBatch(ctx context.Context) (*service.BooksBatch, error)
}

// Books holds the book widgets of the home page.
type Books struct {
	svc BookLoader
	settings

	Summary   *Entry[model.BooksSummary]
	Latest    *Entry[model.LatestBook]
	Random    *Entry[[]model.RandomBook]
	Recent    *Entry[[]model.RecentBook]
	Forgotten *Entry[[]model.ForgetBook]
	Today     *Entry[[]model.TodayBook]
}

// NewBooks creates an empty books store.
func NewBooks(svc BookLoader, opts ...Option) *Books {
	return &Books{
		svc:       svc,
		settings:  newSettings("books", opts),
		Summary:   NewEntry("books."+service.FieldSummary, model.DefaultBooksSummary()),
		Latest:    NewEntry("books."+service.FieldLatest, model.DefaultLatestBook()),
		Random:    NewEntry("books."+service.FieldRandom, []model.RandomBook{}),
		Recent:    NewEntry("books."+service.FieldRecent, []model.RecentBook{}),
		Forgotten: NewEntry("books."+service.FieldForgotten, []model.ForgetBook{}),
		Today:     NewEntry("books."+service.FieldToday, []model.TodayBook{}),
	}
}

// LoadSummary loads the collection counters.
func (b *Books) LoadSummary(ctx context.Context) error {
	return b.Summary.Load(ctx, b.svc.GetBooksSummary)
}

// LoadLatest loads the latest purchase.
func (b *Books) LoadLatest(ctx context.Context) error {
	return b.Latest.Load(ctx, b.svc.GetLatestBook)
}

// LoadRandom loads the random pick once.
func (b *Books) LoadRandom(ctx context.Context) error {
	return b.Random.Load(ctx, func(ctx context.Context) ([]model.RandomBook, error) {
		return b.svc.GetRandomBooks(ctx, b.randomCount, false)
	})
}

// RefreshRandom asks the gateway for a new pick of n books. n below one uses
// the configured count.
func (b *Books) RefreshRandom(ctx context.Context, n int) error {
	if n < 1 {
		n = b.randomCount
	}
	return b.Random.Refresh(ctx, func(ctx context.Context) ([]model.RandomBook, error) {
		return b.svc.GetRandomBooks(ctx, n, true)
	})
}

// LoadRecent loads the recently visited list once.
func (b *Books) LoadRecent(ctx context.Context) error {
	return b.Recent.Load(ctx, func(ctx context.Context) ([]model.RecentBook, error) {
		return b.svc.GetRecentBooks(ctx, b.listCount)
	})
}

// LoadForgotten loads the forgotten list once.
func (b *Books) LoadForgotten(ctx context.Context) error {
	return b.Forgotten.Load(ctx, func(ctx context.Context) ([]model.ForgetBook, error) {
		return b.svc.GetForgetBooks(ctx, b.listCount)
	})
}

// LoadToday loads the today-in-history list once.
func (b *Books) LoadToday(ctx context.Context) error {
	return b.Today.Load(ctx, b.svc.GetTodayBooks)
}

// InitializeKeyData loads summary and latest book concurrently.
func (b *Books) InitializeKeyData(ctx context.Context) error {
	return batch.Settle(ctx, b.batch,
		batch.Task{Name: service.FieldSummary, Run: b.LoadSummary},
		batch.Task{Name: service.FieldLatest, Run: b.LoadLatest},
	).Err()
}

// ResetLoadedFlags clears the guards of the four non-critical lists.
func (b *Books) ResetLoadedFlags() {
	b.Random.Reset()
	b.Recent.Reset()
	b.Forgotten.Reset()
	b.Today.Reset()
}

// LoadAllNonCritical loads the four lists individually and waits for all.
func (b *Books) LoadAllNonCritical(ctx context.Context) error {
	results := batch.Settle(ctx, b.batch,
		batch.Task{Name: service.FieldRandom, Run: b.LoadRandom},
		batch.Task{Name: service.FieldRecent, Run: b.LoadRecent},
		batch.Task{Name: service.FieldForgotten, Run: b.LoadForgotten},
		batch.Task{Name: service.FieldToday, Run: b.LoadToday},
	)
	if failed := results.Failed(); failed > 0 {
		b.logger.Warn().Err(results.Err()).Int("failed", failed).Msg("Non-critical book loads failed")
	}
	return results.Err()
}

// LoadAllOptimized loads all six fields through one batch. Slots settle by
// the configured policy. When the batch as a whole is unavailable the
// non-critical flags are reset and the lists load individually instead.
func (b *Books) LoadAllOptimized(ctx context.Context) error {
	res, err := b.svc.LoadBooksDataBatch(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Batch load failed, falling back to individual calls")
		batchFallbacksTotal.WithLabelValues("books").Inc()
		b.ResetLoadedFlags()
		if fallbackErr := b.LoadAllNonCritical(ctx); fallbackErr != nil {
			return errors.Join(err, fallbackErr)
		}
		return nil
	}

	b.Summary.Settle(res.Summary, res.Err(service.FieldSummary), b.policy)
	b.Latest.Settle(res.Latest, res.Err(service.FieldLatest), b.policy)
	b.Random.Settle(res.Random, res.Err(service.FieldRandom), b.policy)
	b.Recent.Settle(res.Recent, res.Err(service.FieldRecent), b.policy)
	b.Forgotten.Settle(res.Forgotten, res.Err(service.FieldForgotten), b.policy)
	b.Today.Settle(res.Today, res.Err(service.FieldToday), b.policy)

	b.logger.Debug().Int("failed", len(res.Errors)).Dur("duration", res.Duration).Msg("Books batch applied")
	return nil
}

// BooksSnapshot is a presentation copy of the books store.
type BooksSnapshot struct {
	Summary   Snapshot[model.BooksSummary] `json:"summary"`
	Latest    Snapshot[model.LatestBook]   `json:"latest"`
	Random    Snapshot[[]model.RandomBook] `json:"random"`
	Recent    Snapshot[[]model.RecentBook] `json:"recent"`
	Forgotten Snapshot[[]model.ForgetBook] `json:"forgotten"`
	Today     Snapshot[[]model.TodayBook]  `json:"today"`
}

// Snapshot copies every field.
func (b *Books) Snapshot() BooksSnapshot {
	return BooksSnapshot{
		Summary:   b.Summary.Snapshot(),
		Latest:    b.Latest.Snapshot(),
		Random:    b.Random.Snapshot(),
		Recent:    b.Recent.Snapshot(),
		Forgotten: b.Forgotten.Snapshot(),
		Today:     b.Today.Snapshot(),
	}
}

// DataStatus reports which fields hold fetched data.
func (b *Books) DataStatus() map[string]bool {
	return map[string]bool{
		b.Summary.Name():   b.Summary.State() == StateReady,
		b.Latest.Name():    b.Latest.State() == StateReady,
		b.Random.Name():    b.Random.State() == StateReady,
		b.Recent.Name():    b.Recent.State() == StateReady,
		b.Forgotten.Name(): b.Forgotten.State() == StateReady,
		b.Today.Name():     b.Today.State() == StateReady,
	}
}
