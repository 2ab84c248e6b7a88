package store

import (
	"context"

	"github.com/Sternrassler/rsywx-client/pkg/batch"
	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// DailyLoader is the part of *service.MiscService the store uses.
type DailyLoader interface {
	GetWeather(ctx context.Context) (model.Weather, error)
	GetWordOfTheDay(ctx context.Context) (model.Word, error)
	GetQuoteOfTheDay(ctx context.Context) (model.Qotd, error)
}

// Daily holds content that changes once a day. Its fetches are unguarded:
// every call asks the gateway again.
type Daily struct {
	svc DailyLoader
	settings

	Wotd    *Entry[model.Word]
	Qotd    *Entry[model.Qotd]
	Weather *Entry[model.Weather]
}

// NewDaily creates an empty daily store.
func NewDaily(svc DailyLoader, opts ...Option) *Daily {
	return &Daily{
		svc:      svc,
		settings: newSettings("daily", opts),
		Wotd:     NewEntry("daily.wotd", model.DefaultWord()),
		Qotd:     NewEntry("daily.qotd", model.DefaultQotd()),
		Weather:  NewEntry("daily.weather", model.DefaultWeather()),
	}
}

// FetchWotd fetches the word of the day.
func (d *Daily) FetchWotd(ctx context.Context) error {
	return d.Wotd.Refresh(ctx, d.svc.GetWordOfTheDay)
}

// FetchQotd fetches the quote of the day.
func (d *Daily) FetchQotd(ctx context.Context) error {
	return d.Qotd.Refresh(ctx, d.svc.GetQuoteOfTheDay)
}

// FetchWeather fetches the weather.
func (d *Daily) FetchWeather(ctx context.Context) error {
	return d.Weather.Refresh(ctx, d.svc.GetWeather)
}

// FetchAll fetches all three and waits for them.
func (d *Daily) FetchAll(ctx context.Context) error {
	results := batch.Settle(ctx, d.batch,
		batch.Task{Name: "wotd", Run: d.FetchWotd},
		batch.Task{Name: "qotd", Run: d.FetchQotd},
		batch.Task{Name: "weather", Run: d.FetchWeather},
	)
	if results.Failed() > 0 {
		d.logger.Warn().Err(results.Err()).Msg("Daily content fetch failed")
	} else {
		d.logger.Info().Msg("Daily content refreshed")
	}
	return results.Err()
}

// DailySnapshot is a presentation copy of the daily store.
type DailySnapshot struct {
	Wotd    Snapshot[model.Word]    `json:"wotd"`
	Qotd    Snapshot[model.Qotd]    `json:"qotd"`
	Weather Snapshot[model.Weather] `json:"weather"`
}

// Snapshot copies every field.
func (d *Daily) Snapshot() DailySnapshot {
	return DailySnapshot{
		Wotd:    d.Wotd.Snapshot(),
		Qotd:    d.Qotd.Snapshot(),
		Weather: d.Weather.Snapshot(),
	}
}
