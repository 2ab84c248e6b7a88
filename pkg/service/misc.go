package service

import (
	"context"

	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// Daily content paths.
const (
	PathWeather = "/weather"
	PathWotd    = "/misc/wotd"
	PathQotd    = "/qotd"
)

// MiscService loads the weather and daily content widgets. Every method is
// optional: failures are logged and the default is returned.
type MiscService struct {
	base
}

// NewMiscService creates a misc service over gw.
func NewMiscService(gw Gateway, opts ...Option) *MiscService {
	return &MiscService{base: newBase(gw, logging.NewLogger(logging.ComponentMiscService), opts)}
}

// GetWeather returns the current weather.
func (s *MiscService) GetWeather(ctx context.Context) (model.Weather, error) {
	w, err := fetch[model.Weather](ctx, &s.base, "Weather", PathWeather)
	if err != nil {
		s.logOptional(err, "weather", PathWeather)
		return model.DefaultWeather(), nil
	}
	return w, nil
}

// GetWordOfTheDay returns today's word.
func (s *MiscService) GetWordOfTheDay(ctx context.Context) (model.Word, error) {
	w, err := fetch[model.Word](ctx, &s.base, "Word of the Day", PathWotd)
	if err != nil {
		s.logOptional(err, "word of the day", PathWotd)
		return model.DefaultWord(), nil
	}
	return w, nil
}

// GetQuoteOfTheDay returns today's quote.
func (s *MiscService) GetQuoteOfTheDay(ctx context.Context) (model.Qotd, error) {
	q, err := fetch[model.Qotd](ctx, &s.base, "Quote of the Day", PathQotd)
	if err != nil {
		s.logOptional(err, "quote of the day", PathQotd)
		return model.DefaultQotd(), nil
	}
	return q, nil
}
