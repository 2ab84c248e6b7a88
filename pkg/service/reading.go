package service

import (
	"context"

	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/model"
)

// Reading gateway paths.
const (
	PathReadingSummary = "/readings/summary"
	PathLatestReading  = "/readings/latest/1"
)

// ReadingService loads reading statistics and reviews.
type ReadingService struct {
	base
}

// NewReadingService creates a reading service over gw.
func NewReadingService(gw Gateway, opts ...Option) *ReadingService {
	return &ReadingService{base: newBase(gw, logging.NewLogger(logging.ComponentReadService), opts)}
}

// GetReadingSummary returns books read and reviews written.
func (s *ReadingService) GetReadingSummary(ctx context.Context) (model.ReadingSummary, error) {
	summary, err := fetch[model.ReadingSummary](ctx, &s.base, "Reading Summary", PathReadingSummary)
	if err != nil {
		s.logCritical(err, "reading summary", PathReadingSummary)
		return model.DefaultReadingSummary(), err
	}
	return summary, nil
}

// GetLatestReading returns the newest review, or the placeholder when the
// gateway has none.
func (s *ReadingService) GetLatestReading(ctx context.Context) (model.LatestReading, error) {
	items, err := fetchList[model.LatestReading](ctx, &s.base, "Latest Reading", PathLatestReading)
	if err != nil {
		s.logCritical(err, "latest reading", PathLatestReading)
		return model.DefaultLatestReading(), err
	}
	return first(items, model.DefaultLatestReading()), nil
}
