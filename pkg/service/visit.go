package service

import (
	"context"
	"strconv"

	"github.com/Sternrassler/rsywx-client/pkg/client"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/model"
	json "github.com/goccy/go-json"
)

// PathVisitHistory is the daily visit counter endpoint.
const PathVisitHistory = "/books/visit_history"

const periodInfoMember = "period_info"

// VisitService loads visit statistics.
type VisitService struct {
	base
}

// NewVisitService creates a visit service over gw.
func NewVisitService(gw Gateway, opts ...Option) *VisitService {
	return &VisitService{base: newBase(gw, logging.NewLogger(logging.ComponentVisitService), opts)}
}

// GetVisitHistory returns per-day visits for the last days days. Values
// below one use DefaultVisitDays.
func (s *VisitService) GetVisitHistory(ctx context.Context, days int) (model.VisitHistory, error) {
	if days < 1 {
		days = DefaultVisitDays
	}

	var items []model.VisitHistoryItem
	meta, err := timedMeta(ctx, &s.base, "Visit History", PathVisitHistory, &items,
		client.WithQuery("days", strconv.Itoa(days)),
		client.WithEnvelopeMembers(periodInfoMember),
	)
	if err != nil {
		s.logCritical(err, "visit history", PathVisitHistory)
		return model.DefaultVisitHistory(), err
	}

	history := model.VisitHistory{Items: model.NonNil(items)}
	if raw, ok := meta.Extra[periodInfoMember]; ok {
		// period_info is informational; a malformed one leaves the zero value.
		if err := json.Unmarshal(raw, &history.Period); err != nil {
			s.logger.Debug().Err(err).Msg("Ignoring malformed period_info")
		}
	}
	return history, nil
}

// GetVisitStats returns the history as legacy {vc, vd} chart points.
func (s *VisitService) GetVisitStats(ctx context.Context, days int) ([]model.VisitStats, error) {
	history, err := s.GetVisitHistory(ctx, days)
	if err != nil {
		return []model.VisitStats{}, err
	}
	return history.LegacyVisitStats(), nil
}
