package model

// VisitHistoryItem is one day of visit counts.
type VisitHistoryItem struct {
	Date       string `json:"date"`
	VisitCount int    `json:"visit_count"`
	DayOfWeek  string `json:"day_of_week"`
}

// PeriodInfo describes the window a visit history covers. It travels beside
// data in the envelope, not inside it.
type PeriodInfo struct {
	Days      int    `json:"days"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// VisitHistory is the decoded /books/visit_history response.
type VisitHistory struct {
	Items  []VisitHistoryItem `json:"items"`
	Period PeriodInfo         `json:"period_info"`
}

// DefaultVisitHistory returns an empty history with a non-nil item list.
func DefaultVisitHistory() VisitHistory {
	return VisitHistory{Items: []VisitHistoryItem{}}
}

// VisitStats is the legacy per-day {vc, vd} point the visit chart plots.
type VisitStats struct {
	Count int    `json:"vc"`
	Date  string `json:"vd"`
}

// LegacyVisitStats converts the history into chart points, oldest first as
// the gateway orders them.
func (h VisitHistory) LegacyVisitStats() []VisitStats {
	out := make([]VisitStats, 0, len(h.Items))
	for _, item := range h.Items {
		out = append(out, VisitStats{Count: item.VisitCount, Date: item.Date})
	}
	return out
}

// TotalVisits sums every day in the history.
func (h VisitHistory) TotalVisits() int {
	total := 0
	for _, item := range h.Items {
		total += item.VisitCount
	}
	return total
}
