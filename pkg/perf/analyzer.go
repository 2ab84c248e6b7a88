// Package perf records named timers around gateway calls and load phases,
// finds bottlenecks and writes text and JSON reports.
package perf

import (
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Category groups timers for the breakdown.
type Category string

const (
	CategoryAPI        Category = "api"
	CategoryNetwork    Category = "network"
	CategoryRendering  Category = "rendering"
	CategoryProcessing Category = "processing"
)

// Status is the lifecycle state of a timer.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Impact ranks a bottleneck.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Thresholds for bottleneck detection. Comparisons are strict.
const (
	BottleneckThreshold = 500 * time.Millisecond
	MediumThreshold     = 1000 * time.Millisecond
	HighThreshold       = 2000 * time.Millisecond
)

// Clock returns the current time.
type Clock func() time.Time

// Metric is one named timer.
type Metric struct {
	Name     string
	Category Category
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Status   Status
	Err      error
}

// Summary aggregates finished timers. Averages and totals count successful
// timers only.
type Summary struct {
	TotalCalls      int
	SuccessfulCalls int
	FailedCalls     int
	AverageDuration time.Duration
	TotalDuration   time.Duration
}

// Bottleneck is a completed timer slower than BottleneckThreshold.
type Bottleneck struct {
	Name           string
	Duration       time.Duration
	Category       Category
	Impact         Impact
	Recommendation string
}

// CategoryStats is the per-category breakdown.
type CategoryStats struct {
	Count     int
	TotalTime time.Duration
	AvgTime   time.Duration
}

// Analysis is the result of AnalyzeBottlenecks.
type Analysis struct {
	TotalTime         time.Duration
	CriticalPath      time.Duration
	Bottlenecks       []Bottleneck
	CategoryBreakdown map[Category]CategoryStats
}

var recommendations = map[Category]map[Impact]string{
	CategoryAPI: {
		ImpactHigh:   "Consider API optimization, caching, or pagination",
		ImpactMedium: "Add request caching or optimize query",
		ImpactLow:    "Monitor for consistency",
	},
	CategoryNetwork: {
		ImpactHigh:   "Cache resources locally or use CDN",
		ImpactMedium: "Optimize resource size or add preloading",
		ImpactLow:    "Consider lazy loading",
	},
	CategoryRendering: {
		ImpactHigh:   "Optimize component rendering or use virtualization",
		ImpactMedium: "Add loading states or skeleton screens",
		ImpactLow:    "Consider code splitting",
	},
	CategoryProcessing: {
		ImpactHigh:   "Move work off the request path or optimize algorithm",
		ImpactMedium: "Add progress indicators",
		ImpactLow:    "Consider debouncing",
	},
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock replaces time.Now, for tests.
func WithClock(c Clock) Option {
	return func(a *Analyzer) { a.now = c }
}

// WithLogger replaces the default component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// Analyzer holds named timers. It is safe for concurrent use.
type Analyzer struct {
	mu            sync.Mutex
	now           Clock
	logger        zerolog.Logger
	metrics       map[string]*Metric
	order         []string
	critical      map[string]bool
	pageLoadStart time.Time
	phases        *Phases
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		now:      time.Now,
		logger:   logging.NewLogger(logging.ComponentPerf),
		metrics:  make(map[string]*Metric),
		critical: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.phases = newPhases(a.now, a.logger)
	return a
}

// Phases returns the load-phase tracker sharing this analyzer's clock.
func (a *Analyzer) Phases() *Phases {
	return a.phases
}

// StartPageLoad marks the origin for Analysis.TotalTime.
func (a *Analyzer) StartPageLoad() {
	a.mu.Lock()
	a.pageLoadStart = a.now()
	a.mu.Unlock()
	a.logger.Debug().Msg("Page load analysis started")
}

// Start creates or overwrites the timer name. The category defaults to api.
func (a *Analyzer) Start(name string, category ...Category) {
	cat := CategoryAPI
	if len(category) > 0 && category[0] != "" {
		cat = category[0]
	}

	a.mu.Lock()
	if _, exists := a.metrics[name]; !exists {
		a.order = append(a.order, name)
	}
	a.metrics[name] = &Metric{
		Name:     name,
		Category: cat,
		Start:    a.now(),
		Status:   StatusPending,
	}
	a.mu.Unlock()

	a.logger.Debug().Str("timer", name).Str("category", string(cat)).Msg("Timer started")
}

// End finishes the timer name. A nil err marks it completed, otherwise
// failed. Unknown or already finished timers are left untouched.
func (a *Analyzer) End(name string, err error) {
	a.mu.Lock()
	m, ok := a.metrics[name]
	if !ok || m.Status != StatusPending {
		a.mu.Unlock()
		a.logger.Warn().Str("timer", name).Bool("known", ok).Msg("No pending timer found")
		return
	}

	m.End = a.now()
	m.Duration = m.End.Sub(m.Start)
	m.Status = StatusCompleted
	if err != nil {
		m.Status = StatusFailed
		m.Err = err
	}
	done := *m
	a.mu.Unlock()

	timerDuration.WithLabelValues(string(done.Category), string(done.Status)).Observe(done.Duration.Seconds())

	event := a.logger.Debug()
	if err != nil {
		event = a.logger.Warn().Err(err)
	}
	event.
		Str("timer", name).
		Str("category", string(done.Category)).
		Dur("duration", done.Duration).
		Msg("Timer ended")
}

// MarkCritical adds name to the critical path.
func (a *Analyzer) MarkCritical(name string) {
	a.mu.Lock()
	a.critical[name] = true
	a.mu.Unlock()
}

// Metrics returns copies of all timers in first-start order.
func (a *Analyzer) Metrics() []Metric {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Metric, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, *a.metrics[name])
	}
	return out
}

// Summary aggregates finished timers.
func (a *Analyzer) Summary() Summary {
	var s Summary
	for _, m := range a.Metrics() {
		switch m.Status {
		case StatusCompleted:
			s.SuccessfulCalls++
			s.TotalDuration += m.Duration
		case StatusFailed:
			s.FailedCalls++
		}
	}
	s.TotalCalls = s.SuccessfulCalls + s.FailedCalls
	if s.SuccessfulCalls > 0 {
		s.AverageDuration = s.TotalDuration / time.Duration(s.SuccessfulCalls)
	}
	return s
}

// AnalyzeBottlenecks computes bottlenecks, the critical path and the
// category breakdown over completed timers. It does not mutate state.
func (a *Analyzer) AnalyzeBottlenecks() Analysis {
	metrics := a.Metrics()

	a.mu.Lock()
	pageLoadStart := a.pageLoadStart
	critical := make(map[string]bool, len(a.critical))
	for k := range a.critical {
		critical[k] = true
	}
	now := a.now()
	a.mu.Unlock()

	analysis := Analysis{
		Bottlenecks:       []Bottleneck{},
		CategoryBreakdown: make(map[Category]CategoryStats),
	}
	if !pageLoadStart.IsZero() {
		analysis.TotalTime = now.Sub(pageLoadStart)
	}

	for _, m := range metrics {
		if m.Status != StatusCompleted {
			continue
		}
		if critical[m.Name] && m.Duration > analysis.CriticalPath {
			analysis.CriticalPath = m.Duration
		}
		if m.Duration > BottleneckThreshold {
			impact := ImpactFor(m.Duration)
			analysis.Bottlenecks = append(analysis.Bottlenecks, Bottleneck{
				Name:           m.Name,
				Duration:       m.Duration,
				Category:       m.Category,
				Impact:         impact,
				Recommendation: Recommendation(m.Category, impact),
			})
		}
		stats := analysis.CategoryBreakdown[m.Category]
		stats.Count++
		stats.TotalTime += m.Duration
		analysis.CategoryBreakdown[m.Category] = stats
	}

	for cat, stats := range analysis.CategoryBreakdown {
		stats.AvgTime = stats.TotalTime / time.Duration(stats.Count)
		analysis.CategoryBreakdown[cat] = stats
	}

	sort.SliceStable(analysis.Bottlenecks, func(i, j int) bool {
		return analysis.Bottlenecks[i].Duration > analysis.Bottlenecks[j].Duration
	})

	return analysis
}

// Clear drops all timers, critical marks, phases and the page-load origin.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.metrics = make(map[string]*Metric)
	a.order = nil
	a.critical = make(map[string]bool)
	a.pageLoadStart = time.Time{}
	a.mu.Unlock()
	a.phases.Clear()
}

// LogSummary writes the summary at info level.
func (a *Analyzer) LogSummary() {
	s := a.Summary()
	a.logger.Info().
		Int("total", s.TotalCalls).
		Int("successful", s.SuccessfulCalls).
		Int("failed", s.FailedCalls).
		Dur("average", s.AverageDuration).
		Dur("total_duration", s.TotalDuration).
		Msg("Performance summary")
}

// ImpactFor classifies a duration: above 2s high, above 1s medium, else low.
func ImpactFor(d time.Duration) Impact {
	switch {
	case d > HighThreshold:
		return ImpactHigh
	case d > MediumThreshold:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Recommendation returns the canned advice for a category and impact.
func Recommendation(cat Category, impact Impact) string {
	if byImpact, ok := recommendations[cat]; ok {
		return byImpact[impact]
	}
	return "Analyze and optimize"
}
