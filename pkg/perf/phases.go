package perf

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase names the orchestrator records.
const (
	PhaseCriticalData    = "Critical Data"
	PhaseNonCriticalData = "Non-Critical Data"
	PhaseAPICalls        = "API Calls"
)

type phaseInfo struct {
	description  string
	optimization string
}

var phaseDescriptions = map[string]phaseInfo{
	PhaseCriticalData: {
		description:  "Summary and latest book, awaited before first render",
		optimization: "Keep the critical set small and cached",
	},
	PhaseNonCriticalData: {
		description:  "Background wave of widget loads",
		optimization: "Use batch loading and longer cache TTLs",
	},
	PhaseAPICalls: {
		description:  "Time for all API requests to complete",
		optimization: "Use concurrent requests and caching",
	},
	"Server Response": {
		description:  "Time for server to process and respond",
		optimization: "Optimize backend API performance",
	},
	"Content Download": {
		description:  "Time to download response content",
		optimization: "Compress responses or use CDN",
	},
}

// PhaseBreakdown is one finished phase relative to the whole analysis.
type PhaseBreakdown struct {
	Phase        string
	Start        time.Time
	End          time.Time
	Duration     time.Duration
	Percentage   float64
	Description  string
	Optimization string
}

type phaseSpan struct {
	start, end time.Time
}

// Phases tracks coarse load phases.
type Phases struct {
	mu     sync.Mutex
	now    Clock
	logger zerolog.Logger
	origin time.Time
	spans  map[string]*phaseSpan
}

func newPhases(now Clock, logger zerolog.Logger) *Phases {
	return &Phases{now: now, logger: logger, spans: make(map[string]*phaseSpan)}
}

// StartAnalysis sets the origin percentages are computed against.
func (p *Phases) StartAnalysis() {
	p.mu.Lock()
	p.origin = p.now()
	p.mu.Unlock()
}

// StartPhase opens (or reopens) a phase.
func (p *Phases) StartPhase(name string) {
	p.mu.Lock()
	p.spans[name] = &phaseSpan{start: p.now()}
	p.mu.Unlock()
	p.logger.Debug().Str("phase", name).Msg("Phase started")
}

// EndPhase closes a phase. Unknown phases are ignored.
func (p *Phases) EndPhase(name string) {
	p.mu.Lock()
	span, ok := p.spans[name]
	if ok {
		span.end = p.now()
	}
	p.mu.Unlock()

	if ok {
		p.logger.Debug().Str("phase", name).Dur("duration", span.end.Sub(span.start)).Msg("Phase completed")
	}
}

// Breakdown returns finished phases, longest first.
func (p *Phases) Breakdown() []PhaseBreakdown {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.now().Sub(p.origin)
	out := make([]PhaseBreakdown, 0, len(p.spans))
	for name, span := range p.spans {
		if span.end.IsZero() {
			continue
		}
		info, ok := phaseDescriptions[name]
		if !ok {
			info = phaseInfo{description: "Custom phase", optimization: "Analyze and optimize"}
		}
		d := span.end.Sub(span.start)
		var pct float64
		if !p.origin.IsZero() && total > 0 {
			pct = float64(d) / float64(total) * 100
		}
		out = append(out, PhaseBreakdown{
			Phase:        name,
			Start:        span.start,
			End:          span.end,
			Duration:     d,
			Percentage:   pct,
			Description:  info.description,
			Optimization: info.optimization,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration == out[j].Duration {
			return out[i].Phase < out[j].Phase
		}
		return out[i].Duration > out[j].Duration
	})
	return out
}

// Clear drops every phase and the origin.
func (p *Phases) Clear() {
	p.mu.Lock()
	p.spans = make(map[string]*phaseSpan)
	p.origin = time.Time{}
	p.mu.Unlock()
}
