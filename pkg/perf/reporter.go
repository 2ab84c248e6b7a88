package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// CacheStats describes the response cache at report time.
type CacheStats struct {
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}

// ReportSummary is the call summary in milliseconds.
type ReportSummary struct {
	TotalAPICalls   int     `json:"totalApiCalls"`
	SuccessfulCalls int     `json:"successfulCalls"`
	FailedCalls     int     `json:"failedCalls"`
	AverageDuration float64 `json:"averageDuration"`
	TotalDuration   float64 `json:"totalDuration"`
}

// ReportBottleneck is a bottleneck in milliseconds.
type ReportBottleneck struct {
	Name           string  `json:"name"`
	Duration       float64 `json:"duration"`
	Category       string  `json:"category"`
	Impact         string  `json:"impact"`
	Recommendation string  `json:"recommendation"`
}

// ReportPhase is a load phase in milliseconds.
type ReportPhase struct {
	Phase        string  `json:"phase"`
	Duration     float64 `json:"duration"`
	Percentage   float64 `json:"percentage"`
	Description  string  `json:"description"`
	Optimization string  `json:"optimization"`
}

// ReportCategory is one category row in milliseconds.
type ReportCategory struct {
	Count     int     `json:"count"`
	TotalTime float64 `json:"totalTime"`
	AvgTime   float64 `json:"avgTime"`
}

// Recommendations are bottleneck advice grouped by priority.
type Recommendations struct {
	HighPriority   []string `json:"highPriority"`
	MediumPriority []string `json:"mediumPriority"`
	LowPriority    []string `json:"lowPriority"`
	QuickWins      []string `json:"quickWins"`
}

// Report is the exported performance snapshot. Durations are milliseconds.
type Report struct {
	Timestamp         string                    `json:"timestamp"`
	TotalLoadTime     float64                   `json:"totalLoadTime"`
	Summary           ReportSummary             `json:"summary"`
	Bottlenecks       []ReportBottleneck        `json:"bottlenecks"`
	PhaseBreakdown    []ReportPhase             `json:"phaseBreakdown"`
	CategoryBreakdown map[string]ReportCategory `json:"categoryBreakdown"`
	DataStatus        map[string]bool           `json:"dataStatus"`
	CacheStats        CacheStats                `json:"cacheStats"`
	Recommendations   Recommendations           `json:"recommendations"`
}

var quickWins = []string{
	"Enable the Redis cache layer so instances share responses",
	"Raise cache.default_ttl for daily content",
	"Load book widgets through the batch loader",
	"Prefer the staged strategy for a faster first render",
	"Keep the gateway rate limit above the page's request fan-out",
}

// Reporter turns analyzer state into reports.
type Reporter struct {
	analyzer *Analyzer
	logger   zerolog.Logger
}

// NewReporter creates a reporter over a.
func NewReporter(a *Analyzer) *Reporter {
	return &Reporter{analyzer: a, logger: a.logger}
}

// Generate snapshots the analyzer. dataStatus maps store field names to
// whether they hold data.
func (r *Reporter) Generate(dataStatus map[string]bool, cacheStats CacheStats) *Report {
	analysis := r.analyzer.AnalyzeBottlenecks()
	summary := r.analyzer.Summary()
	phases := r.analyzer.Phases().Breakdown()

	report := &Report{
		Timestamp:     r.analyzer.now().UTC().Format(time.RFC3339Nano),
		TotalLoadTime: ms(analysis.TotalTime),
		Summary: ReportSummary{
			TotalAPICalls:   analysis.CategoryBreakdown[CategoryAPI].Count,
			SuccessfulCalls: summary.SuccessfulCalls,
			FailedCalls:     summary.FailedCalls,
			AverageDuration: ms(summary.AverageDuration),
			TotalDuration:   ms(summary.TotalDuration),
		},
		Bottlenecks:       make([]ReportBottleneck, 0, len(analysis.Bottlenecks)),
		PhaseBreakdown:    make([]ReportPhase, 0, len(phases)),
		CategoryBreakdown: make(map[string]ReportCategory, len(analysis.CategoryBreakdown)),
		DataStatus:        make(map[string]bool, len(dataStatus)),
		CacheStats:        cacheStats,
		Recommendations: Recommendations{
			HighPriority:   []string{},
			MediumPriority: []string{},
			LowPriority:    []string{},
			QuickWins:      quickWins,
		},
	}
	if report.CacheStats.Entries == nil {
		report.CacheStats.Entries = []string{}
	}

	for _, b := range analysis.Bottlenecks {
		report.Bottlenecks = append(report.Bottlenecks, ReportBottleneck{
			Name:           b.Name,
			Duration:       ms(b.Duration),
			Category:       string(b.Category),
			Impact:         string(b.Impact),
			Recommendation: b.Recommendation,
		})
		line := b.Name + ": " + b.Recommendation
		switch b.Impact {
		case ImpactHigh:
			report.Recommendations.HighPriority = append(report.Recommendations.HighPriority, line)
		case ImpactMedium:
			report.Recommendations.MediumPriority = append(report.Recommendations.MediumPriority, line)
		default:
			report.Recommendations.LowPriority = append(report.Recommendations.LowPriority, line)
		}
	}
	for _, p := range phases {
		report.PhaseBreakdown = append(report.PhaseBreakdown, ReportPhase{
			Phase:        p.Phase,
			Duration:     ms(p.Duration),
			Percentage:   p.Percentage,
			Description:  p.Description,
			Optimization: p.Optimization,
		})
	}
	for cat, stats := range analysis.CategoryBreakdown {
		report.CategoryBreakdown[string(cat)] = ReportCategory{
			Count:     stats.Count,
			TotalTime: ms(stats.TotalTime),
			AvgTime:   ms(stats.AvgTime),
		}
	}
	for k, v := range dataStatus {
		report.DataStatus[k] = v
	}

	return report
}

// JSON encodes the report with two-space indentation.
func (r *Reporter) JSON(report *Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatText renders the report for humans.
func (r *Reporter) FormatText(report *Report) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	rule := strings.Repeat("=", 47)

	line(rule)
	line("         COMPREHENSIVE PERFORMANCE REPORT")
	line(rule)
	line("Generated: %s", report.Timestamp)
	line("Total Load Time: %.2fms (%.2fs)", report.TotalLoadTime, report.TotalLoadTime/1000)
	line("")

	line("PERFORMANCE SUMMARY:")
	line("   Total API calls: %d", report.Summary.TotalAPICalls)
	line("   Successful: %d", report.Summary.SuccessfulCalls)
	line("   Failed: %d", report.Summary.FailedCalls)
	line("   Average duration: %.2fms", report.Summary.AverageDuration)
	line("   Total API time: %.2fms", report.Summary.TotalDuration)
	line("")

	line("TOP BOTTLENECKS:")
	for i, bn := range report.Bottlenecks {
		if i == 10 {
			break
		}
		line("%d. [%s] %s", i+1, strings.ToUpper(bn.Impact), bn.Name)
		line("   Duration: %.2fms", bn.Duration)
		line("   Category: %s", bn.Category)
		line("   Recommendation: %s", bn.Recommendation)
		line("")
	}

	line("LOAD PHASE BREAKDOWN:")
	for i, p := range report.PhaseBreakdown {
		bar := strings.Repeat("#", max(1, int(p.Percentage/2)))
		line("%d. %s", i+1, p.Phase)
		line("   Duration: %.2fms (%.1f%%)", p.Duration, p.Percentage)
		line("   %s %.1f%%", bar, p.Percentage)
		line("   Description: %s", p.Description)
		line("   Optimization: %s", p.Optimization)
		line("")
	}

	line("CATEGORY BREAKDOWN:")
	for _, cat := range sortedKeys(report.CategoryBreakdown) {
		c := report.CategoryBreakdown[cat]
		line("%s: %d calls, %.2fms total, %.2fms avg", strings.ToUpper(cat), c.Count, c.TotalTime, c.AvgTime)
	}
	line("")

	line("DATA LOADING STATUS:")
	for _, key := range sortedKeys(report.DataStatus) {
		status := "Failed"
		if report.DataStatus[key] {
			status = "Loaded"
		}
		line("   %s: %s", key, status)
	}
	line("")

	line("CACHE STATISTICS:")
	line("   Cached entries: %d", report.CacheStats.Size)
	if report.CacheStats.Size > 0 {
		line("   Cached resources:")
		for _, e := range report.CacheStats.Entries {
			line("     - %s", e)
		}
	}
	line("")

	line("OPTIMIZATION RECOMMENDATIONS:")
	line("")
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		line(title)
		for _, item := range items {
			line("   - %s", item)
		}
		line("")
	}
	writeList("HIGH PRIORITY (Fix immediately):", report.Recommendations.HighPriority)
	writeList("MEDIUM PRIORITY (Fix soon):", report.Recommendations.MediumPriority)
	writeList("LOW PRIORITY (Consider for future):", report.Recommendations.LowPriority)
	writeList("QUICK WINS (Easy optimizations):", report.Recommendations.QuickWins)

	line("PERFORMANCE ASSESSMENT:")
	switch {
	case report.TotalLoadTime > 5000:
		line("CRITICAL: Load time > 5s - Immediate action required")
		line("   Target: Reduce to under 3s for acceptable performance")
	case report.TotalLoadTime > 3000:
		line("WARNING: Load time > 3s - Optimization recommended")
		line("   Target: Reduce to under 2s for good performance")
	case report.TotalLoadTime > 1000:
		line("INFO: Load time > 1s - Consider optimization")
		line("   Target: Reduce to under 1s for excellent performance")
	default:
		line("GOOD: Load time < 1s - Performance is acceptable")
	}
	line("")

	line(rule)
	line("              END OF REPORT")
	b.WriteString(rule)

	return b.String()
}

// SaveToDir writes <base>.txt and <base>.json into dir, creating it when
// needed. An empty base becomes performance-report-<timestamp>.
func (r *Reporter) SaveToDir(report *Report, dir, base string) (txtPath, jsonPath string, err error) {
	if base == "" {
		base = DefaultReportBase(r.analyzer.now())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := r.JSON(report)
	if err != nil {
		return "", "", fmt.Errorf("encode report: %w", err)
	}

	txtPath = filepath.Join(dir, base+".txt")
	jsonPath = filepath.Join(dir, base+".json")
	if err := os.WriteFile(txtPath, []byte(r.FormatText(report)), 0o644); err != nil {
		return "", "", fmt.Errorf("write text report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write json report: %w", err)
	}

	r.logger.Info().Str("text", txtPath).Str("json", jsonPath).Msg("Performance report saved")
	return txtPath, jsonPath, nil
}

// DefaultReportBase returns performance-report-<ISO timestamp> with the
// characters file systems dislike replaced by dashes.
func DefaultReportBase(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return "performance-report-" + ts
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
