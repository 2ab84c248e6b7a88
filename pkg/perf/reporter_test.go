package perf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPopulatedReporter(t *testing.T) (*Reporter, *fakeClock) {
	t.Helper()
	a, clock := newTestAnalyzer()
	a.StartPageLoad()
	a.Phases().StartAnalysis()
	a.Phases().StartPhase(PhaseCriticalData)
	timeFor(a, clock, "Books Summary", CategoryAPI, 2500*time.Millisecond)
	timeFor(a, clock, "Latest Book", CategoryAPI, 1500*time.Millisecond)
	a.Phases().EndPhase(PhaseCriticalData)
	timeFor(a, clock, "Random Books", CategoryAPI, 600*time.Millisecond)
	return NewReporter(a), clock
}

func TestReporter_Generate(t *testing.T) {
	r, _ := newPopulatedReporter(t)

	report := r.Generate(map[string]bool{"summary": true, "randomBook": false}, CacheStats{Size: 1, Entries: []string{"rsywx:abc"}})

	assert.Equal(t, 3, report.Summary.TotalAPICalls)
	assert.Equal(t, 3, report.Summary.SuccessfulCalls)
	assert.InDelta(t, 4600.0, report.TotalLoadTime, 0.001)
	require.Len(t, report.Bottlenecks, 3)
	assert.Equal(t, "high", report.Bottlenecks[0].Impact)
	assert.Len(t, report.Recommendations.HighPriority, 1)
	assert.Len(t, report.Recommendations.MediumPriority, 1)
	assert.Len(t, report.Recommendations.LowPriority, 1)
	assert.NotEmpty(t, report.Recommendations.QuickWins)
	require.Len(t, report.PhaseBreakdown, 1)
	assert.Equal(t, PhaseCriticalData, report.PhaseBreakdown[0].Phase)
	assert.False(t, report.DataStatus["randomBook"])
}

func TestReporter_FormatText(t *testing.T) {
	r, _ := newPopulatedReporter(t)
	text := r.FormatText(r.Generate(map[string]bool{"summary": true, "latestBook": false}, CacheStats{}))

	for _, want := range []string{
		"COMPREHENSIVE PERFORMANCE REPORT",
		"Total Load Time: 4600.00ms (4.60s)",
		"1. [HIGH] Books Summary",
		"API: 3 calls",
		"   latestBook: Failed",
		"   summary: Loaded",
		"HIGH PRIORITY (Fix immediately):",
		"WARNING: Load time > 3s",
		"END OF REPORT",
	} {
		assert.Contains(t, text, want)
	}
	assert.Less(t, strings.Index(text, "latestBook"), strings.Index(text, "summary: Loaded"))
}

func TestReporter_JSON(t *testing.T) {
	r, _ := newPopulatedReporter(t)

	data, err := r.JSON(r.Generate(nil, CacheStats{}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"timestamp", "totalLoadTime", "summary", "bottlenecks", "phaseBreakdown", "categoryBreakdown", "dataStatus", "cacheStats", "recommendations"} {
		assert.Contains(t, decoded, key)
	}
	assert.Contains(t, string(data), "\n  \"")
}

func TestReporter_SaveToDir(t *testing.T) {
	r, _ := newPopulatedReporter(t)
	dir := filepath.Join(t.TempDir(), "reports")

	txt, js, err := r.SaveToDir(r.Generate(nil, CacheStats{}), dir, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(txt), "performance-report-"))
	assert.Equal(t, strings.TrimSuffix(txt, ".txt"), strings.TrimSuffix(js, ".json"))
	for _, p := range []string{txt, js} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestDefaultReportBase(t *testing.T) {
	ts := time.Date(2025, 2, 28, 10, 30, 15, 123000000, time.UTC)
	assert.Equal(t, "performance-report-2025-02-28T10-30-15-123Z", DefaultReportBase(ts))
}
