package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/rsywx-client/internal/testutil"
	"github.com/Sternrassler/rsywx-client/pkg/client"
	"github.com/Sternrassler/rsywx-client/pkg/model"
	"github.com/Sternrassler/rsywx-client/pkg/perf"
)

func newTestGateway(t *testing.T) (*testutil.MockGateway, *client.Client) {
	t.Helper()
	mock := testutil.NewMockGateway()
	t.Cleanup(mock.Close)

	cfg := client.DefaultConfig(mock.URL(), "test-key")
	cfg.Timeout = 2 * time.Second
	cfg.Retry = client.RetryConfig{
		MaxAttempts:       1,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1,
	}
	c, err := client.New(cfg)
	require.NoError(t, err)
	return mock, c
}

var quiet = WithLogger(zerolog.Nop())

func TestBookService_GetBooksSummary(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(DefaultRandomCount, DefaultListCount)

	summary, err := NewBookService(c, quiet).GetBooksSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.BooksSummary{BookCount: 10, PageCount: "500", WordCount: "200", VisitCount: 5}, summary)
	assert.Equal(t, "test-key", mock.Requests()[0].Header.Get(client.HeaderAPIKey))
}

func TestBookService_CriticalFailuresPropagate(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetStatus(testutil.PathStatus, http.StatusBadGateway)
	mock.SetFailedEnvelope(testutil.PathLatest)
	svc := NewBookService(c, quiet)
	ctx := context.Background()

	summary, err := svc.GetBooksSummary(ctx)
	assert.Error(t, err)
	assert.Equal(t, model.DefaultBooksSummary(), summary)

	latest, err := svc.GetLatestBook(ctx)
	assert.ErrorIs(t, err, client.ErrEnvelopeFailed)
	assert.Equal(t, model.DefaultLatestBook(), latest)

	_, err = svc.GetBookDetail(ctx, "00404")
	var gwErr *client.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusNotFound, gwErr.StatusCode)
}

func TestBookService_OptionalFailuresDefault(t *testing.T) {
	mock, c := newTestGateway(t)
	for _, p := range []string{testutil.PathRandom(4), testutil.PathRecent(5), testutil.PathForgotten(5), testutil.PathToday} {
		mock.SetStatus(p, http.StatusInternalServerError)
	}
	svc := NewBookService(c, quiet)
	ctx := context.Background()

	random, err := svc.GetRandomBooks(ctx, 4, false)
	assert.NoError(t, err)
	assert.NotNil(t, random)
	assert.Empty(t, random)

	recent, err := svc.GetRecentBooks(ctx, 5)
	assert.NoError(t, err)
	assert.NotNil(t, recent)

	forgotten, err := svc.GetForgetBooks(ctx, 5)
	assert.NoError(t, err)
	assert.NotNil(t, forgotten)

	today, err := svc.GetTodayBooks(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, today)
}

func TestBookService_Lists(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	svc := NewBookService(c, quiet)
	ctx := context.Background()

	latest, err := svc.GetLatestBook(ctx)
	require.NoError(t, err)
	assert.Equal(t, "红楼梦", latest.Title)
	assert.Equal(t, "00123", latest.BookID)

	random, _ := svc.GetRandomBooks(ctx, 4, false)
	assert.Len(t, random, 4)
	assert.Equal(t, "/covers/00001.webp", random[0].CoverURI)

	recent, _ := svc.GetRecentBooks(ctx, 5)
	assert.Len(t, recent, 5)
	assert.Equal(t, 3, recent[0].VisitCount)

	forgotten, _ := svc.GetForgetBooks(ctx, 5)
	assert.Equal(t, 10, forgotten[0].DaysSinceVisit)

	today, _ := svc.GetTodayBooks(ctx)
	assert.Len(t, today, 2)
}

func TestBookService_LatestBookEmptyList(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetEnvelope(testutil.PathLatest, []any{})

	latest, err := NewBookService(c, quiet).GetLatestBook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLatestBook(), latest)
}

func TestBookService_RandomRefresh(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetEnvelope(testutil.PathRandom(4), testutil.BookList(4))
	fixed := time.UnixMilli(1740736800000)
	svc := NewBookService(c, quiet, WithClock(func() time.Time { return fixed }))

	_, err := svc.GetRandomBooks(context.Background(), 4, true)
	require.NoError(t, err)

	q := mock.Requests()[0].Query
	assert.Contains(t, q, "refresh=true")
	assert.Contains(t, q, "t=1740736800000")
}

func TestBookService_GetBookDetail(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetEnvelope(testutil.PathBook("00123"), testutil.DetailFixture(123, "红楼梦"))
	svc := NewBookService(c, quiet)

	book, err := svc.GetBookDetail(context.Background(), "00123")
	require.NoError(t, err)
	assert.Equal(t, "红楼梦", book.Title)
	assert.Equal(t, "人民文学出版社", book.PublisherName)
	require.Len(t, book.Reviews, 1)
	assert.Equal(t, "读《红楼梦》", book.Reviews[0].Title)

	_, err = svc.GetBookDetail(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidBookID)
}

func TestBookService_LegacySummary(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetResponse(testutil.PathLegacySummary, testutil.MockResponse{Body: `{"bc":10,"pc":"500","wc":"200"}`})

	summary, err := NewBookService(c, quiet).GetLegacyBooksSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.BooksSummary{BookCount: 10, PageCount: "500", WordCount: "200"}, summary)
}

func TestBookService_StrictEnvelope(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetResponse(testutil.PathStatus, testutil.MockResponse{Body: `{"total_books":10}`})

	_, err := NewBookService(c, quiet).GetBooksSummary(context.Background())
	assert.ErrorIs(t, err, client.ErrEnvelopeShape)
}

func TestBookService_TimedWithAnalyzer(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	a := perf.NewAnalyzer(perf.WithLogger(zerolog.Nop()))

	_, err := NewBookService(c, quiet, WithAnalyzer(a)).GetBooksSummary(context.Background())
	require.NoError(t, err)

	metrics := a.Metrics()
	require.Len(t, metrics, 1)
	assert.Equal(t, "Books Summary", metrics[0].Name)
	assert.Equal(t, perf.StatusCompleted, metrics[0].Status)
}

func TestReadingService(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	svc := NewReadingService(c, quiet)
	ctx := context.Background()

	summary, err := svc.GetReadingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.LegacyReadingSummary{HeadCount: 42, ReviewCount: 17}, summary.ToLegacy())
	assert.Equal(t, 5479, summary.ReadingPeriod.TotalDays)

	latest, err := svc.GetLatestReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, "读《红楼梦》", latest.ReviewTitle)
	assert.Equal(t, "红楼梦", latest.ToLegacy().BookTitle)
}

func TestReadingService_Failure(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SetStatus(testutil.PathReadingSummary, http.StatusServiceUnavailable)
	svc := NewReadingService(c, quiet)

	_, err := svc.GetReadingSummary(context.Background())
	assert.Error(t, err)

	latest, err := svc.GetLatestReading(context.Background())
	assert.Error(t, err)
	assert.Equal(t, -1, latest.ToLegacy().ID)
}

func TestVisitService(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	svc := NewVisitService(c, quiet)

	history, err := svc.GetVisitHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, 30, history.Period.Days)
	assert.Equal(t, "2025-02-28", history.Period.EndDate)
	assert.Equal(t, "days=30", mock.Requests()[0].Query)

	stats, err := svc.GetVisitStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []model.VisitStats{{Count: 3, Date: "2025-02-27"}, {Count: 5, Date: "2025-02-28"}}, stats)
	assert.True(t, strings.HasSuffix(mock.Requests()[1].Query, "days=7"))
}

func TestVisitService_Failure(t *testing.T) {
	_, c := newTestGateway(t)

	history, err := NewVisitService(c, quiet).GetVisitHistory(context.Background(), 30)
	assert.Error(t, err)
	assert.NotNil(t, history.Items)
}

func TestMiscService(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	svc := NewMiscService(c, quiet)
	ctx := context.Background()

	w, err := svc.GetWeather(ctx)
	require.NoError(t, err)
	assert.Equal(t, "晴", w.Now.Text)

	word, err := svc.GetWordOfTheDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ephemeral", word.Word)

	q, err := svc.GetQuoteOfTheDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Qotd{ID: 7, Quote: "学而不思则罔", Source: "论语"}, q)
}

func TestMiscService_FailuresDefault(t *testing.T) {
	_, c := newTestGateway(t)
	svc := NewMiscService(c, quiet)
	ctx := context.Background()

	w, err := svc.GetWeather(ctx)
	assert.NoError(t, err)
	assert.False(t, w.Available())

	word, err := svc.GetWordOfTheDay(ctx)
	assert.NoError(t, err)
	assert.Equal(t, model.DefaultWord(), word)

	q, err := svc.GetQuoteOfTheDay(ctx)
	assert.NoError(t, err)
	assert.Equal(t, model.DefaultQotd(), q)
}

func TestNewBookService_NilGateway(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil gateway")
		}
	}()
	NewBookService(nil)
}
