package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/rsywx-client/internal/app"
	"github.com/Sternrassler/rsywx-client/pkg/client"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/metrics"
	"github.com/Sternrassler/rsywx-client/pkg/model"
	"github.com/Sternrassler/rsywx-client/pkg/orchestrator"
	"github.com/Sternrassler/rsywx-client/pkg/seo"
	"github.com/Sternrassler/rsywx-client/pkg/service"
	"github.com/Sternrassler/rsywx-client/pkg/store"
)

// server exposes the loaded stores over HTTP.
type server struct {
	app    *app.App
	logger zerolog.Logger

	mu       sync.Mutex
	starting bool
	wave     *orchestrator.Wave
}

func newServer(a *app.App) *server {
	return &server{app: a, logger: logging.NewLogger(logging.ComponentServer)}
}

// startLoad starts a load session unless one is starting or still running.
// It returns the new or running wave (nil while another session is still
// loading its critical data) and whether a new one was started. The lock is
// not held while Load waits on the gateway.
func (s *server) startLoad(ctx context.Context) (*orchestrator.Wave, bool, error) {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		return nil, false, nil
	}
	if s.waveRunning() {
		wave := s.wave
		s.mu.Unlock()
		return wave, false, nil
	}
	s.starting = true
	s.mu.Unlock()

	wave, err := s.app.Orchestrator.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if err != nil {
		return nil, false, err
	}
	s.wave = wave
	return wave, true, nil
}

func (s *server) loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starting || s.waveRunning()
}

// waveRunning must be called with s.mu held.
func (s *server) waveRunning() bool {
	if s.wave == nil {
		return false
	}
	select {
	case <-s.wave.Done():
		return false
	default:
		return true
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	if s.app.Config.Server.Metrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/home", s.handleHome)
	api.POST("/home/reload", s.handleReload)
	api.POST("/books/random/refresh", s.handleRefreshRandom)
	api.GET("/books/:bookid", s.handleBook)
	api.GET("/report", s.handleReport)
	api.GET("/report.txt", s.handleReportText)
	return r
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReady reports ready once both critical fields hold data.
func (s *server) handleReady(c *gin.Context) {
	books := s.app.Books
	ready := books.Summary.State() == store.StateReady && books.Latest.State() == store.StateReady
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "loading": s.loading(), "data": s.app.DataStatus()})
}

// homeData is the assembled home page.
type homeData struct {
	Books   store.BooksSnapshot   `json:"books"`
	Reading store.ReadingSnapshot `json:"reading"`
	Visits  visitsData            `json:"visits"`
	Daily   store.DailySnapshot   `json:"daily"`
	Legacy  legacyData            `json:"legacy"`
	Loading bool                  `json:"loading"`
	Meta    seo.Head              `json:"meta"`
}

type visitsData struct {
	History store.Snapshot[model.VisitHistory] `json:"history"`
	Stats   []model.VisitStats                 `json:"stats"`
}

type legacyData struct {
	ReadingSummary model.LegacyReadingSummary `json:"readingSummary"`
	LatestReading  model.LegacyLatestReading  `json:"latestReading"`
}

func homePayload(a *app.App, loading bool) homeData {
	site := a.SEO.Site()
	page := seo.PageMeta{
		Title:       site.Name,
		Description: site.Name + "的藏书、阅读与访问记录",
		Keywords:    a.SEO.PageKeywords(seo.PageHome, nil, ""),
		URL:         seo.CanonicalURL(site.URL, "/"),
		Type:        "website",
	}
	return homeData{
		Books:   a.Books.Snapshot(),
		Reading: a.Reading.Snapshot(),
		Visits: visitsData{
			History: a.Visits.History.Snapshot(),
			Stats:   a.Visits.Stats(),
		},
		Daily: a.Daily.Snapshot(),
		Legacy: legacyData{
			ReadingSummary: a.Reading.LegacySummary(),
			LatestReading:  a.Reading.LegacyLatest(),
		},
		Loading: loading,
		Meta:    seo.Tags(seo.GenerateMetaConfig(page, page.URL)),
	}
}

func (s *server) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, homePayload(s.app, s.loading()))
}

// handleReload clears the list flags and starts a new session in the
// background.
func (s *server) handleReload(c *gin.Context) {
	s.app.Books.ResetLoadedFlags()
	wave, started, err := s.startLoad(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	session := ""
	if wave != nil {
		session = wave.Session
	}
	c.JSON(http.StatusAccepted, gin.H{"session": session, "started": started})
}

func (s *server) handleRefreshRandom(c *gin.Context) {
	n := 0
	if raw := c.Query("count"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 1 and 50"})
			return
		}
		n = v
	}
	// random books are optional; a failed pick settles as an empty list
	_ = s.app.Books.RefreshRandom(c.Request.Context(), n)
	c.JSON(http.StatusOK, gin.H{"random": s.app.Books.Random.Snapshot()})
}

type bookPage struct {
	Book           model.Book      `json:"book"`
	Meta           seo.Head        `json:"meta"`
	StructuredData json.RawMessage `json:"structuredData"`
}

func (s *server) handleBook(c *gin.Context) {
	book, err := s.app.BookService.GetBookDetail(c.Request.Context(), c.Param("bookid"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	gen := s.app.SEO
	meta := gen.GenerateBookMeta(book)
	ld, err := seo.StructuredDataJSON(gen.GenerateBookStructuredData(book))
	if err != nil {
		s.logger.Warn().Err(err).Str("bookid", book.BookID).Msg("Structured data rejected")
		ld = nil
	}
	c.JSON(http.StatusOK, bookPage{
		Book:           book,
		Meta:           seo.Tags(seo.GenerateMetaConfig(meta.PageMeta, meta.URL)),
		StructuredData: ld,
	})
}

// statusForError maps gateway failures onto response codes.
func statusForError(err error) int {
	if errors.Is(err, service.ErrInvalidBookID) {
		return http.StatusBadRequest
	}
	var gwErr *client.GatewayError
	if errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound {
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (s *server) handleReport(c *gin.Context) {
	data, err := s.app.Reporter.JSON(s.app.Report())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *server) handleReportText(c *gin.Context) {
	c.String(http.StatusOK, s.app.Reporter.FormatText(s.app.Report()))
}
