package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Sternrassler/rsywx-client/pkg/client"
	"github.com/Sternrassler/rsywx-client/pkg/logging"
	"github.com/Sternrassler/rsywx-client/pkg/model"
	"github.com/Sternrassler/rsywx-client/pkg/perf"
)

// Book gateway paths.
const (
	PathBooksStatus   = "/books/status"
	PathLegacySummary = "/book/summary"
	PathLatestBook    = "/books/latest/1"
	PathTodayBooks    = "/books/today"
)

// ErrInvalidBookID is returned for an empty book id.
var ErrInvalidBookID = errors.New("book id is required")

// BookService loads book records.
type BookService struct {
	base
}

// NewBookService creates a book service over gw.
func NewBookService(gw Gateway, opts ...Option) *BookService {
	return &BookService{base: newBase(gw, logging.NewLogger(logging.ComponentBookService), opts)}
}

// GetBooksSummary returns the collection counters.
func (s *BookService) GetBooksSummary(ctx context.Context) (model.BooksSummary, error) {
	summary, err := s.fetchSummary(ctx)
	if err != nil {
		s.logCritical(err, "books summary", PathBooksStatus)
		return model.DefaultBooksSummary(), err
	}
	return summary, nil
}

// GetLegacyBooksSummary reads the older, unwrapped /book/summary endpoint.
func (s *BookService) GetLegacyBooksSummary(ctx context.Context) (model.BooksSummary, error) {
	summary, err := timedBare[model.BooksSummary](ctx, &s.base, "Legacy Books Summary", PathLegacySummary)
	if err != nil {
		s.logCritical(err, "legacy books summary", PathLegacySummary)
		return model.DefaultBooksSummary(), err
	}
	return summary, nil
}

// GetLatestBook returns the most recently purchased book.
func (s *BookService) GetLatestBook(ctx context.Context) (model.LatestBook, error) {
	latest, err := s.fetchLatest(ctx)
	if err != nil {
		s.logCritical(err, "latest book", PathLatestBook)
		return model.DefaultLatestBook(), err
	}
	return latest, nil
}

// GetRandomBooks returns n random books. With refresh the gateway is asked
// for a new pick and the response cache is bypassed.
func (s *BookService) GetRandomBooks(ctx context.Context, n int, refresh bool) ([]model.RandomBook, error) {
	books, err := s.fetchRandom(ctx, n, refresh)
	if err != nil {
		s.logOptional(err, "random books", pathRandom(n))
		return []model.RandomBook{}, nil
	}
	return books, nil
}

// GetRecentBooks returns the n most recently visited books.
func (s *BookService) GetRecentBooks(ctx context.Context, n int) ([]model.RecentBook, error) {
	books, err := s.fetchRecent(ctx, n)
	if err != nil {
		s.logOptional(err, "recent books", pathRecent(n))
		return []model.RecentBook{}, nil
	}
	return books, nil
}

// GetForgetBooks returns n books nobody visited for a long time.
func (s *BookService) GetForgetBooks(ctx context.Context, n int) ([]model.ForgetBook, error) {
	books, err := s.fetchForgotten(ctx, n)
	if err != nil {
		s.logOptional(err, "forgotten books", pathForgotten(n))
		return []model.ForgetBook{}, nil
	}
	return books, nil
}

// GetTodayBooks returns books purchased on today's date in earlier years.
func (s *BookService) GetTodayBooks(ctx context.Context) ([]model.TodayBook, error) {
	books, err := s.fetchToday(ctx)
	if err != nil {
		s.logOptional(err, "today books", PathTodayBooks)
		return []model.TodayBook{}, nil
	}
	return books, nil
}

// GetBookDetail returns the full record of one book.
func (s *BookService) GetBookDetail(ctx context.Context, bookid string) (model.Book, error) {
	if bookid == "" {
		return model.DefaultBook(), ErrInvalidBookID
	}
	path := "/books/" + url.PathEscape(bookid)

	book, err := fetch[model.Book](ctx, &s.base, "Book Detail", path)
	if err != nil {
		s.logCritical(err, "book detail", path)
		return model.DefaultBook(), err
	}
	book.Normalize()
	return book, nil
}

// Raw fetchers return errors unchanged; the batch loader uses them so it can
// attribute failures per field.

func (s *BookService) fetchSummary(ctx context.Context) (model.BooksSummary, error) {
	status, err := fetch[model.StatusPayload](ctx, &s.base, "Books Summary", PathBooksStatus)
	if err != nil {
		return model.DefaultBooksSummary(), err
	}
	return status.ToSummary(), nil
}

func (s *BookService) fetchLatest(ctx context.Context) (model.LatestBook, error) {
	books, err := fetchList[model.LatestBook](ctx, &s.base, "Latest Book", PathLatestBook)
	if err != nil {
		return model.DefaultLatestBook(), err
	}
	return first(books, model.DefaultLatestBook()), nil
}

func (s *BookService) fetchRandom(ctx context.Context, n int, refresh bool) ([]model.RandomBook, error) {
	var opts []client.RequestOption
	if refresh {
		opts = append(opts,
			client.WithNoCache(),
			client.WithQuery("refresh", "true"),
			client.WithQuery("t", strconv.FormatInt(s.now().UnixMilli(), 10)),
		)
	}
	return fetchList[model.RandomBook](ctx, &s.base, "Random Books", pathRandom(n), opts...)
}

func (s *BookService) fetchRecent(ctx context.Context, n int) ([]model.RecentBook, error) {
	return fetchList[model.RecentBook](ctx, &s.base, "Recent Books", pathRecent(n))
}

func (s *BookService) fetchForgotten(ctx context.Context, n int) ([]model.ForgetBook, error) {
	return fetchList[model.ForgetBook](ctx, &s.base, "Forgotten Books", pathForgotten(n))
}

func (s *BookService) fetchToday(ctx context.Context) ([]model.TodayBook, error) {
	return fetchList[model.TodayBook](ctx, &s.base, "Today Books", PathTodayBooks)
}

func pathRandom(n int) string    { return fmt.Sprintf("/books/random/%d", n) }
func pathRecent(n int) string    { return fmt.Sprintf("/books/last_visited/%d", n) }
func pathForgotten(n int) string { return fmt.Sprintf("/books/forgotten/%d", n) }

func timedBare[T any](ctx context.Context, b *base, name, path string) (T, error) {
	return perf.Timed(b.analyzer, name, perf.CategoryAPI, func() (T, error) {
		var v T
		if err := b.gw.GetBareJSON(ctx, path, &v); err != nil {
			return v, fmt.Errorf("fetch %s: %w", name, err)
		}
		return v, nil
	})
}
