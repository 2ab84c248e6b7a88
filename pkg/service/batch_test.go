package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/rsywx-client/internal/testutil"
	"github.com/Sternrassler/rsywx-client/pkg/model"
)

func TestLoadBooksDataBatch_AllSucceed(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)

	b, err := NewBookService(c, quiet).LoadBooksDataBatch(context.Background())
	require.NoError(t, err)

	assert.Empty(t, b.Errors)
	assert.Equal(t, 10, b.Summary.BookCount)
	assert.Equal(t, "红楼梦", b.Latest.Title)
	assert.Len(t, b.Random, 4)
	assert.Len(t, b.Recent, 5)
	assert.Len(t, b.Forgotten, 5)
	assert.Len(t, b.Today, 2)
	assert.Equal(t, 6, mock.GetRequestCount())
}

func TestLoadBooksDataBatch_PartialFailure(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	mock.SetStatus(testutil.PathRandom(4), http.StatusInternalServerError)
	mock.SetFailedEnvelope(testutil.PathToday)

	b, err := NewBookService(c, quiet).LoadBooksDataBatch(context.Background())
	require.NoError(t, err)

	assert.Len(t, b.Errors, 2)
	assert.Error(t, b.Err(FieldRandom))
	assert.Error(t, b.Err(FieldToday))
	assert.NoError(t, b.Err(FieldSummary))

	assert.Equal(t, []model.RandomBook{}, b.Random)
	assert.Equal(t, []model.TodayBook{}, b.Today)
	assert.Equal(t, 10, b.Summary.BookCount)
	assert.Len(t, b.Recent, 5)
	assert.Len(t, b.Forgotten, 5)
	assert.Equal(t, "00123", b.Latest.BookID)
}

func TestLoadBooksDataBatch_ListCounts(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(2, 3)

	b, err := NewBookService(c, quiet, WithListCounts(2, 3)).LoadBooksDataBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.Random, 2)
	assert.Len(t, b.Recent, 3)
}

func TestLoadBooksDataBatch_AllFail(t *testing.T) {
	_, c := newTestGateway(t)

	b, err := NewBookService(c, quiet).LoadBooksDataBatch(context.Background())
	assert.ErrorIs(t, err, ErrBatchUnavailable)
	assert.Nil(t, b)
}

func TestLoadBooksDataBatch_CancelledContext(t *testing.T) {
	mock, c := newTestGateway(t)
	mock.SeedHome(4, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBookService(c, quiet).LoadBooksDataBatch(ctx)
	assert.ErrorIs(t, err, ErrBatchUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
