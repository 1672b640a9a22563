package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbradar/arbradar/internal/domain"
	"github.com/arbradar/arbradar/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAdminService struct {
	refreshErr error
	result     pipeline.CycleResult
}

func (f *fakeAdminService) Refresh(context.Context) (pipeline.CycleResult, error) {
	return f.result, f.refreshErr
}

func (f *fakeAdminService) PerformMaintenance(context.Context) (domain.MaintenanceReport, error) {
	return domain.MaintenanceReport{ClosedMarkets: 3}, nil
}

func (f *fakeAdminService) ValidateQuality(context.Context) (domain.QualityReport, error) {
	return domain.QualityReport{CheckedMarkets: 10}, nil
}

type fakeOpportunityReader struct {
	gotFilter domain.OpportunityFilter
	opps      []domain.ArbitrageOpportunity
	err       error
}

func (f *fakeOpportunityReader) GetOpportunities(_ context.Context, filter domain.OpportunityFilter) ([]domain.ArbitrageOpportunity, error) {
	f.gotFilter = filter
	return f.opps, f.err
}

type fakeMarketReader struct {
	markets []domain.Market
	err     error
}

func (f *fakeMarketReader) GetMarkets(context.Context, domain.ListOpts) ([]domain.Market, error) {
	return f.markets, f.err
}

func TestAdminHandler_TriggerSyncConflict(t *testing.T) {
	h := NewAdminHandler(&fakeAdminService{refreshErr: domain.ErrSyncRunning}, testLogger())

	rec := httptest.NewRecorder()
	h.TriggerSync(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sync cycle already running", body["error"])
}

func TestAdminHandler_TriggerSyncOK(t *testing.T) {
	h := NewAdminHandler(&fakeAdminService{result: pipeline.CycleResult{Markets: 7, Pairs: 2, Opportunities: 1}}, testLogger())

	rec := httptest.NewRecorder()
	h.TriggerSync(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body["markets"])
	assert.EqualValues(t, 2, body["pairs"])
	assert.EqualValues(t, 1, body["opportunities"])
}

func TestAdminHandler_TriggerSyncFailure(t *testing.T) {
	h := NewAdminHandler(&fakeAdminService{refreshErr: errors.New("pg down")}, testLogger())

	rec := httptest.NewRecorder()
	h.TriggerSync(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pg down", "internal errors never leak to clients")
}

func TestOpportunityHandler_ParsesFilter(t *testing.T) {
	reader := &fakeOpportunityReader{}
	h := NewOpportunityHandler(reader, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/opportunities?min_spread=2.5&min_liquidity=1000&category=politics&limit=10", nil)
	h.ListOpportunities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.5, reader.gotFilter.MinNetSpreadPct)
	assert.Equal(t, 1000.0, reader.gotFilter.MinLiquidity)
	assert.Equal(t, domain.CategoryPolitics, reader.gotFilter.Category)
	assert.Equal(t, 10, reader.gotFilter.Limit)
}

func TestOpportunityHandler_EmptyResultIsJSONArray(t *testing.T) {
	h := NewOpportunityHandler(&fakeOpportunityReader{}, testLogger())

	rec := httptest.NewRecorder()
	h.ListOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"opportunities":[],"count":0}`, rec.Body.String())
}

func TestMarketHandler_ListMarkets(t *testing.T) {
	h := NewMarketHandler(&fakeMarketReader{markets: []domain.Market{
		{ID: "m1", Title: "Trump wins 2024"},
	}}, testLogger())

	rec := httptest.NewRecorder()
	h.ListMarkets(rec, httptest.NewRequest(http.MethodGet, "/api/markets?limit=25&offset=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body listMarketsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 25, body.Limit)
	assert.Equal(t, 5, body.Offset)
}

func TestMarketHandler_ReaderErrorIs500(t *testing.T) {
	h := NewMarketHandler(&fakeMarketReader{err: errors.New("boom")}, testLogger())

	rec := httptest.NewRecorder()
	h.ListMarkets(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseListOpts_Bounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=9999&offset=-3", nil)
	opts := parseListOpts(req)
	assert.Equal(t, 500, opts.Limit, "limit is capped")
	assert.Equal(t, 0, opts.Offset, "negative offsets are ignored")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	opts = parseListOpts(req)
	assert.Equal(t, 50, opts.Limit)
}
