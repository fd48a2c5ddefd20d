package comps

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/pricecomps/internal/model"
)

// --- パイプラインテスト用モック ---

type mockPrimary struct {
	listings []model.Listing
	err      error
	calls    int
}

func (m *mockPrimary) Search(_ context.Context, _ string) ([]model.Listing, error) {
	m.calls++
	return m.listings, m.err
}

type mockFallback struct {
	listings []model.Listing
	err      error
	calls    int
}

func (m *mockFallback) Search(_ context.Context, _ string) ([]model.Listing, error) {
	m.calls++
	return m.listings, m.err
}

type mockCache struct {
	entries    map[string]model.SearchResult
	storeCalls int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]model.SearchResult)}
}

func (m *mockCache) Lookup(query string) (model.SearchResult, bool) {
	p, ok := m.entries[query]
	return p, ok
}

func (m *mockCache) Store(query string, payload model.SearchResult) {
	m.storeCalls++
	m.entries[query] = payload
}

type mockMetrics struct {
	cacheHits     int
	upstreamCalls map[string]int
	searches      map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		upstreamCalls: make(map[string]int),
		searches:      make(map[string]int),
	}
}

func (m *mockMetrics) RecordSearch(source string)             { m.searches[source]++ }
func (m *mockMetrics) RecordCacheHit()                        { m.cacheHits++ }
func (m *mockMetrics) RecordUpstreamCall(provider string)     { m.upstreamCalls[provider]++ }
func (m *mockMetrics) RecordListings(_ string, _ int)         {}
func (m *mockMetrics) RecordSearchLatency(_ time.Duration)    {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func listingsWithPrices(prices ...float64) []model.Listing {
	listings := make([]model.Listing, len(prices))
	for i, p := range prices {
		listings[i] = model.Listing{Title: "item", Price: p, Condition: "Used"}
	}
	return listings
}

type fixture struct {
	service  *Service
	primary  *mockPrimary
	fallback *mockFallback
	cache    *mockCache
	metrics  *mockMetrics
}

func newFixture(primary *mockPrimary, fallback *mockFallback) *fixture {
	f := &fixture{
		primary:  primary,
		fallback: fallback,
		cache:    newMockCache(),
		metrics:  newMockMetrics(),
	}
	f.service = NewService(primary, fallback, f.cache, f.metrics, discardLogger())
	return f
}

func TestSearch_BlankQuery_ReturnsMissingQueryError(t *testing.T) {
	tests := []string{"", "   ", "\t"}

	for _, q := range tests {
		f := newFixture(&mockPrimary{}, &mockFallback{})

		_, err := f.service.Search(context.Background(), q)

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingQuery {
			t.Errorf("Search(%q) err = %v, want APIError %s", q, err, model.ErrCodeMissingQuery)
		}
		if f.primary.calls != 0 || f.fallback.calls != 0 {
			t.Errorf("Search(%q) called upstream providers; validation must short-circuit", q)
		}
	}
}

func TestSearch_SufficientPrimary_NeverInvokesFallback(t *testing.T) {
	f := newFixture(
		&mockPrimary{listings: listingsWithPrices(1, 2, 3)},
		&mockFallback{listings: listingsWithPrices(99)},
	)

	result, err := f.service.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if result.Source != model.SourcePrimary {
		t.Errorf("Source = %q, want %q", result.Source, model.SourcePrimary)
	}
	if f.fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0 for exactly 3 primary listings", f.fallback.calls)
	}
	if len(result.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(result.Items))
	}
	if result.Cached {
		t.Error("fresh result must have Cached = false")
	}
}

func TestSearch_InsufficientPrimary_TakesFallback(t *testing.T) {
	f := newFixture(
		&mockPrimary{listings: listingsWithPrices(1, 2)},
		&mockFallback{listings: listingsWithPrices(10, 20, 30, 40)},
	)

	result, err := f.service.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if result.Source != model.SourceFallback {
		t.Errorf("Source = %q, want %q for exactly 2 primary listings", result.Source, model.SourceFallback)
	}
	if f.fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", f.fallback.calls)
	}
	// フォールバック結果で統計が計算されること
	if result.Stats.Count != 4 {
		t.Errorf("Stats.Count = %d, want 4", result.Stats.Count)
	}
	if result.Stats.Median == nil || *result.Stats.Median != 25 {
		t.Errorf("Stats.Median = %v, want 25", result.Stats.Median)
	}
}

func TestSearch_EmptyFallback_StillCachesZeroCount(t *testing.T) {
	f := newFixture(&mockPrimary{}, &mockFallback{})

	result, err := f.service.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if result.Source != model.SourceFallback {
		t.Errorf("Source = %q, want %q", result.Source, model.SourceFallback)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("Items = %v, want empty non-nil slice", result.Items)
	}
	if result.Stats.Count != 0 || result.Stats.Median != nil {
		t.Errorf("Stats = %+v, want count 0 with absent quantiles", result.Stats)
	}
	// 件数0でもキャッシュには書き込まれる
	if f.cache.storeCalls != 1 {
		t.Errorf("cache stores = %d, want 1", f.cache.storeCalls)
	}
}

func TestSearch_CacheHit_SkipsUpstreamEntirely(t *testing.T) {
	f := newFixture(
		&mockPrimary{listings: listingsWithPrices(1, 2, 3)},
		&mockFallback{},
	)

	if _, err := f.service.Search(context.Background(), "q"); err != nil {
		t.Fatalf("first Search returned error: %v", err)
	}

	result, err := f.service.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("second Search returned error: %v", err)
	}

	if !result.Cached {
		t.Error("cached result must have Cached = true")
	}
	if f.primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1 (second request served from cache)", f.primary.calls)
	}
	if f.metrics.cacheHits != 1 {
		t.Errorf("cache hits = %d, want 1", f.metrics.cacheHits)
	}
}

func TestSearch_StoredPayloadMarkedCached(t *testing.T) {
	f := newFixture(&mockPrimary{listings: listingsWithPrices(1, 2, 3)}, &mockFallback{})

	result, err := f.service.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	stored, ok := f.cache.entries["q"]
	if !ok {
		t.Fatal("result was not stored in cache")
	}
	if !stored.Cached {
		t.Error("stored payload must have Cached = true")
	}
	if result.Cached {
		t.Error("returned payload must have Cached = false")
	}
}

func TestSearch_PrimaryError_PropagatesAndLeavesCacheUntouched(t *testing.T) {
	f := newFixture(&mockPrimary{err: errors.New("boom")}, &mockFallback{})

	_, err := f.service.Search(context.Background(), "q")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUpstreamFailed {
		t.Fatalf("err = %v, want upstream failed APIError", err)
	}
	if f.cache.storeCalls != 0 {
		t.Errorf("cache stores = %d, want 0 on failure", f.cache.storeCalls)
	}
	if f.fallback.calls != 0 {
		t.Errorf("fallback calls = %d, want 0 when primary fails", f.fallback.calls)
	}
}

func TestSearch_FallbackError_PropagatesAndLeavesCacheUntouched(t *testing.T) {
	f := newFixture(
		&mockPrimary{listings: listingsWithPrices(1)},
		&mockFallback{err: model.NewFallbackStatusError(503)},
	)

	_, err := f.service.Search(context.Background(), "q")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeFallbackStatus {
		t.Fatalf("err = %v, want fallback status APIError", err)
	}
	if f.cache.storeCalls != 0 {
		t.Errorf("cache stores = %d, want 0 on failure", f.cache.storeCalls)
	}
}
