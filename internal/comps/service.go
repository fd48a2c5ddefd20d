// Package comps は検索クエリに対する市場統計パイプラインを提供する。
// キャッシュ照会 → プライマリフェッチ・抽出 → 十分性判定 →
// 必要に応じたフォールバック → 統計計算 → キャッシュ書き込み、の順に
// 直列実行する。プライマリとフォールバックの呼び出しは排他的であり、
// 並行に実行されることはない。
package comps

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/pricecomps/internal/model"
	"github.com/hitoshi/pricecomps/internal/stats"
)

// minPrimaryListings はプライマリ抽出結果を十分とみなす下限件数。
// これ未満（0件を含む）の場合はフォールバックAPIに切り替える。
const minPrimaryListings = 3

// PrimarySearcher はプライマリプロバイダ検索のインターフェース。
type PrimarySearcher interface {
	Search(ctx context.Context, query string) ([]model.Listing, error)
}

// FallbackSearcher はフォールバック検索のインターフェース。
type FallbackSearcher interface {
	Search(ctx context.Context, query string) ([]model.Listing, error)
}

// ResultCache は検索結果キャッシュのインターフェース。
type ResultCache interface {
	Lookup(query string) (model.SearchResult, bool)
	Store(query string, payload model.SearchResult)
}

// MetricsRecorder はメトリクス記録のインターフェース。
// metrics.MetricsCollectorを抽象化してテスタビリティを向上させる。
type MetricsRecorder interface {
	RecordSearch(source string)
	RecordCacheHit()
	RecordUpstreamCall(provider string)
	RecordListings(source string, count int)
	RecordSearchLatency(duration time.Duration)
}

// Service は市場統計パイプラインのオーケストレーター。
type Service struct {
	primary  PrimarySearcher
	fallback FallbackSearcher
	cache    ResultCache
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	primary PrimarySearcher,
	fallback FallbackSearcher,
	cache ResultCache,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// Search はクエリに対する市場統計を返す。
//
// キャッシュヒット時はCached=trueの保存済みペイロードを返し、
// 上流呼び出しは一切行わない。ミス時はプライマリをフェッチし、
// 抽出件数がminPrimaryListings以上ならそのままソースをprimaryとし、
// 未満ならフォールバックに切り替えてソースをfallbackとする。
// 新規計算の結果は件数0でもキャッシュに書き込まれる（Cached=trueで保存）。
// 返却値自体はCached=false。
//
// プライマリの失敗はUPSTREAM_FAILEDとして返し、フォールバックの失敗は
// そのまま返す。いずれの場合もキャッシュは変更しない。
func (s *Service) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, model.NewMissingQueryError()
	}

	if payload, ok := s.cache.Lookup(query); ok {
		s.metrics.RecordCacheHit()
		s.logger.Info("cache hit",
			slog.String("query", query),
		)
		return &payload, nil
	}

	start := time.Now()

	s.metrics.RecordUpstreamCall(model.SourcePrimary)
	items, err := s.primary.Search(ctx, query)
	if err != nil {
		return nil, model.NewUpstreamFailedError(err.Error())
	}

	source := model.SourcePrimary
	if len(items) < minPrimaryListings {
		s.logger.Info("primary extraction insufficient, falling back",
			slog.String("query", query),
			slog.Int("primary_listings", len(items)),
		)

		s.metrics.RecordUpstreamCall(model.SourceFallback)
		items, err = s.fallback.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		source = model.SourceFallback
	}

	// レスポンスJSONでitemsが常に配列になるようnilを空スライスに揃える
	if items == nil {
		items = []model.Listing{}
	}

	result := model.SearchResult{
		Query:  query,
		Items:  items,
		Stats:  stats.Calculate(items),
		Source: source,
		Cached: false,
	}

	stored := result
	stored.Cached = true
	s.cache.Store(query, stored)

	duration := time.Since(start)
	s.metrics.RecordSearch(source)
	s.metrics.RecordListings(source, len(items))
	s.metrics.RecordSearchLatency(duration)

	s.logger.Info("search completed",
		slog.String("query", query),
		slog.String("source", source),
		slog.Int("listings", len(items)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return &result, nil
}
