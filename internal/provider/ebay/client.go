// Package ebay はプライマリプロバイダ連携を提供する。
// マーケットプレイスの検索結果ページをスクレイピングプロキシ経由で
// フェッチし、マークアップ抽出でListingの列を得る。
package ebay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/pricecomps/internal/model"
)

const (
	// defaultSearchBaseURL はマーケットプレイス検索ページのベースURL。
	defaultSearchBaseURL = "https://www.ebay.com/sch/i.html"
	// defaultProxyBaseURL はスクレイピングプロキシのベースURL。
	defaultProxyBaseURL = "http://api.scraperapi.com/"
	// defaultMaxBodySize はレスポンスボディの最大読み取りサイズ。
	defaultMaxBodySize = 5 * 1024 * 1024
)

// OutboundGuard は外向きフェッチ防護のインターフェース。
// security.OutboundGuardServiceを抽象化してテスタビリティを向上させる。
type OutboundGuard interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// ListingExtractor はマークアップからのListing抽出のインターフェース。
type ListingExtractor interface {
	Extract(markup io.Reader, query string) ([]model.Listing, error)
}

// Client はプライマリプロバイダのクライアント。
// 検索URLの構築、プロキシ経由のフェッチ、抽出までを担う。
type Client struct {
	apiKey      string
	guard       OutboundGuard
	extractor   ListingExtractor
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64

	searchBaseURL string // テスト用に差し替え可能
	proxyBaseURL  string // テスト用に差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// maxBodySizeが0以下の場合は既定値（5MiB）を使用する。
func NewClient(apiKey string, guard OutboundGuard, extractor ListingExtractor, logger *slog.Logger, timeout time.Duration, maxBodySize int64) *Client {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Client{
		apiKey:        apiKey,
		guard:         guard,
		extractor:     extractor,
		logger:        logger,
		timeout:       timeout,
		maxBodySize:   maxBodySize,
		searchBaseURL: defaultSearchBaseURL,
		proxyBaseURL:  defaultProxyBaseURL,
	}
}

// SearchURL はクエリからマーケットプレイスの検索URLを構築する。
// 固定パラメータ: 新着順ソート、アクティブ出品フィルタ、ページサイズ60、
// 所在地フィルタ。クエリ内のスペースはプロバイダの慣習どおり「+」に
// エンコードされる（url.Values.Encodeの標準動作）。
func (c *Client) SearchURL(query string) string {
	params := url.Values{}
	params.Set("_nkw", query)
	params.Set("_sop", "10")
	params.Set("LH_Sold", "0")
	params.Set("LH_Complete", "0")
	params.Set("_ipg", "60")
	params.Set("LH_PrefLoc", "1")
	return c.searchBaseURL + "?" + params.Encode()
}

// proxiedURL は検索URLをスクレイピングプロキシ経由のフェッチURLに包む。
func (c *Client) proxiedURL(target string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("url", target)
	return c.proxyBaseURL + "?" + params.Encode()
}

// Search はクエリに対する検索結果ページを1回フェッチし、
// 抽出されたListingの列を返す。2xx以外のステータスはエラーとして返す。
func (c *Client) Search(ctx context.Context, query string) ([]model.Listing, error) {
	fetchURL := c.proxiedURL(c.SearchURL(query))

	if err := c.guard.ValidateURL(fetchURL); err != nil {
		return nil, fmt.Errorf("フェッチURLの検証に失敗: %w", err)
	}

	client := c.guard.NewSafeClient(c.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "PriceComps/1.0")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.logger.Error("プライマリプロバイダへのリクエストに失敗しました",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("プライマリプロバイダへのリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("プライマリプロバイダがエラーステータスを返しました",
			slog.String("query", query),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("プライマリプロバイダがステータス %d を返しました", resp.StatusCode)
	}

	listings, err := c.extractor.Extract(io.LimitReader(resp.Body, c.maxBodySize), query)
	if err != nil {
		return nil, fmt.Errorf("検索結果の抽出に失敗: %w", err)
	}

	c.logger.Info("primary search completed",
		slog.String("query", query),
		slog.Int("listings", len(listings)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return listings, nil
}
