// Package serpapi はフォールバックの構造化検索APIクライアントを提供する。
// プライマリの抽出結果が不十分な場合にのみ呼び出され、APIのJSONレスポンスを
// 共通のListingスキーマにマッピングする。
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hitoshi/pricecomps/internal/model"
	"github.com/hitoshi/pricecomps/internal/price"
)

// defaultBaseURL は検索APIのエンドポイント。
const defaultBaseURL = "https://serpapi.com/search.json"

// Client はフォールバック検索APIのクライアント。
type Client struct {
	apiKey string
	http   *resty.Client
	logger *slog.Logger

	baseURL string           // テスト用に差し替え可能
	now     func() time.Time // テスト用に差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyが空の場合、Searchはエラーを返さず結果なしとして振る舞う。
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := resty.New()
	httpClient.SetTimeout(timeout)

	return &Client{
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger,
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
}

// rawAmount はAPIが返す金額フィールド。
// 数値抽出済みの場合はExtractedが設定される。
type rawAmount struct {
	Raw       string   `json:"raw"`
	Extracted *float64 `json:"extracted"`
}

// organicResult はAPIレスポンスの検索結果1件。
type organicResult struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Thumbnail string    `json:"thumbnail"`
	Condition string    `json:"condition"`
	SoldDate  string    `json:"sold_date"`
	Price     rawAmount `json:"price"`
	Shipping  rawAmount `json:"shipping"`
}

// searchResponse はAPIレスポンスのトップレベル構造。
type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Search はフォールバックAPIを1回呼び出してListingの列を返す。
// APIキー未設定の場合はソフト失敗としてnilを返す（エラーにしない）。
// 2xx以外のステータスは致命的な失敗として返す。呼び出し元には
// このフォールバックの先にさらなる代替手段がないためである。
func (c *Client) Search(ctx context.Context, query string) ([]model.Listing, error) {
	if c.apiKey == "" {
		c.logger.Warn("フォールバックAPIキーが未設定のため検索をスキップします",
			slog.String("query", query),
		)
		return nil, nil
	}

	// アクティブな出品（現在販売中）を対象とする。
	// 売却済みレコードのフィルタ（LH_Sold / LH_Complete）は無効。
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":      "ebay",
			"ebay_domain": "ebay.com",
			"q":           query,
			"_nkw":        query,
			"LH_Sold":     "false",
			"LH_Complete": "false",
			"LH_PrefLoc":  "1",
			"api_key":     c.apiKey,
		}).
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("フォールバックAPIへのリクエストに失敗: %w", err)
	}

	if resp.StatusCode() != 200 {
		c.logger.Error("フォールバックAPIがエラーステータスを返しました",
			slog.String("query", query),
			slog.Int("http_status", resp.StatusCode()),
		)
		return nil, model.NewFallbackStatusError(resp.StatusCode())
	}

	var sr searchResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return nil, fmt.Errorf("フォールバックAPIレスポンスのパースに失敗: %w", err)
	}

	listings := make([]model.Listing, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		listing := c.mapResult(r)
		// 最終フィルタ: タイトル・itemUrlがあり、価格が正のもののみ保持する
		if listing.Title == "" || listing.ItemURL == "" || listing.Price <= 0 {
			continue
		}
		listings = append(listings, listing)
	}

	c.logger.Info("fallback search completed",
		slog.String("query", query),
		slog.Int("raw_results", len(sr.OrganicResults)),
		slog.Int("listings", len(listings)),
	)

	return listings, nil
}

// mapResult はAPIの検索結果1件を共通のListingスキーマに変換する。
// 価格は解析失敗時に0となり、呼び出し側の正値フィルタで除外される。
func (c *Client) mapResult(r organicResult) model.Listing {
	value := 0.0
	currency := "USD"
	if p := price.Parse(r.Price.Raw); p != nil {
		value = p.Value
		currency = p.Currency
	}

	soldDate := r.SoldDate
	if soldDate == "" {
		soldDate = c.now().UTC().Format(time.RFC3339)
	}

	condition := r.Condition
	if condition == "" {
		condition = "Unknown"
	}

	var shipping string
	if r.Shipping.Extracted != nil || r.Shipping.Raw != "" {
		shipping = price.NormalizeShipping(price.ShippingInfo{
			Raw:   r.Shipping.Raw,
			Value: r.Shipping.Extracted,
		})
	}

	return model.Listing{
		Title:     r.Title,
		Price:     value,
		Currency:  currency,
		SoldDate:  soldDate,
		Condition: condition,
		ImageURL:  r.Thumbnail,
		ItemURL:   r.Link,
		Shipping:  shipping,
	}
}
