// Package model はドメインモデルを定義する。
package model

// ShippingUnknown は送料が確定できないことを示すマーカー。
// オークション形式（入札額に依存する）出品で使用され、
// 送料0（無料）とは常に区別される。
const ShippingUnknown = "Unknown"

// itemsの取得元を表すソースタグ。
const (
	// SourcePrimary はプライマリプロバイダのマークアップ抽出由来を示す。
	SourcePrimary = "primary"
	// SourceFallback はフォールバックの構造化検索API由来を示す。
	SourceFallback = "fallback"
)

// Listing は観測された1件の出品・販売記録を表す。
// 各取得元のバリデーションフィルタを通過したもののみが生成される
// （プライマリ: タイトルとコンディションあり・プレースホルダでない、
// フォールバック: タイトル・itemUrlあり・価格が正）。
type Listing struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency,omitempty"`
	SoldDate  string  `json:"soldDate,omitempty"`
	Condition string  `json:"condition,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	ItemURL   string  `json:"itemUrl,omitempty"`
	Shipping  string  `json:"shipping,omitempty"`
}

// MarketStats は出品価格の集計統計を表す。
// 分位点は隣接順序統計量の線形補間（R-7推定量）で算出する。
// 対象が0件の場合、分位点はnull（absent）となり数値デフォルトは返さない。
type MarketStats struct {
	Count  int      `json:"count"`
	P25    *float64 `json:"p25"`
	Median *float64 `json:"median"`
	P75    *float64 `json:"p75"`
}

// SearchResult は検索クエリ1件に対するAPIレスポンスのペイロード。
// キャッシュにはCached=trueで保存され、新規計算のレスポンスは
// Cached=falseで返される（両者の差分はこのフラグのみ）。
type SearchResult struct {
	Query  string      `json:"query"`
	Items  []Listing   `json:"items"`
	Stats  MarketStats `json:"stats"`
	Source string      `json:"source"`
	Cached bool        `json:"cached"`
}
