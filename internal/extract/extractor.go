// Package extract はプライマリプロバイダの検索結果マークアップから
// Listingを抽出する。期待する構造はSchemaとして宣言的に記述し、
// 必須フィールドの欠落を識別可能なイベントとしてログに残す。
package extract

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/pricecomps/internal/model"
	"github.com/hitoshi/pricecomps/internal/price"
)

// placeholderTitle はプロバイダがスポンサー枠に挿入するプレースホルダタイトル。
// このタイトルを持つカードは出品として扱わない。
const placeholderTitle = "Shop on eBay"

// フィールド名。Schemaのフィールドを名前で参照するためのキー。
const (
	FieldTitle     = "title"
	FieldPrice     = "price"
	FieldCondition = "condition"
	FieldShipping  = "shipping"
	FieldItemURL   = "item_url"
	FieldImageURL  = "image_url"
)

// Field は抽出スキーマの1フィールドを表す。
// Attrが空の場合は要素のテキストを、指定時はその属性値を取り出す。
type Field struct {
	Name     string
	Selector string
	Attr     string
	Required bool
}

// Schema は検索結果マークアップの期待構造を表す。
// Cardセレクタで出品カードを列挙し、各カード内をFieldsで解決する。
type Schema struct {
	Card   string
	Fields []Field
}

// DefaultSchema はマーケットプレイス検索結果ページの既定スキーマを返す。
func DefaultSchema() Schema {
	return Schema{
		Card: "li.s-item",
		Fields: []Field{
			{Name: FieldTitle, Selector: ".s-item__title", Required: true},
			{Name: FieldPrice, Selector: ".s-item__price", Required: true},
			{Name: FieldCondition, Selector: ".s-item__subtitle span.SECONDARY_INFO", Required: true},
			{Name: FieldShipping, Selector: ".s-item__shipping, .s-item__logisticsCost"},
			{Name: FieldItemURL, Selector: "a.s-item__link", Attr: "href"},
			{Name: FieldImageURL, Selector: ".s-item__image img", Attr: "src"},
		},
	}
}

// TextSanitizer は抽出テキストのサニタイズ機能のインターフェース。
// security.TextSanitizerServiceを抽象化してテスタビリティを向上させる。
type TextSanitizer interface {
	SanitizeText(raw string) string
}

// Extractor はマークアップからのListing抽出を行う。
type Extractor struct {
	schema    Schema
	sanitizer TextSanitizer
	logger    *slog.Logger
}

// NewExtractor はExtractorの新しいインスタンスを生成する。
func NewExtractor(schema Schema, sanitizer TextSanitizer, logger *slog.Logger) *Extractor {
	return &Extractor{
		schema:    schema,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Extract はマークアップを走査してListingの列を返す。
// 出現順はマークアップ内のカード順（ページの関連度順）をそのまま保持する。
// カードの棄却条件: タイトルがプレースホルダ、コンディション欠落、価格が解析不能。
// 送料の抽出はベストエフォートであり、欠落してもカードは棄却されない。
func (e *Extractor) Extract(markup io.Reader, query string) ([]model.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(markup)
	if err != nil {
		return nil, fmt.Errorf("マークアップの解析に失敗: %w", err)
	}

	var listings []model.Listing

	doc.Find(e.schema.Card).Each(func(i int, card *goquery.Selection) {
		values, missing := e.resolveFields(card)
		if missing != "" {
			// 必須フィールドの欠落は構造変化の兆候のため識別可能なログを残す
			e.logger.Debug("listing card rejected: required field missing",
				slog.String("query", query),
				slog.Int("card_index", i),
				slog.String("field", missing),
			)
			return
		}

		title := values[FieldTitle]
		if title == placeholderTitle {
			e.logger.Debug("listing card rejected: sponsored placeholder",
				slog.String("query", query),
				slog.Int("card_index", i),
			)
			return
		}

		parsed := price.Parse(values[FieldPrice])
		if parsed == nil {
			e.logger.Debug("listing card rejected: unparseable price",
				slog.String("query", query),
				slog.Int("card_index", i),
				slog.String("raw_price", values[FieldPrice]),
			)
			return
		}

		listing := model.Listing{
			Title:     title,
			Price:     parsed.Value,
			Condition: values[FieldCondition],
			ImageURL:  values[FieldImageURL],
			ItemURL:   values[FieldItemURL],
		}

		// 送料はベストエフォート: 見つかった場合のみ正規化する
		if raw := values[FieldShipping]; raw != "" {
			listing.Shipping = price.NormalizeShipping(price.ShippingInfo{Raw: raw})
		}

		listings = append(listings, listing)
	})

	return listings, nil
}

// resolveFields はカード内のスキーマフィールドを解決する。
// 欠落した必須フィールドがある場合はそのフィールド名を返す。
// テキストフィールドはサニタイズを通し、属性フィールドはそのまま取り出す。
func (e *Extractor) resolveFields(card *goquery.Selection) (map[string]string, string) {
	values := make(map[string]string, len(e.schema.Fields))

	for _, f := range e.schema.Fields {
		node := card.Find(f.Selector).First()

		var value string
		if node.Length() > 0 {
			if f.Attr != "" {
				value, _ = node.Attr(f.Attr)
			} else {
				value = e.sanitizer.SanitizeText(node.Text())
			}
		}

		if value == "" && f.Required {
			return nil, f.Name
		}
		values[f.Name] = value
	}

	return values, ""
}
