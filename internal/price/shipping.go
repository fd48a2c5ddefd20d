package price

import (
	"strconv"
	"strings"

	"github.com/hitoshi/pricecomps/internal/model"
)

// ShippingInfo は送料正規化の入力。
// 構造化プロバイダが数値を抽出済みの場合はValueに設定され、
// そうでない場合はRawのテキストを解析する。
type ShippingInfo struct {
	Raw   string
	Value *float64
}

// NormalizeShipping は送料情報をコスト文字列または不明マーカーに正規化する。
//   - 抽出済み数値がある場合: その値をテキストとして返す
//   - "free" を含むテキスト: コスト0
//   - "bids" を含むテキスト（freeでない）: model.ShippingUnknown
//     （入札依存の送料。0＝無料と混同してはならない）
//   - 配送費フレーズ: 装飾（"+"、"delivery"等）を除去してParseで解析し、
//     解析失敗時は0にフォールバックする
func NormalizeShipping(info ShippingInfo) string {
	if info.Value != nil {
		return formatCost(*info.Value)
	}

	raw := strings.TrimSpace(info.Raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)

	if strings.Contains(lower, "free") {
		return "0"
	}

	if strings.Contains(lower, "bids") {
		return model.ShippingUnknown
	}

	// "+$5.99 delivery" 等の装飾を除去して価格として解析する
	stripped := strings.NewReplacer(
		"delivery", "",
		"shipping", "",
		"postage", "",
		"+", "",
	).Replace(lower)

	parsed := Parse(stripped)
	if parsed == nil {
		return "0"
	}
	return formatCost(parsed.Value)
}

// formatCost は送料の数値を最短の10進表記に変換する。
func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
