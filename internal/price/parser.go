// Package price は価格文字列の解析と送料の正規化を提供する。
// マーケットプレイスの出品に現れるロケール形式の価格表記
// （通貨記号 + 桁区切り + 小数点）を数値に変換する。
package price

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsed は解析済みの価格を表す。
type Parsed struct {
	Value    float64 // 数値化された価格
	Currency string  // 推定された通貨コード
	Symbol   string  // 価格表記に含まれていた通貨記号
}

// numberRegexp は桁区切りカンマを含む数値部分を抽出する。
var numberRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// currencySymbols は通貨記号から通貨コードへの対応表。
// 前方一致で判定するため、長い記号（"US $"等）を先に並べる。
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"US $", "USD"},
	{"AU $", "AUD"},
	{"C $", "CAD"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"USD", "USD"},
	{"JPY", "JPY"},
	{"£", "GBP"},
	{"€", "EUR"},
	{"¥", "JPY"},
	{"$", "USD"},
}

// Parse は価格文字列を解析してParsedを返す。
// 空文字・空白のみの入力、および数値を含まない入力にはnilを返す
// （「解析不能」の明示的なシグナルであり、0ではない）。
// 不正な入力に対してpanicすることはない。
func Parse(raw string) *Parsed {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	currency, symbol := detectCurrency(s)

	// 価格レンジ表記（"$12.99 to $15.99"）は先頭の値を採用する
	match := numberRegexp.FindString(s)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}

	return &Parsed{
		Value:    value,
		Currency: currency,
		Symbol:   symbol,
	}
}

// detectCurrency は価格文字列に含まれる通貨記号・コードから通貨を推定する。
// 記号が見つからない場合はUSDを既定とする。
func detectCurrency(s string) (code, symbol string) {
	for _, c := range currencySymbols {
		if strings.Contains(s, c.symbol) {
			return c.code, c.symbol
		}
	}
	return "USD", "$"
}
