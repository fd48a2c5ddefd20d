// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はスクレイピングしたマークアップから取り出した
// テキスト断片（タイトル・コンディション等）をサニタイズし、
// タグやスクリプト片がレスポンスJSONに流れ込むことを防ぐ。
// bluemondayの全タグ除去ポリシーを使用する。
package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// 抽出したテキストがListingに入る前に適用される。
type TextSanitizerService interface {
	// SanitizeText は入力からすべてのHTMLタグを除去し、
	// エンティティを復元した上で空白を正規化したプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフに動作する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、全タグが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は入力をタグ除去・エンティティ復元・空白正規化して返す。
// bluemondayはタグ除去後のテキストをHTMLエスケープするため、
// プレーンテキストとして扱えるようhtml.UnescapeStringで復元する。
func (s *textSanitizer) SanitizeText(raw string) string {
	stripped := s.policy.Sanitize(raw)
	unescaped := html.UnescapeString(stripped)
	return collapseWhitespace(unescaped)
}

// collapseWhitespace は前後の空白を除去し、連続する空白を1つにまとめる。
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
