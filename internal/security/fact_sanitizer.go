// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FactSanitizer は言語モデルが生成した豆知識テキストからマークアップを取り除き、
// ブラウザにプレーンテキストとして表示できる形に整える。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FactSanitizer はモデル出力のサニタイズ機能のインターフェースを定義する。
type FactSanitizer interface {
	// Sanitize はHTMLタグをすべて除去し、前後の空白を取り除いたテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// factSanitizer はFactSanitizerの実装。
// bluemondayのStrictPolicyはスレッドセーフに共有できる。
type factSanitizer struct {
	policy *bluemonday.Policy
}

// NewFactSanitizer はFactSanitizerの新しいインスタンスを生成する。
// 全タグを拒否するStrictPolicyを使用する。
func NewFactSanitizer() *factSanitizer {
	return &factSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses はエンティティの多重エンコードを剥がす回数の上限。
const maxSanitizePasses = 5

// Sanitize はモデル出力からタグを除去する。
// エンティティ化されたタグ（&lt;script&gt; など）もタグとして扱うため、
// アンエスケープ→タグ除去→アンエスケープを出力が変わらなくなるまで繰り返す。
// 上限回数で収束しない入力は空文字列を返す。
func (s *factSanitizer) Sanitize(raw string) string {
	current := raw
	for i := 0; i < maxSanitizePasses; i++ {
		next := s.pass(current)
		if next == current {
			return next
		}
		current = next
	}
	return ""
}

// pass は1回分の処理。StrictPolicyはテキスト中の記号をエンティティに変換するため、
// JSONでプレーンテキストとして返せるように最後にアンエスケープする。
func (s *factSanitizer) pass(text string) string {
	if text == "" {
		return ""
	}
	stripped := s.policy.Sanitize(html.UnescapeString(text))
	return strings.TrimSpace(html.UnescapeString(stripped))
}
