// Package lang 收纳启发式共用的语言标记表与匹配原语：
// 言说动词、性别词干、场景标题、代词、亲属称呼、模糊人名匹配。
// 表是有限显式数据，不是形态分析器；未覆盖即不触发。
package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 折叠变换：NFD 分解 + 去组合符 + NFC 重组。一次构造，并发只读。
var foldT = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldKey: 别名索引键折叠——小写 + 去变音。
// 两侧使用同一折叠即可比对；不保证对人类可读。
func FoldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(foldT, s); err == nil {
		return out
	}
	return s
}

// Tokens 按字母/数字连续段切词（撇号并入词内，保住 O'Neil 类名字）。
func Tokens(s string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
