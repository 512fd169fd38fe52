// Package normalize 实现规范化规则：空白/引号/省略号/对白破折号归一，
// 空行与装饰分隔行折叠，并把折叠后的空行位置记入 Meta.BlockBoundaries。
// 后续启发式依赖这里建立的单一书写形；不可解析的行原样透传（永不丢弃）。
package normalize

import (
	"context"
	"regexp"
	"strings"

	"spktag/pkg/contract"
)

// Options 为规范化规则的可选配置（最小必要）。
type Options struct {
	// KeepSeparators: 保留装饰分隔行（默认折叠为单个空行）。
	KeepSeparators bool `json:"keep_separators"`
}

type Rule struct {
	keepSep bool
}

// New 创建规范化规则。
func New(opts *Options) *Rule {
	r := &Rule{}
	if opts != nil {
		r.keepSep = opts.KeepSeparators
	}
	return r
}

var _ contract.Rule = (*Rule)(nil)

func (r *Rule) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseNormalize, Priority: 10, Scope: contract.ScopeDocument, Name: "normalize"}
}

// 字形归一表：引号变体 → "，省略号 → ...，NBSP/窄空格 → 空格，
// 行中分隔破折号变体 → —。
var glyphReplacer = strings.NewReplacer(
	"«", `"`, "»", `"`, "„", `"`, "“", `"`, "”", `"`,
	"…", "...",
	" ", " ", " ", " ",
	" -- ", " — ", " – ", " — ", " − ", " — ",
)

var spaceRunRe = regexp.MustCompile(` {2,}`)

// 装饰分隔行字符集（整行仅由这些构成即视为分隔行）。
var separatorRunes = map[rune]struct{}{
	'-': {}, '—': {}, '–': {}, '*': {}, '=': {}, '~': {}, '_': {}, '·': {}, '#': {}, '.': {}, ' ': {}, '\t': {},
}

func (r *Rule) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	out := make([]contract.Line, 0, len(lines))
	prevBlank := false
	for _, l := range lines {
		l = normLine(l, r.keepSep)
		blank := isBlank(l)
		if blank {
			// 空行/分隔行的连续段折叠为单个空行。
			if prevBlank {
				continue
			}
			prevBlank = true
		} else {
			prevBlank = false
		}
		out = append(out, l)
	}

	// 折叠后的空行位置即块边界，供场景/块探测与修复使用。
	m.BlockBoundaries = m.BlockBoundaries[:0]
	for i, l := range out {
		if isBlank(l) {
			m.BlockBoundaries = append(m.BlockBoundaries, i)
		}
	}
	return contract.RenderLines(out), nil
}

func isBlank(l contract.Line) bool {
	return l.Tag.Kind == contract.TagNone && strings.TrimSpace(l.Body) == ""
}

func normLine(l contract.Line, keepSep bool) contract.Line {
	if !keepSep && isSeparator(l.Body) {
		if l.Tag.Kind == contract.TagNone {
			l.Body = ""
			return l
		}
	}
	l.Body = normBody(l.Body)
	return l
}

func normBody(s string) string {
	s = glyphReplacer.Replace(s)
	s = normLeadingDash(s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimRight(s, " \t")
}

// normLeadingDash 将行首对白破折号变体归一为 "— "。
func normLeadingDash(s string) string {
	lead := len(s) - len(strings.TrimLeft(s, " "))
	rest := s[lead:]
	if rest == "" {
		return s
	}
	switch {
	case strings.HasPrefix(rest, "—"):
		rest = strings.TrimPrefix(rest, "—")
	case strings.HasPrefix(rest, "--"):
		rest = strings.TrimPrefix(rest, "--")
	case strings.HasPrefix(rest, "–"):
		rest = strings.TrimPrefix(rest, "–")
	case strings.HasPrefix(rest, "−"):
		rest = strings.TrimPrefix(rest, "−")
	case strings.HasPrefix(rest, "-"):
		rest = strings.TrimPrefix(rest, "-")
	default:
		return s
	}
	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		// 纯破折号行交由分隔行处理，不改写。
		return s
	}
	return s[:lead] + "— " + rest
}

// isSeparator 判定装饰分隔行：≥3 个可见字符且全部落在分隔字符集内。
func isSeparator(s string) bool {
	t := strings.TrimSpace(s)
	if len([]rune(t)) < 3 {
		return false
	}
	for _, r := range t {
		if _, ok := separatorRunes[r]; !ok {
			return false
		}
	}
	return true
}
