package lang

import (
	"regexp"
	"strings"
)

// 场景标题文法：пролог/епілог/розділ N/частина N/глава N 及英文对应。
// 标题可独立成行，或作为旁白行的唯一内容；允许两侧装饰符号。
var (
	headerBareRe = regexp.MustCompile(`(?i)^(пролог|епілог|эпилог|вступ|prologue|epilogue)\.?$`)
	headerNumRe  = regexp.MustCompile(`(?i)^(розділ|глава|частина|chapter|part)\s+([0-9]+|[ivxlcdm]+|[\p{L}]+)\.?$`)
	endMarkRe    = regexp.MustCompile(`(?i)^(кінець|конец|end of)\s+([\p{L}][\p{L}\s]*)\.?$`)
	decorRe      = regexp.MustCompile(`^[\s\*\#\=\~\-–—_\.·]+|[\s\*\#\=\~\-–—_·]+$`)
)

// stripDecor 去掉标题两侧的装饰符号与空白。
func stripDecor(s string) string {
	return strings.TrimSpace(decorRe.ReplaceAllString(s, ""))
}

// Header 判定 body 是否场景标题，返回规范化标签。
func Header(body string) (string, bool) {
	s := stripDecor(body)
	if s == "" {
		return "", false
	}
	if m := headerBareRe.FindStringSubmatch(s); m != nil {
		return titleCase(m[1]), true
	}
	if m := headerNumRe.FindStringSubmatch(s); m != nil {
		return titleCase(m[1]) + " " + strings.ToUpper(m[2]), true
	}
	return "", false
}

// titleCase: 首字母大写的规范标签形。
func titleCase(s string) string {
	s = strings.ToLower(s)
	rs := []rune(s)
	if len(rs) == 0 {
		return s
	}
	return strings.ToUpper(string(rs[0])) + string(rs[1:])
}

// EndMarker 判定 body 是否 "кінець прологу" 类边界标记：
// 切断当前场景但不开启新标签。
func EndMarker(body string) bool {
	return endMarkRe.MatchString(stripDecor(body))
}
