package contract

import (
	"strconv"
	"strings"
)

// 对白起始符（破折号与引号开符的归一前变体均接受）。
var dialogueOpeners = map[rune]struct{}{
	'—': {}, '–': {}, '-': {}, '−': {},
	'«': {}, '„': {}, '“': {}, '"': {},
}

// IsDialogueBody: body 去掉前导空白后以对白起始符开头。
func IsDialogueBody(body string) bool {
	s := strings.TrimLeft(body, " \t")
	for _, r := range s {
		_, ok := dialogueOpeners[r]
		return ok
	}
	return false
}

// IsDialogue: 对白行判定。无标签行恒为否（原样透传，不参与归属）。
func (l Line) IsDialogue() bool {
	if l.Tag.Kind == TagNone {
		return false
	}
	return IsDialogueBody(l.Body)
}

// ParseLines 解析 UTF-8 文本为行模型。逐行保留原始行尾；
// 不匹配标签文法的行原样存入 Body（永不丢弃）。
func ParseLines(text string) []Line {
	var out []Line
	for i := 0; i < len(text); {
		j := strings.IndexByte(text[i:], '\n')
		var raw, eol string
		if j < 0 {
			raw, eol = text[i:], ""
			i = len(text)
		} else {
			raw, eol = text[i:i+j], "\n"
			if strings.HasSuffix(raw, "\r") {
				raw, eol = raw[:len(raw)-1], "\r\n"
			}
			i += j + 1
		}
		out = append(out, parseLine(raw, eol))
	}
	return out
}

// RenderLines 还原文本。除标签 token 外逐字节还原。
// 金标标记随行还原——规则间以文本传递，丢了标记指标评估就瞎了；
// 终稿输出由调用方先 StripGold 再渲染。
func RenderLines(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		if l.Tag.Kind == TagNone {
			b.WriteString(l.Body)
		} else {
			b.WriteString(l.Indent)
			b.WriteString(l.Tag.String())
			b.WriteByte(':')
			if l.Gold != 0 {
				b.WriteString("#!g")
				b.WriteString(strconv.Itoa(int(l.Gold)))
				b.WriteByte(' ')
			}
			b.WriteString(l.Body)
		}
		b.WriteString(l.EOL)
	}
	return b.String()
}

// StripGold 清除金标标记（就地）。终稿输出前调用。
func StripGold(lines []Line) {
	for i := range lines {
		lines[i].Gold = 0
	}
}

func parseLine(raw, eol string) Line {
	k := 0
	for k < len(raw) && (raw[k] == ' ' || raw[k] == '\t') {
		k++
	}
	tag, body, ok := splitTag(raw[k:])
	if !ok {
		return Line{Body: raw, EOL: eol}
	}
	body, gold := splitGold(body)
	return Line{Indent: raw[:k], Tag: tag, Body: body, EOL: eol, Gold: gold}
}

// splitTag 解析行首标签 token（#g<digits>: 或 #g?:）。
func splitTag(s string) (TagState, string, bool) {
	if !strings.HasPrefix(s, "#g") {
		return TagState{}, "", false
	}
	r := s[2:]
	if strings.HasPrefix(r, "?:") {
		return Unresolved(), r[2:], true
	}
	n, k := 0, 0
	for k < len(r) && r[k] >= '0' && r[k] <= '9' {
		n = n*10 + int(r[k]-'0')
		k++
	}
	if k == 0 || k >= len(r) || r[k] != ':' {
		return TagState{}, "", false
	}
	return Resolved(CharacterID(n)), r[k+1:], true
}

// splitGold 剥离紧随冒号的金标标记 #!gN（含其后一个空格）。
// 金标只进 Line.Gold 供指标评估，不算 body 的一部分。
func splitGold(body string) (string, CharacterID) {
	if !strings.HasPrefix(body, "#!g") {
		return body, 0
	}
	r := body[3:]
	n, k := 0, 0
	for k < len(r) && r[k] >= '0' && r[k] <= '9' {
		n = n*10 + int(r[k]-'0')
		k++
	}
	if k == 0 {
		return body, 0
	}
	rest := r[k:]
	rest = strings.TrimPrefix(rest, " ")
	return rest, CharacterID(n)
}
