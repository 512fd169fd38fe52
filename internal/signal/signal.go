// Package signal 收纳归属信号的抽取原语。归属启发式与共识校验
// 必须从同一信号族取证，因此抽取逻辑只在此处实现一份。
// 所有函数均为纯函数：读行与 Meta，不落签、不写状态。
package signal

import (
	"strings"

	"spktag/internal/lang"
	"spktag/pkg/contract"
)

// 信号权重（共识投票用）：行内点名 3，引导行 2，代词指代 1。
const (
	WeightInline  = 3
	WeightLeadIn  = 2
	WeightPronoun = 1
)

// Resolve 折叠精确查找别名索引。
func Resolve(m *contract.Meta, word string) (contract.CharacterID, bool) {
	id, ok := m.AliasIndex[lang.FoldKey(word)]
	return id, ok
}

// ResolveFuzzy 先精确后模糊：按 FuzzyEqual 扫描别名键，
// 命中多个不同 ID 视为歧义失败（宁缺毋滥）。
func ResolveFuzzy(m *contract.Meta, word string) (contract.CharacterID, bool) {
	if id, ok := Resolve(m, word); ok {
		return id, true
	}
	var found contract.CharacterID
	for key, id := range m.AliasIndex {
		if !lang.FuzzyEqual(key, word) {
			continue
		}
		if found != 0 && found != id {
			return 0, false
		}
		found = id
	}
	return found, found != 0
}

// GenderOf: 角色语法性别；角色表未知时按首名词尾猜测。
func GenderOf(m *contract.Meta, id contract.CharacterID) contract.Gender {
	e := m.EntryOf(id)
	if e == nil {
		return contract.GenderUnknown
	}
	if e.Gender != contract.GenderUnknown {
		return e.Gender
	}
	if len(e.Names) > 0 {
		return lang.GuessNameGender(e.Names[0])
	}
	return contract.GenderUnknown
}

// IsNarration: 带标签且 body 非对白开头的行（叙述载体）。
func IsNarration(l contract.Line) bool {
	if l.Tag.Kind == contract.TagNone {
		return false
	}
	if strings.TrimSpace(l.Body) == "" {
		return false
	}
	return !contract.IsDialogueBody(l.Body)
}

// Inline: 行内归属信号。
type Inline struct {
	ID         contract.CharacterID
	VerbGender contract.Gender
	HasVerb    bool
	Confidence float64
}

// InlineOf 解析对白行的行内点名：
//   - "— 引文 — Verb Name." / "— 引文 — Name Verb."（言说动词 + 性别一致）
//   - "— 引文. — Name, …"（无动词，宽松边界，别名直查）
//
// 动词与名字性别显式相异时不产生信号。
func InlineOf(body string, m *contract.Meta) (Inline, bool) {
	tail, ok := attributionTail(body)
	if !ok {
		return Inline{}, false
	}
	toks := lang.Tokens(tail)
	if len(toks) == 0 {
		return Inline{}, false
	}

	// 动词形：动词与名字相邻（两种语序）。
	for vi, t := range toks {
		vg, isVerb := lang.SpeechVerb(t)
		if !isVerb {
			continue
		}
		for _, ni := range []int{vi + 1, vi - 1} {
			if ni < 0 || ni >= len(toks) {
				continue
			}
			id, found := Resolve(m, toks[ni])
			if !found {
				continue
			}
			if !vg.Agrees(GenderOf(m, id)) {
				continue
			}
			return Inline{ID: id, VerbGender: vg, HasVerb: true, Confidence: 0.9}, true
		}
	}

	// 无动词形：尾段首个 token 直查别名表。
	if id, found := Resolve(m, toks[0]); found {
		return Inline{ID: id, Confidence: 0.75}, true
	}
	return Inline{}, false
}

// attributionTail 取行内归属尾段：末个 " — " 之后，或末个闭引号之后。
func attributionTail(body string) (string, bool) {
	s := strings.TrimSpace(body)
	content := s
	if strings.HasPrefix(content, "—") {
		content = strings.TrimSpace(strings.TrimPrefix(content, "—"))
	}
	if i := strings.LastIndex(content, " — "); i >= 0 {
		tail := strings.TrimSpace(content[i+len(" — "):])
		return tail, tail != ""
	}
	// 引号形："引文" 尾注
	if strings.HasPrefix(content, `"`) {
		if i := strings.LastIndex(content[1:], `"`); i >= 0 {
			tail := strings.TrimSpace(content[i+2:])
			tail = strings.TrimLeft(tail, ",—– ")
			return tail, tail != ""
		}
	}
	return "", false
}

// VerbGenderOf: 行内归属尾段的言说动词语法性别。
// 只看尾段——引文内容里的言说动词不构成归属证据。
func VerbGenderOf(body string) (contract.Gender, bool) {
	tail, ok := attributionTail(body)
	if !ok {
		return contract.GenderUnknown, false
	}
	return lang.HasSpeechVerb(tail)
}

// LeadIn: 引导行信号。
type LeadIn struct {
	ID         contract.CharacterID
	VerbGender contract.Gender
	Confidence float64
	// Suppressed: 引导行是群体噪声（"усі закричали:"），该行禁用引导归属。
	Suppressed bool
}

// LeadInOf 在回看窗口内找 "Name … <言说动词>:" 形引导行。
// 动词与候选性别显式相异不取；点到多个不同角色视为歧义不取。
func LeadInOf(lines []contract.Line, i, window int, m *contract.Meta) (LeadIn, bool) {
	for back := 1; back <= window; back++ {
		j := i - back
		if j < 0 {
			break
		}
		l := lines[j]
		if !IsNarration(l) {
			continue
		}
		if lang.GroupNoiseCue(l.Body) {
			return LeadIn{Suppressed: true}, false
		}
		vg, hasVerb := lang.HasSpeechVerb(l.Body)
		if !hasVerb {
			continue
		}
		id, ok := soleMention(l.Body, m)
		if !ok {
			continue
		}
		if !vg.Agrees(GenderOf(m, id)) {
			continue
		}
		conf := 0.65
		if strings.HasSuffix(strings.TrimSpace(l.Body), ":") {
			conf = 0.8
		}
		return LeadIn{ID: id, VerbGender: vg, Confidence: conf}, true
	}
	return LeadIn{}, false
}

// soleMention 取叙述行中被点名的唯一角色；多于一个视为歧义。
func soleMention(body string, m *contract.Meta) (contract.CharacterID, bool) {
	var found contract.CharacterID
	for _, t := range lang.Tokens(body) {
		id, ok := Resolve(m, t)
		if !ok {
			continue
		}
		if found != 0 && found != id {
			return 0, false
		}
		found = id
	}
	return found, found != 0
}

// VoiceOf 在回看窗口内找 "…голос N:" / "voice of N" 形引导，模糊解析人名。
func VoiceOf(lines []contract.Line, i, window int, m *contract.Meta) (contract.CharacterID, float64, bool) {
	for back := 1; back <= window; back++ {
		j := i - back
		if j < 0 {
			break
		}
		l := lines[j]
		if !IsNarration(l) {
			continue
		}
		raw, ok := lang.VoiceOwner(l.Body)
		if !ok {
			continue
		}
		if id, found := ResolveFuzzy(m, raw); found {
			return id, 0.7, true
		}
	}
	return 0, 0, false
}

// TitleOf 在回看窗口内找头衔引导：叙述提及某称谓且角色表中恰有一人
// 持有该角色时归属之。
func TitleOf(lines []contract.Line, i, window int, m *contract.Meta) (contract.CharacterID, float64, bool) {
	for back := 1; back <= window; back++ {
		j := i - back
		if j < 0 {
			break
		}
		l := lines[j]
		if !IsNarration(l) {
			continue
		}
		for _, t := range lang.Tokens(l.Body) {
			if id, ok := soleRoleHolder(m, t); ok {
				return id, 0.6, true
			}
		}
	}
	return 0, 0, false
}

// soleRoleHolder: token 命中恰好一个角色的角色描述。
func soleRoleHolder(m *contract.Meta, tok string) (contract.CharacterID, bool) {
	f := lang.FoldKey(tok)
	if len([]rune(f)) < 3 {
		return 0, false
	}
	var found contract.CharacterID
	for _, id := range m.IDs() {
		for _, ro := range m.Legend[id].Roles {
			hit := false
			for _, rt := range lang.Tokens(ro) {
				if lang.FoldKey(rt) == f {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
			if found != 0 && found != id {
				return 0, false
			}
			found = id
			break
		}
	}
	return found, found != 0
}

// PronounOf: 代词指代——行内末个带性别第三人称代词，向上找最近的
// 同性别已定说话人。行在对白块内时搜索不越过块首（块的意义就是隔断
// 无关对话）；仅无块可依时才全局向上兜底。
func PronounOf(lines []contract.Line, i int, m *contract.Meta) (contract.CharacterID, float64, bool) {
	g := contract.GenderUnknown
	for _, t := range lang.Tokens(lines[i].Body) {
		if pg, ok := lang.PronounGender(t); ok {
			g = pg
		}
	}
	if g == contract.GenderUnknown {
		return 0, 0, false
	}
	if bi := m.BlockIndexAt(i); bi >= 0 {
		if id, ok := nearestSpeaker(lines, i-1, m.Blocks[bi].Start, g, m); ok {
			return id, 0.5, true
		}
		return 0, 0, false
	}
	if id, ok := nearestSpeaker(lines, i-1, 0, g, m); ok {
		return id, 0.5, true
	}
	return 0, 0, false
}

// nearestSpeaker 自 j 向上到 lo，找最近的性别匹配已定说话人。
func nearestSpeaker(lines []contract.Line, j, lo int, g contract.Gender, m *contract.Meta) (contract.CharacterID, bool) {
	for ; j >= lo; j-- {
		l := lines[j]
		if !l.IsDialogue() || !l.Tag.IsResolved() || l.Tag.IsNarrator() {
			continue
		}
		sg := GenderOf(m, l.Tag.ID)
		if sg == g {
			return l.Tag.ID, true
		}
	}
	return 0, false
}
