// Package repair 实现局部一致性修复：双人对话的严格轮替填充、
// 同说话人三明治、两侧同说话人的缺口填充，以及行内点名的恢复覆写。
// 修复只在对白块边界内查找，绝不跨到无关对话。
package repair

import (
	"context"
	"strings"

	"spktag/internal/lang"
	"spktag/pkg/contract"
)

// assign: 修复落签口（约束门 + 决策日志）。
func assign(m *contract.Meta, lines []contract.Line, i int, id contract.CharacterID, conf float64, reason string) bool {
	if id == 0 || id == contract.NarratorID {
		return false
	}
	if !m.AllowedAt(id, i) {
		return false
	}
	lines[i].Tag = contract.Resolved(id)
	m.Decisions = append(m.Decisions, contract.Decision{
		Line: i, ID: id, Confidence: conf, Margin: conf, Reason: reason,
	})
	return true
}

// fillable: 可被修复填充的行——未定、未被压制、无行内点名。
func fillable(m *contract.Meta, lines []contract.Line, i int) bool {
	if !lines[i].IsDialogue() || !lines[i].Tag.IsUnresolved() {
		return false
	}
	if m.Suppressed[i] {
		return false
	}
	_, named := m.InlineNames[i]
	return !named
}

// dialogueIdx 返回宽松块内对白行的行号序列。
func dialogueIdx(lines []contract.Line, b contract.DialogueBlock) []int {
	var out []int
	for i := b.Start; i <= b.End && i < len(lines); i++ {
		if lines[i].IsDialogue() {
			out = append(out, i)
		}
	}
	return out
}

// Sandwich 处理三明治局部模式：已知 A、已知 B、未定 X、已知 B → X=A。
// 单行插入横跨两条同说话人行，是比统计轮替更强的局部证据，故先于它跑。
type Sandwich struct{}

func NewSandwich() *Sandwich { return &Sandwich{} }

var _ contract.Rule = (*Sandwich)(nil)

func (r *Sandwich) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseRepair, Priority: 10, Scope: contract.ScopeBlock, Name: "sandwich"}
}

func (r *Sandwich) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for _, b := range m.LooseBlocks {
		idx := dialogueIdx(lines, b)
		for k := 3; k < len(idx); k++ {
			i0, i1, i2, i3 := idx[k-3], idx[k-2], idx[k-1], idx[k]
			a := lines[i0].Tag
			b1 := lines[i1].Tag
			b2 := lines[i3].Tag
			if !a.IsResolved() || !b1.IsResolved() || !b2.IsResolved() {
				continue
			}
			if a.IsNarrator() || b1.IsNarrator() {
				continue
			}
			if b1.ID != b2.ID || a.ID == b1.ID {
				continue
			}
			if !fillable(m, lines, i2) {
				continue
			}
			assign(m, lines, i2, a.ID, 0.65, "sandwich")
		}
	}
	return contract.RenderLines(lines), nil
}

// Alternation 处理双人轮替填充：块内已知归属 ≥70% 落在两人身上时，
// 视为严格双人对话，未定行填"上一个没说话的那位"（限定在主导对上）。
// 带行内点名的行是显式覆写，轮替逻辑永不与之相抵。
type Alternation struct{}

func NewAlternation() *Alternation { return &Alternation{} }

var _ contract.Rule = (*Alternation)(nil)

func (r *Alternation) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseRepair, Priority: 20, Scope: contract.ScopeBlock, Name: "alternation"}
}

func (r *Alternation) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	filled := 0
	for _, b := range m.LooseBlocks {
		idx := dialogueIdx(lines, b)
		pa, pb, ok := dominantPair(lines, idx)
		if !ok {
			continue
		}
		for _, i := range idx {
			if !fillable(m, lines, i) {
				continue
			}
			exp, found := expected(lines, idx, i, pa, pb)
			if !found {
				continue
			}
			if assign(m, lines, i, exp, 0.55, "alternation") {
				filled++
			}
		}
	}
	if filled > 0 {
		m.Logf("info", "alternation", "%d line(s) filled by two-party alternation", filled)
	}
	return contract.RenderLines(lines), nil
}

// dominantPair: 已定归属中占比 ≥70% 的两人；不足或不成对返回 false。
func dominantPair(lines []contract.Line, idx []int) (contract.CharacterID, contract.CharacterID, bool) {
	counts := contract.VoteBag{}
	total := 0
	for _, i := range idx {
		t := lines[i].Tag
		if !t.IsResolved() || t.IsNarrator() {
			continue
		}
		counts.Add(t.ID, 1)
		total++
	}
	if total == 0 || len(counts) < 2 {
		return 0, 0, false
	}
	a, aw, _ := counts.Top()
	delete(counts, a)
	b, bw, _ := counts.Top()
	if a == 0 || b == 0 || aw == 0 || bw == 0 {
		return 0, 0, false
	}
	if float64(aw+bw) < 0.7*float64(total) {
		return 0, 0, false
	}
	return a, b, true
}

// expected: 轮替期望——块内上一个主导对说话人的另一位；
// 上文无主导对说话人时以下文最近者反推。
func expected(lines []contract.Line, idx []int, at int, pa, pb contract.CharacterID) (contract.CharacterID, bool) {
	other := func(id contract.CharacterID) contract.CharacterID {
		if id == pa {
			return pb
		}
		return pa
	}
	pos := -1
	for k, i := range idx {
		if i == at {
			pos = k
			break
		}
	}
	if pos < 0 {
		return 0, false
	}
	for k := pos - 1; k >= 0; k-- {
		t := lines[idx[k]].Tag
		if t.IsResolved() && (t.ID == pa || t.ID == pb) {
			return other(t.ID), true
		}
	}
	for k := pos + 1; k < len(idx); k++ {
		t := lines[idx[k]].Tag
		if t.IsResolved() && (t.ID == pa || t.ID == pb) {
			return other(t.ID), true
		}
	}
	return 0, false
}

// GapFill 处理两侧同说话人缺口：未定行在小容差内两侧都是同一已知
// 说话人 S 时，从更广上下文取最近的非 S 说话人填充。
// 弱信号，必须有问号或第二人称代词作护栏，否则不动。
type GapFill struct{}

func NewGapFill() *GapFill { return &GapFill{} }

var _ contract.Rule = (*GapFill)(nil)

func (r *GapFill) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseRepair, Priority: 30, Scope: contract.ScopeBlock, Name: "gap-fill"}
}

// gapTolerance: 两侧查找的最大行距。
const gapTolerance = 2

func (r *GapFill) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		if !fillable(m, lines, i) {
			continue
		}
		body := lines[i].Body
		if !strings.Contains(body, "?") && !lang.SecondPersonCue(body) {
			continue
		}
		up, okU := flank(lines, i, -1)
		down, okD := flank(lines, i, +1)
		if !okU || !okD || up != down {
			continue
		}
		if o, ok := lastOther(lines, i, up); ok {
			assign(m, lines, i, o, 0.5, "gap-fill")
		}
	}
	return contract.RenderLines(lines), nil
}

// flank 沿 dir 方向在容差内找最近的已定对白说话人。
func flank(lines []contract.Line, i, dir int) (contract.CharacterID, bool) {
	for step := 1; step <= gapTolerance; step++ {
		j := i + dir*step
		if j < 0 || j >= len(lines) {
			return 0, false
		}
		l := lines[j]
		if !l.IsDialogue() {
			continue
		}
		if l.Tag.IsResolved() && !l.Tag.IsNarrator() {
			return l.Tag.ID, true
		}
		return 0, false
	}
	return 0, false
}

// lastOther 自 i 向上找最近的非 s 已定说话人。
func lastOther(lines []contract.Line, i int, s contract.CharacterID) (contract.CharacterID, bool) {
	for j := i - 1; j >= 0; j-- {
		l := lines[j]
		if !l.IsDialogue() || !l.Tag.IsResolved() || l.Tag.IsNarrator() {
			continue
		}
		if l.Tag.ID != s {
			return l.Tag.ID, true
		}
	}
	return 0, false
}

// RestoreInline 恢复行内点名：后续泛化落签若覆掉了行内显式点名，
// 在此按 Meta.InlineNames 原样还原——行内点名是不可被推翻的覆写。
type RestoreInline struct{}

func NewRestoreInline() *RestoreInline { return &RestoreInline{} }

var _ contract.Rule = (*RestoreInline)(nil)

func (r *RestoreInline) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseRepair, Priority: 40, Scope: contract.ScopeLine, Name: "inline-restore"}
}

func (r *RestoreInline) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	restored := 0
	for i, id := range m.InlineNames {
		if i < 0 || i >= len(lines) {
			continue
		}
		t := lines[i].Tag
		if t.IsResolved() && t.ID == id {
			continue
		}
		lines[i].Tag = contract.Resolved(id)
		m.Decisions = append(m.Decisions, contract.Decision{
			Line: i, ID: id, Confidence: 0.9, Margin: 0.9, Reason: "inline-restore",
		})
		restored++
	}
	if restored > 0 {
		m.Logf("info", "inline-restore", "%d inline-named line(s) restored", restored)
	}
	return contract.RenderLines(lines), nil
}
