// Package attrib 实现归属启发式电池：一组相互独立、各自幂等的探测器。
// 每条只扫描未定（#g?）对白行，凭足够强的局部信号落签；谁都不必解完全部行，
// 也不得触碰已定行（行内点名恢复与第一人称覆写除外，见各自注释）。
// 所有落签都要过场景/约束门与置信度门。
package attrib

import (
	"context"
	"strings"

	"spktag/internal/lang"
	"spktag/internal/signal"
	"spktag/pkg/contract"
)

// assign: 统一落签口。约束门 + 置信度门 + 决策日志，三件事永远一起做。
func assign(m *contract.Meta, lines []contract.Line, i int, id contract.CharacterID, conf float64, reason string) bool {
	if id == 0 || id == contract.NarratorID {
		return false
	}
	if conf < m.Params.MinConfidence {
		return false
	}
	if !m.AllowedAt(id, i) {
		m.Logf("debug", reason, "line %d: #g%d blocked by scene constraint", i, int(id))
		return false
	}
	lines[i].Tag = contract.Resolved(id)
	m.Decisions = append(m.Decisions, contract.Decision{
		Line: i, ID: id, Confidence: conf, Margin: conf, Reason: reason,
	})
	return true
}

// Reset 把所有对白行强制回 #g?——最终裁决权属于角色表与启发式，
// 而不是上游打标。旁白行不动；OnlyUnresolved 模式下整条规则不触发。
type Reset struct{}

func NewReset() *Reset { return &Reset{} }

var _ contract.Rule = (*Reset)(nil)

func (r *Reset) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 10, Scope: contract.ScopeLine, Name: "reset"}
}

func (r *Reset) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	if m.Params.OnlyUnresolved {
		return text, nil
	}
	lines := contract.ParseLines(text)
	n := 0
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsResolved() || l.Tag.IsNarrator() {
			continue
		}
		lines[i].Tag = contract.Unresolved()
		n++
	}
	if n > 0 {
		m.Logf("info", "reset", "%d dialogue line(s) reset to unresolved", n)
	}
	return contract.RenderLines(lines), nil
}

// Narrator 处理"旁白开口说话"的违例行：旁白标签 + 对白开头。
// 第一人称线索 → 叙述者 ID；否则取紧邻上文叙述点名的角色；再不行回 #g?。
type Narrator struct{}

func NewNarrator() *Narrator { return &Narrator{} }

var _ contract.Rule = (*Narrator)(nil)

func (r *Narrator) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 20, Scope: contract.ScopeLine, Name: "narrator-speaks"}
}

func (r *Narrator) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.Tag.IsNarrator() || !contract.IsDialogueBody(l.Body) {
			continue
		}
		if m.FirstPerson != 0 && (lang.FirstPersonCue(l.Body) || hasFirstPersonPronoun(l.Body)) {
			if assign(m, lines, i, m.FirstPerson, 0.8, "narrator-first-person") {
				continue
			}
		}
		if id, ok := namedInLeadNarration(lines, i, m); ok && assign(m, lines, i, id, 0.6, "narrator-lead") {
			continue
		}
		lines[i].Tag = contract.Unresolved()
	}
	return contract.RenderLines(lines), nil
}

func hasFirstPersonPronoun(body string) bool {
	for _, t := range lang.Tokens(body) {
		f := lang.FoldKey(t)
		if f == "я" || f == "i" || f == "мені" || f == "me" {
			return true
		}
	}
	return false
}

// namedInLeadNarration: 紧邻上文叙述行点名的角色；
// "чоловічий/жіночий голос" 类性别提示在全表恰有一名该性别角色时也算点名。
func namedInLeadNarration(lines []contract.Line, i int, m *contract.Meta) (contract.CharacterID, bool) {
	for back := 1; back <= m.Params.Window; back++ {
		j := i - back
		if j < 0 {
			break
		}
		l := lines[j]
		if !signal.IsNarration(l) {
			continue
		}
		if g, ok := lang.VoiceGender(l.Body); ok {
			if id, sole := soleOfGender(m, g); sole {
				return id, true
			}
		}
		for _, t := range lang.Tokens(l.Body) {
			if id, ok := signal.Resolve(m, t); ok && id != contract.NarratorID {
				return id, true
			}
		}
	}
	return 0, false
}

func soleOfGender(m *contract.Meta, g contract.Gender) (contract.CharacterID, bool) {
	var found contract.CharacterID
	for _, id := range m.IDs() {
		if id == contract.NarratorID {
			continue
		}
		if signal.GenderOf(m, id) != g {
			continue
		}
		if found != 0 {
			return 0, false
		}
		found = id
	}
	return found, found != 0
}

// isQuoted: 引号承载的引文行（思考降级的形态前提）。
func isQuoted(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), `"`)
}
