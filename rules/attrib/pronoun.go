package attrib

import (
	"context"

	"spktag/internal/lang"
	"spktag/internal/signal"
	"spktag/pkg/contract"
)

// Pronoun 处理代词指代：行内末个带性别第三人称代词 → 同块内最近的
// 同性别已定说话人；无块时全局向上兜底。
type Pronoun struct{}

func NewPronoun() *Pronoun { return &Pronoun{} }

var _ contract.Rule = (*Pronoun)(nil)

func (r *Pronoun) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 90, Scope: contract.ScopeLine, Name: "pronoun"}
}

func (r *Pronoun) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsUnresolved() || m.Suppressed[i] {
			continue
		}
		id, conf, ok := signal.PronounOf(lines, i, m)
		if !ok {
			continue
		}
		assign(m, lines, i, id, conf, "pronoun")
	}
	return contract.RenderLines(lines), nil
}

// Thought 处理思考降级：无行内点名的引号行，邻近出现思考/格言提示时
// 不得塞给相邻说话人——有内心独白专用角色则归它，否则降回 #g?
// 并压制后续修复填充。
type Thought struct{}

func NewThought() *Thought { return &Thought{} }

var _ contract.Rule = (*Thought)(nil)

func (r *Thought) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 100, Scope: contract.ScopeLine, Name: "thought"}
}

func (r *Thought) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || l.Tag.Kind == contract.TagNone {
			continue
		}
		if !isQuoted(l.Body) {
			continue
		}
		if _, named := m.InlineNames[i]; named {
			continue
		}
		if !thoughtAdjacent(lines, i, m) {
			continue
		}
		if m.InnerVoice != 0 {
			assign(m, lines, i, m.InnerVoice, 0.7, "thought")
			continue
		}
		if l.Tag.IsResolved() && !l.Tag.IsNarrator() {
			lines[i].Tag = contract.Unresolved()
		}
		m.Suppressed[i] = true
	}
	return contract.RenderLines(lines), nil
}

// thoughtAdjacent: 本行或紧邻上下文（行内尾注/前后叙述行）带思考提示。
func thoughtAdjacent(lines []contract.Line, i int, m *contract.Meta) bool {
	if lang.ThoughtCue(lines[i].Body) {
		return true
	}
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(lines) {
			continue
		}
		if signal.IsNarration(lines[j]) && lang.ThoughtCue(lines[j].Body) {
			return true
		}
	}
	return false
}
