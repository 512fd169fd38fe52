package attrib

import (
	"context"

	"spktag/internal/lang"
	"spktag/internal/signal"
	"spktag/pkg/contract"
)

// InlineVerb 处理引文后点名（带言说动词）："— 引文 — сказала Олена."。
// 动词形与名字的语法性别必须一致（角色表无性别时用词尾猜测），
// 相异即放弃——宁缺毋滥。命中记入 Meta.InlineNames 供恢复与共识复用。
type InlineVerb struct{}

func NewInlineVerb() *InlineVerb { return &InlineVerb{} }

var _ contract.Rule = (*InlineVerb)(nil)

func (r *InlineVerb) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 30, Scope: contract.ScopeLine, Name: "inline-verb"}
}

func (r *InlineVerb) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsUnresolved() {
			continue
		}
		in, ok := signal.InlineOf(l.Body, m)
		if !ok || !in.HasVerb {
			continue
		}
		if assign(m, lines, i, in.ID, in.Confidence, "inline-verb") {
			m.InlineNames[i] = in.ID
		}
	}
	return contract.RenderLines(lines), nil
}

// InlineName 处理无动词的行内点名："— 引文. — Олена, …"。
// 宽松标点边界，别名表直查。
type InlineName struct{}

func NewInlineName() *InlineName { return &InlineName{} }

var _ contract.Rule = (*InlineName)(nil)

func (r *InlineName) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 40, Scope: contract.ScopeLine, Name: "inline-name"}
}

func (r *InlineName) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsUnresolved() {
			continue
		}
		in, ok := signal.InlineOf(l.Body, m)
		if !ok || in.HasVerb {
			continue
		}
		if assign(m, lines, i, in.ID, in.Confidence, "inline-name") {
			m.InlineNames[i] = in.ID
		}
	}
	return contract.RenderLines(lines), nil
}

// FirstPerson 处理行内第一人称自指（"— повторюю я" / "I answered"）。
// 唯一允许覆写已定标签的归属探测器：第一人称自证强于此前的泛化猜测。
type FirstPerson struct{}

func NewFirstPerson() *FirstPerson { return &FirstPerson{} }

var _ contract.Rule = (*FirstPerson)(nil)

func (r *FirstPerson) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 80, Scope: contract.ScopeLine, Name: "first-person"}
}

func (r *FirstPerson) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	if m.FirstPerson == 0 {
		return text, nil
	}
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || l.Tag.Kind == contract.TagNone {
			continue
		}
		if l.Tag.IsResolved() && l.Tag.ID == m.FirstPerson {
			continue
		}
		if !lang.FirstPersonCue(l.Body) {
			continue
		}
		if assign(m, lines, i, m.FirstPerson, 0.85, "first-person") {
			m.InlineNames[i] = m.FirstPerson
		}
	}
	return contract.RenderLines(lines), nil
}
