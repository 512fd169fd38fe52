package attrib

import (
	"context"

	"spktag/internal/signal"
	"spktag/pkg/contract"
)

// LeadIn 处理回看窗口内的引导行："Олена подивилась і сказала:"。
// 群体噪声引导（"усі закричали:"）压制本行的引导归属并记入 Meta.Suppressed。
type LeadIn struct{}

func NewLeadIn() *LeadIn { return &LeadIn{} }

var _ contract.Rule = (*LeadIn)(nil)

func (r *LeadIn) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 50, Scope: contract.ScopeLine, Name: "lead-in"}
}

func (r *LeadIn) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsUnresolved() || m.Suppressed[i] {
			continue
		}
		li, ok := signal.LeadInOf(lines, i, m.Params.Window, m)
		if li.Suppressed {
			m.Suppressed[i] = true
			m.Logf("debug", "lead-in", "line %d suppressed by group-noise lead", i)
			continue
		}
		if !ok {
			continue
		}
		assign(m, lines, i, li.ID, li.Confidence, "lead-in")
	}
	return contract.RenderLines(lines), nil
}

// Voice 处理"某人的声音"引导："…почувся голос Олени:" / "voice of Olena"。
// 人名以模糊匹配（编辑距离 ≤1 + 屈折词尾表）吸收变格形。
type Voice struct{}

func NewVoice() *Voice { return &Voice{} }

var _ contract.Rule = (*Voice)(nil)

func (r *Voice) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 60, Scope: contract.ScopeLine, Name: "voice"}
}

func (r *Voice) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsUnresolved() || m.Suppressed[i] {
			continue
		}
		id, conf, ok := signal.VoiceOf(lines, i, m.Params.Window, m)
		if !ok {
			continue
		}
		assign(m, lines, i, id, conf, "voice")
	}
	return contract.RenderLines(lines), nil
}

// Title 处理头衔引导：上文叙述提及某称谓（"ватажок"/"the chief"），
// 且角色表中恰有一人持有该角色时归属之。
type Title struct{}

func NewTitle() *Title { return &Title{} }

var _ contract.Rule = (*Title)(nil)

func (r *Title) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseAttribute, Priority: 70, Scope: contract.ScopeLine, Name: "title"}
}

func (r *Title) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || !l.Tag.IsUnresolved() || m.Suppressed[i] {
			continue
		}
		id, conf, ok := signal.TitleOf(lines, i, m.Params.Window, m)
		if !ok {
			continue
		}
		assign(m, lines, i, id, conf, "title")
	}
	return contract.RenderLines(lines), nil
}
