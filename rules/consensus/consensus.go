// Package consensus 实现共识校验：对每条已定对白行，用与归属启发式
// 相同的信号族独立重算一份投票（行内 3 / 引导 2 / 代词 1，外部分类器可选），
// 复核场景约束与言说动词性别一致性，按规则改签或降级。
// 每次改动都进审计轨——只为可调试性，后续规则不消费。
package consensus

import (
	"context"

	"spktag/internal/signal"
	"spktag/pkg/contract"
)

type Options struct{}

type Rule struct{}

func New(_ *Options) *Rule { return &Rule{} }

var _ contract.Rule = (*Rule)(nil)

func (r *Rule) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseValidate, Priority: 10, Scope: contract.ScopeLine, Name: "consensus"}
}

// switchMargin: 挑战者票数须超出在位者的最小差额。
const switchMargin = 2

func (r *Rule) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	labels, byLabel := scorerLabels(m)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || l.Tag.Kind == contract.TagNone {
			continue
		}
		if l.Tag.IsUnresolved() {
			resolveByScorer(ctx, lines, i, m, labels, byLabel)
			continue
		}
		if l.Tag.IsNarrator() {
			continue
		}
		cur := l.Tag.ID
		votes := tally(ctx, lines, i, m, labels, byLabel)

		// 场景约束复核：禁入场景绝不放行——有可行候选就改签，没有就降级。
		if !m.AllowedAt(cur, i) {
			if best, ok := bestAllowed(votes, m, i, cur); ok {
				change(m, lines, i, contract.Resolved(best), "scene-forbidden: switched to consensus candidate")
			} else {
				change(m, lines, i, contract.Unresolved(), "scene-forbidden: demoted")
			}
			continue
		}

		// 言说动词性别复核：显式相异且共识候选与动词一致时改签。
		if vg, ok := signal.VerbGenderOf(l.Body); ok && vg != contract.GenderUnknown {
			if g := signal.GenderOf(m, cur); g != contract.GenderUnknown && g != vg {
				if cand, ok := agreeingCandidate(votes, m, i, cur, vg); ok {
					change(m, lines, i, contract.Resolved(cand), "verb gender disagreement: switched")
					continue
				}
			}
		}

		// 票差改签：挑战者至少多 2 票。
		best, bw, _ := votes.Top()
		if best != 0 && best != cur && bw >= votes[cur]+switchMargin && m.AllowedAt(best, i) {
			change(m, lines, i, contract.Resolved(best), "consensus vote margin: switched")
		}
	}
	if len(m.Audit) > 0 {
		m.Logf("info", "consensus", "%d audit entr(ies)", len(m.Audit))
	}
	return contract.RenderLines(lines), nil
}

// tally 重算一条行的投票（与归属期同一信号族）。
func tally(ctx context.Context, lines []contract.Line, i int, m *contract.Meta, labels []string, byLabel map[string]contract.CharacterID) contract.VoteBag {
	votes := contract.VoteBag{}
	if in, ok := signal.InlineOf(lines[i].Body, m); ok {
		votes.Add(in.ID, signal.WeightInline)
	}
	if li, ok := signal.LeadInOf(lines, i, m.Params.Window, m); ok && !li.Suppressed {
		votes.Add(li.ID, signal.WeightLeadIn)
	}
	if id, _, ok := signal.PronounOf(lines, i, m); ok {
		votes.Add(id, signal.WeightPronoun)
	}
	if id, _, ok := scorerVote(ctx, lines[i].Body, m, labels, byLabel); ok {
		votes.Add(id, 1)
	}
	return votes
}

// change 落一次改签/降级并进审计轨。
func change(m *contract.Meta, lines []contract.Line, i int, to contract.TagState, reason string) {
	from := lines[i].Tag
	if from == to {
		return
	}
	lines[i].Tag = to
	m.Audit = append(m.Audit, contract.AuditEntry{Line: i, From: from, To: to, Reason: reason})
}

// bestAllowed: 票袋中约束可行的最高票候选（排除 exclude）。
func bestAllowed(votes contract.VoteBag, m *contract.Meta, line int, exclude contract.CharacterID) (contract.CharacterID, bool) {
	filtered := contract.VoteBag{}
	for id, w := range votes {
		if id == exclude || id == contract.NarratorID {
			continue
		}
		if m.AllowedAt(id, line) {
			filtered[id] = w
		}
	}
	best, bw, _ := filtered.Top()
	return best, best != 0 && bw > 0
}

// agreeingCandidate: 与动词性别一致且约束可行的最高票候选。
func agreeingCandidate(votes contract.VoteBag, m *contract.Meta, line int, exclude contract.CharacterID, vg contract.Gender) (contract.CharacterID, bool) {
	filtered := contract.VoteBag{}
	for id, w := range votes {
		if id == exclude || id == contract.NarratorID {
			continue
		}
		if signal.GenderOf(m, id) != vg {
			continue
		}
		if m.AllowedAt(id, line) {
			filtered[id] = w
		}
	}
	best, bw, _ := filtered.Top()
	return best, best != 0 && bw > 0
}

// scorerLabels: 外部分类器的标签集（各角色首名）。Scorer 为 nil 时为空。
func scorerLabels(m *contract.Meta) ([]string, map[string]contract.CharacterID) {
	if m.Scorer == nil {
		return nil, nil
	}
	var labels []string
	byLabel := make(map[string]contract.CharacterID)
	for _, id := range m.IDs() {
		if id == contract.NarratorID {
			continue
		}
		e := m.Legend[id]
		if len(e.Names) == 0 {
			continue
		}
		labels = append(labels, e.Names[0])
		byLabel[e.Names[0]] = id
	}
	return labels, byLabel
}

// scorerVote: 外部分类器的单票。失败/缺席一律视为无票（完全容忍）。
func scorerVote(ctx context.Context, body string, m *contract.Meta, labels []string, byLabel map[string]contract.CharacterID) (contract.CharacterID, float64, bool) {
	if m.Scorer == nil || len(labels) == 0 {
		return 0, 0, false
	}
	ranked, err := m.Scorer.Score(ctx, body, labels)
	if err != nil || len(ranked) == 0 {
		if err != nil {
			m.Logf("warn", "consensus", "scorer failed, vote skipped: %v", err)
		}
		return 0, 0, false
	}
	top := ranked[0]
	id, ok := byLabel[top.Label]
	if !ok || top.Similarity < m.Params.MinConfidence {
		return 0, 0, false
	}
	return id, top.Similarity, true
}

// resolveByScorer: 仍未定的行，分类器给出高置信且留有间隔的候选时落签。
func resolveByScorer(ctx context.Context, lines []contract.Line, i int, m *contract.Meta, labels []string, byLabel map[string]contract.CharacterID) {
	if m.Scorer == nil || len(labels) == 0 || m.Suppressed[i] {
		return
	}
	ranked, err := m.Scorer.Score(ctx, lines[i].Body, labels)
	if err != nil || len(ranked) == 0 {
		return
	}
	top := ranked[0]
	id, ok := byLabel[top.Label]
	if !ok || id == contract.NarratorID {
		return
	}
	margin := top.Similarity
	if len(ranked) > 1 {
		margin = top.Similarity - ranked[1].Similarity
	}
	if top.Similarity < m.Params.MinConfidence || margin < m.Params.MinMargin {
		return
	}
	if !m.AllowedAt(id, i) {
		return
	}
	lines[i].Tag = contract.Resolved(id)
	alts := make([]contract.CharacterID, 0, m.Params.Alternatives)
	for k := 0; k < len(ranked) && k < m.Params.Alternatives; k++ {
		if aid, ok := byLabel[ranked[k].Label]; ok {
			alts = append(alts, aid)
		}
	}
	m.Decisions = append(m.Decisions, contract.Decision{
		Line: i, ID: id, Confidence: top.Similarity, Margin: margin,
		Alternatives: alts, Reason: "scorer",
	})
}
