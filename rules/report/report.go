// Package report 实现指标报告：总量/覆盖率、分场景覆盖、别名冲突计数、
// 金标评估（准确率、逐角色 P/R/F1、micro/macro F1、混淆矩阵）。
// 纯读产物：文本原样透传，只填 Meta.Report。
package report

import (
	"context"
	"sort"

	"spktag/pkg/contract"
)

type Options struct{}

type Rule struct{}

func New(_ *Options) *Rule { return &Rule{} }

var _ contract.Rule = (*Rule)(nil)

func (r *Rule) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseReport, Priority: 10, Scope: contract.ScopeDocument, Name: "report"}
}

func (r *Rule) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	rep := &contract.Report{TotalLines: len(lines), AliasConflicts: len(m.AliasConflicts)}

	perScene := make(map[int]*contract.SceneCoverage)
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() {
			continue
		}
		rep.DialogueLines++
		resolved := l.Tag.IsResolved()
		if resolved {
			rep.Resolved++
		} else {
			rep.Unresolved++
		}
		if si := m.SceneIndexAt(i); si >= 0 && si < len(m.Scenes) {
			sc := perScene[si]
			if sc == nil {
				sc = &contract.SceneCoverage{Label: m.Scenes[si].Label}
				perScene[si] = sc
			}
			sc.Dialogue++
			if resolved {
				sc.Resolved++
			}
		}
	}
	if rep.DialogueLines > 0 {
		rep.Coverage = float64(rep.Resolved) / float64(rep.DialogueLines)
	}

	sceneIdx := make([]int, 0, len(perScene))
	for si := range perScene {
		sceneIdx = append(sceneIdx, si)
	}
	sort.Ints(sceneIdx)
	for _, si := range sceneIdx {
		sc := perScene[si]
		if sc.Dialogue > 0 {
			sc.Coverage = float64(sc.Resolved) / float64(sc.Dialogue)
		}
		rep.PerScene = append(rep.PerScene, *sc)
	}

	evalGold(lines, rep)

	m.Report = rep
	m.Logf("info", "report", "dialogue=%d resolved=%d coverage=%.3f", rep.DialogueLines, rep.Resolved, rep.Coverage)
	return text, nil
}

// evalGold 对带金标的对白行做评估。无金标行时 Accuracy/MicroF1/MacroF1
// 留 nil（JSON null）——零行上的 0.0 会被误读成"全错"。
func evalGold(lines []contract.Line, rep *contract.Report) {
	tp := make(map[contract.CharacterID]int) // 按金标角色
	fp := make(map[contract.CharacterID]int) // 按预测角色
	fn := make(map[contract.CharacterID]int)
	support := make(map[contract.CharacterID]int)
	confusion := make(map[contract.CharacterID]map[contract.CharacterID]int)

	correct := 0
	for i := range lines {
		l := lines[i]
		if !l.IsDialogue() || l.Gold == 0 {
			continue
		}
		rep.GoldLines++
		support[l.Gold]++
		pred := contract.CharacterID(0)
		if l.Tag.IsResolved() {
			pred = l.Tag.ID
		}
		if pred == l.Gold {
			correct++
			tp[l.Gold]++
			continue
		}
		fn[l.Gold]++
		if pred != 0 {
			fp[pred]++
		}
		if confusion[l.Gold] == nil {
			confusion[l.Gold] = make(map[contract.CharacterID]int)
		}
		confusion[l.Gold][pred]++
	}
	if rep.GoldLines == 0 {
		return
	}

	acc := float64(correct) / float64(rep.GoldLines)
	rep.Accuracy = &acc
	rep.Confusion = confusion

	ids := make([]contract.CharacterID, 0, len(support))
	for id := range support {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sumTP, sumFP, sumFN int
	var sumF1 float64
	for _, id := range ids {
		p := prf(tp[id], fp[id])
		rc := prf(tp[id], fn[id])
		f1 := 0.0
		if p+rc > 0 {
			f1 = 2 * p * rc / (p + rc)
		}
		rep.PerCharacter = append(rep.PerCharacter, contract.CharScore{
			ID: id, Precision: p, Recall: rc, F1: f1, Support: support[id],
		})
		sumTP += tp[id]
		sumFP += fp[id]
		sumFN += fn[id]
		sumF1 += f1
	}
	microP := prf(sumTP, sumFP)
	microR := prf(sumTP, sumFN)
	micro := 0.0
	if microP+microR > 0 {
		micro = 2 * microP * microR / (microP + microR)
	}
	rep.MicroF1 = &micro
	macro := sumF1 / float64(len(ids))
	rep.MacroF1 = &macro
}

// prf: hit/(hit+miss)，零分母返回 0。
func prf(hit, miss int) float64 {
	if hit+miss == 0 {
		return 0
	}
	return float64(hit) / float64(hit+miss)
}
