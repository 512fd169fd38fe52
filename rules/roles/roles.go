// Package roles 实现角色/性别再推导与约束表构建。
// 在角色表就绪后，用与 legend 相同的标记与词干启发式补全缺失性别，
// 并为每个角色落一条显式约束记录（缺省不受限）。
package roles

import (
	"context"

	"spktag/internal/lang"
	"spktag/pkg/contract"
)

// Extract 补全 {gender, roles} 归一记录。
// 性别来源优先级：显式标记（legend 已落）→ 角色/名字词干 → 名字词尾猜测。
type Extract struct{}

func NewExtract() *Extract { return &Extract{} }

var _ contract.Rule = (*Extract)(nil)

func (e *Extract) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseConstraint, Priority: 10, Scope: contract.ScopeDocument, Name: "roles"}
}

func (e *Extract) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	derived := 0
	for _, id := range m.IDs() {
		entry := m.Legend[id]
		if entry.Gender != contract.GenderUnknown {
			continue
		}
		if g := deriveGender(entry); g != contract.GenderUnknown {
			entry.Gender = g
			derived++
		}
	}
	if derived > 0 {
		m.Logf("info", "roles", "derived gender for %d character(s)", derived)
	}
	return text, nil
}

func deriveGender(e *contract.LegendEntry) contract.Gender {
	// 角色描述词干（"мати Олега" → 阴性）。
	for _, ro := range e.Roles {
		for _, t := range lang.Tokens(ro) {
			if g := lang.StemGender(t); g != contract.GenderUnknown {
				return g
			}
		}
	}
	// 名字本身是称谓词（"Мама"、"Дідусь"）。
	for _, n := range e.Names {
		for _, t := range lang.Tokens(n) {
			if g := lang.StemGender(t); g != contract.GenderUnknown {
				return g
			}
		}
	}
	// 词尾猜测兜底。
	for _, n := range e.Names {
		if g := lang.GuessNameGender(n); g != contract.GenderUnknown {
			return g
		}
	}
	return contract.GenderUnknown
}

// Constraints 为每个角色落显式约束记录并去重。
// allow 与 forbid 均空即不受限；缺席等价于不受限，但显式记录便于审计。
type Constraints struct{}

func NewConstraints() *Constraints { return &Constraints{} }

var _ contract.Rule = (*Constraints)(nil)

func (c *Constraints) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseConstraint, Priority: 20, Scope: contract.ScopeDocument, Name: "constraints"}
}

func (c *Constraints) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	constrained := 0
	for _, id := range m.IDs() {
		cons := m.Constraints[id]
		cons.Allowed = dedupe(cons.Allowed)
		cons.Forbidden = dedupe(cons.Forbidden)
		cons.Times = dedupe(cons.Times)
		m.Constraints[id] = cons
		if !cons.Unconstrained() {
			constrained++
		}
	}
	if constrained > 0 {
		m.Logf("info", "constraints", "%d character(s) scene-constrained", constrained)
	}
	return text, nil
}

func dedupe(xs []string) []string {
	if len(xs) < 2 {
		return xs
	}
	seen := make(map[string]struct{}, len(xs))
	out := xs[:0]
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
