package contract

import "context"

// Phase: 流水线阶段。顺序是静态契约：后段规则依赖前段建立的不变量
// （归属启发式假定场景与角色表已就绪）。禁止用裸数字表达阶段。
type Phase int

const (
	PhaseNormalize Phase = iota
	PhaseStructure
	PhaseLegend
	PhaseConstraint
	PhaseAttribute
	PhaseRepair
	PhaseValidate
	PhaseReport
)

func (p Phase) String() string {
	switch p {
	case PhaseNormalize:
		return "normalize"
	case PhaseStructure:
		return "structure"
	case PhaseLegend:
		return "legend"
	case PhaseConstraint:
		return "constraint"
	case PhaseAttribute:
		return "attribute"
	case PhaseRepair:
		return "repair"
	case PhaseValidate:
		return "validate"
	case PhaseReport:
		return "report"
	default:
		return "unknown"
	}
}

// Scope: 规则作用粒度（仅描述性元信息，不参与调度）。
type Scope int

const (
	ScopeDocument Scope = iota
	ScopeBlock
	ScopeLine
)

// RuleInfo: 规则静态元信息。排序键为 (Phase, Priority)，注册序兜底。
type RuleInfo struct {
	Phase    Phase
	Priority int
	Scope    Scope
	Name     string
}

// Rule: 纯文本变换 (text, meta) → text。
// 约束：
// - 可读写 Meta，但不得破坏其他规则的无关状态；
// - 仅 Line.Tag 可变（Normalizer 定稿后）；
// - 内部故障不得外溢终止流水线（由 runner 捕获，文本原样透传）。
type Rule interface {
	Info() RuleInfo
	Apply(ctx context.Context, text string, m *Meta) (string, error)
}

// LabelScore: 外部语义分类器的单个候选得分。
type LabelScore struct {
	Label      string
	Similarity float64
}

// Scorer: 外部分类器协作方（本仓库只消费，不实现）。
// 引擎必须完全容忍其缺席（nil）；所有启发式在无它时照常工作。
type Scorer interface {
	Score(ctx context.Context, query string, labels []string) ([]LabelScore, error)
}
