package contract

import (
	"sort"
	"strconv"
)

// CharacterID: 说话人数值 ID（对应标签 #gN 中的 N）。
type CharacterID int

// NarratorID: 旁白保留 ID。旁白行永不承载对白。
const NarratorID CharacterID = 1

// Gender: 语法性别。
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "m"
	case GenderFemale:
		return "f"
	default:
		return "?"
	}
}

// Agrees: 性别一致性判定。任一侧未知不构成冲突；仅显式相异才算冲突。
func (g Gender) Agrees(o Gender) bool {
	if g == GenderUnknown || o == GenderUnknown {
		return true
	}
	return g == o
}

// TagKind: 标签状态种类。
type TagKind int

const (
	// TagNone: 无标签行。不承载标签语义，归属/修复规则不得触碰；
	// 字形规整（Normalizer）仍然适用。
	TagNone TagKind = iota
	TagResolved
	TagUnresolved
)

// TagState: 行首说话人标签。Resolved(n) / Unresolved / 无标签。
type TagState struct {
	Kind TagKind
	ID   CharacterID // 仅 Kind==TagResolved 时有效
}

// Resolved 构造已定标签。
func Resolved(id CharacterID) TagState { return TagState{Kind: TagResolved, ID: id} }

// Unresolved 构造未定标签（#g?）。
func Unresolved() TagState { return TagState{Kind: TagUnresolved} }

func (t TagState) IsResolved() bool   { return t.Kind == TagResolved }
func (t TagState) IsUnresolved() bool { return t.Kind == TagUnresolved }
func (t TagState) IsNarrator() bool   { return t.Kind == TagResolved && t.ID == NarratorID }

// String 还原标签 token；无标签行返回空串。
func (t TagState) String() string {
	switch t.Kind {
	case TagResolved:
		return "#g" + strconv.Itoa(int(t.ID))
	case TagUnresolved:
		return "#g?"
	default:
		return ""
	}
}

// Line: 文本模型的原子单位。位置不可变；Normalizer 定稿后仅 Tag 可变。
type Line struct {
	Indent string
	Tag    TagState
	Body   string
	// EOL: 本行原始行尾（"\n" / "\r\n" / 文末空串），输出时逐行还原。
	EOL string
	// Gold: 金标说话人（#!gN 行内标记），0 表示无。只读，仅供指标评估。
	Gold CharacterID
}

// LegendEntry: 角色表条目。别名/角色只增不减。
type LegendEntry struct {
	ID      CharacterID
	Names   []string
	Aliases []string
	Gender  Gender
	Roles   []string
}

// AddAlias 追加别名（去重，保序）。
func (e *LegendEntry) AddAlias(a string) {
	if a == "" {
		return
	}
	for _, x := range e.Aliases {
		if x == a {
			return
		}
	}
	e.Aliases = append(e.Aliases, a)
}

// AddRole 追加角色描述（去重，保序）。
func (e *LegendEntry) AddRole(r string) {
	if r == "" {
		return
	}
	for _, x := range e.Roles {
		if x == r {
			return
		}
	}
	e.Roles = append(e.Roles, r)
}

// AliasConflict: 同一折叠键指向多个 ID 的冲突记录。只记录，不裁决。
type AliasConflict struct {
	Key    string
	First  CharacterID
	Second CharacterID
}

// Constraint: 角色的场景/时间约束。allow 与 forbid 均空即不受限。
type Constraint struct {
	Allowed   []string
	Forbidden []string
	Times     []string
}

func (c Constraint) Unconstrained() bool {
	return len(c.Allowed) == 0 && len(c.Forbidden) == 0
}

// Scene: 带标签的连续行区间 [Start,End]，互不重叠，整体覆盖全文。
type Scene struct {
	Label string
	Start int
	End   int
}

// DialogueBlock: 对白块行区间 [Start,End]。
type DialogueBlock struct {
	Start int
	End   int
}

// VoteBag: 行级临时投票（ID → 权重）。不跨行持久化。
type VoteBag map[CharacterID]int

func (v VoteBag) Add(id CharacterID, w int) { v[id] += w }

// Top 返回最高票者及其票数与次高票数。空袋返回 (0,0,0)。
// 平票时取较小 ID，保证确定性。
func (v VoteBag) Top() (best CharacterID, bestW, secondW int) {
	ids := make([]CharacterID, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		w := v[id]
		if w > bestW {
			best, secondW, bestW = id, bestW, w
		} else if w > secondW {
			secondW = w
		}
	}
	return best, bestW, secondW
}

// AuditEntry: 共识校验的改签记录。只追加；仅供终局报告消费。
type AuditEntry struct {
	Line   int
	From   TagState
	To     TagState
	Reason string
}

// Decision: 一次归属裁定的日志记录（TSV 决策日志的载体）。
type Decision struct {
	Line         int
	ID           CharacterID
	Confidence   float64
	Margin       float64
	Alternatives []CharacterID
	Reason       string
}
