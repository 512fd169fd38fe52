package contract

import (
	"fmt"
	"sort"
)

// Params: 运行期阈值（一次装配，规则只读）。
type Params struct {
	// MinConfidence: 启发式落签的最低置信度。
	MinConfidence float64
	// MinMargin: 首选与次选候选的最小间隔。
	MinMargin float64
	// Window: 引导行回看窗口（行数）。
	Window int
	// Alternatives: 决策日志记录的候选数上限。
	Alternatives int
	// OnlyUnresolved: 仅处理 #g? 行；保留既有 #gN 标签不重置。
	OnlyUnresolved bool
	// DefaultScene: 无任何标题时整篇文档的场景标签。
	DefaultScene string
}

// Meta: 单文档元数据仓。每文档创建一次，增量填充，指标报告后弃置。
// 字段显式定型（spec 的开放 map 重设计）；Ext 是唯一的窄扩展口。
type Meta struct {
	Params Params

	// 角色表（Legend Builder 填充；后续规则只增别名/角色，不移除）。
	LegendRaw      string
	Legend         map[CharacterID]*LegendEntry
	AliasIndex     map[string]CharacterID
	AliasConflicts []AliasConflict
	Constraints    map[CharacterID]Constraint
	// FirstPerson: 第一人称叙述者 ID；0 表示未设（依赖它的启发式不触发）。
	FirstPerson CharacterID
	// InnerVoice: 内心独白专用角色 ID；0 表示未设。
	InnerVoice CharacterID

	// 结构（Scene/Block Detector 填充）。
	Scenes  []Scene
	SceneOf []int // 行号 → Scenes 下标
	// Blocks: 严格对白块（旁白行即断开）。
	Blocks  []DialogueBlock
	BlockOf []int // 行号 → Blocks 下标；-1=不在块内
	// LooseBlocks: 宽松变体（允许单个空行/旁白行作连接），修复规则使用。
	LooseBlocks  []DialogueBlock
	LooseBlockOf []int
	// BlockBoundaries: Normalizer 折叠分隔后的空行位置。
	BlockBoundaries []int

	// 归属过程状态。
	// InlineNames: 行内点名结果（行号 → ID），修复期恢复与共识复用。
	InlineNames map[int]CharacterID
	// Suppressed: 被群体噪声引导压制的行（引导启发式跳过）。
	Suppressed map[int]bool
	Decisions  []Decision
	Audit      []AuditEntry
	Report     *Report

	// Scorer: 可选外部分类器；nil 时所有规则照常工作。
	Scorer Scorer

	// Ext: 实验信号的窄扩展口；核心规则不读取其键值。
	Ext map[string]string

	// Log: 运行日志挂钩（level, rule, msg）；可为 nil。
	Log func(level, rule, msg string)
}

// NewMeta 创建空元数据仓。
func NewMeta(p Params) *Meta {
	return &Meta{
		Params:      p,
		Legend:      make(map[CharacterID]*LegendEntry),
		AliasIndex:  make(map[string]CharacterID),
		Constraints: make(map[CharacterID]Constraint),
		InlineNames: make(map[int]CharacterID),
		Suppressed:  make(map[int]bool),
		Ext:         make(map[string]string),
	}
}

// Logf 格式化写日志；Log 为 nil 时丢弃。
func (m *Meta) Logf(level, rule, format string, args ...any) {
	if m.Log == nil {
		return
	}
	m.Log(level, rule, fmt.Sprintf(format, args...))
}

// EntryOf 返回角色条目；未知 ID 返回 nil。
func (m *Meta) EntryOf(id CharacterID) *LegendEntry { return m.Legend[id] }

// IDs 返回角色表的稳定遍历序（ID 升序）。
func (m *Meta) IDs() []CharacterID {
	ids := make([]CharacterID, 0, len(m.Legend))
	for id := range m.Legend {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Bind 将折叠键绑定到 ID。已有不同绑定时记录冲突、保留先到者。
func (m *Meta) Bind(key string, id CharacterID) {
	if key == "" {
		return
	}
	if prev, ok := m.AliasIndex[key]; ok {
		if prev != id {
			m.AliasConflicts = append(m.AliasConflicts, AliasConflict{Key: key, First: prev, Second: id})
		}
		return
	}
	m.AliasIndex[key] = id
}

// SceneIndexAt 返回行所属场景下标；无场景数据返回 -1。
func (m *Meta) SceneIndexAt(line int) int {
	if line < 0 || line >= len(m.SceneOf) {
		return -1
	}
	return m.SceneOf[line]
}

// SceneLabelAt 返回行所属场景标签；无场景数据返回空串。
func (m *Meta) SceneLabelAt(line int) string {
	i := m.SceneIndexAt(line)
	if i < 0 || i >= len(m.Scenes) {
		return ""
	}
	return m.Scenes[i].Label
}

// BlockIndexAt 返回行所属严格对白块下标；不在块内返回 -1。
func (m *Meta) BlockIndexAt(line int) int {
	if line < 0 || line >= len(m.BlockOf) {
		return -1
	}
	return m.BlockOf[line]
}

// LooseBlockIndexAt 返回行所属宽松对白块下标；不在块内返回 -1。
func (m *Meta) LooseBlockIndexAt(line int) int {
	if line < 0 || line >= len(m.LooseBlockOf) {
		return -1
	}
	return m.LooseBlockOf[line]
}

// AllowedAt: 场景/约束门。任何启发式落签前必须通过。
// forbid 命中即拒；allow 非空且未含当前场景亦拒。
func (m *Meta) AllowedAt(id CharacterID, line int) bool {
	c, ok := m.Constraints[id]
	if !ok || c.Unconstrained() {
		return true
	}
	label := m.SceneLabelAt(line)
	if label == "" {
		return true
	}
	for _, f := range c.Forbidden {
		if f == label {
			return false
		}
	}
	if len(c.Allowed) > 0 {
		for _, a := range c.Allowed {
			if a == label {
				return true
			}
		}
		return false
	}
	return true
}
