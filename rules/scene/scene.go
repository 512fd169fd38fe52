// Package scene 实现结构探测：场景（序章/章节/尾声标题 + 边界标记）
// 与对白块（严格/宽松两种变体）。只写 Meta，不改文本。
package scene

import (
	"context"
	"strings"

	"spktag/internal/lang"
	"spktag/pkg/contract"
)

// Scenes 探测场景标题并产出 Scene 列表与行→场景索引。
// 边界规则：
// - 标题行开启新场景（标题行归属新场景）；
// - "кінець X" 类标记切断当前场景但不开新标签（其后为缺省标签场景）；
// - 找不到结束标记时不臆造切分——场景延伸到下一显式标题或文末；
// - 全文无标题时整篇为单场景，标签取 Params.DefaultScene。
type Scenes struct{}

func NewScenes() *Scenes { return &Scenes{} }

var _ contract.Rule = (*Scenes)(nil)

func (s *Scenes) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseStructure, Priority: 10, Scope: contract.ScopeDocument, Name: "scenes"}
}

func (s *Scenes) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	n := len(lines)
	m.Scenes = m.Scenes[:0]
	m.SceneOf = make([]int, n)
	if n == 0 {
		return text, nil
	}

	def := m.Params.DefaultScene
	cur := contract.Scene{Label: def, Start: 0}
	for i, l := range lines {
		body, ok := headerText(l)
		if !ok {
			continue
		}
		if label, isHdr := lang.Header(body); isHdr {
			if i > cur.Start {
				cur.End = i - 1
				m.Scenes = append(m.Scenes, cur)
			}
			cur = contract.Scene{Label: label, Start: i}
			continue
		}
		if lang.EndMarker(body) {
			// 标记行归属被结束的场景；其后回到缺省标签。
			cur.End = i
			m.Scenes = append(m.Scenes, cur)
			cur = contract.Scene{Label: def, Start: i + 1}
		}
	}
	if cur.Start < n {
		cur.End = n - 1
		m.Scenes = append(m.Scenes, cur)
	}
	// 行→场景索引。
	for si, sc := range m.Scenes {
		for i := sc.Start; i <= sc.End && i < n; i++ {
			m.SceneOf[i] = si
		}
	}
	m.Logf("info", "scenes", "detected %d scene(s)", len(m.Scenes))
	return text, nil
}

// headerText 取候选标题文本：独立（无标签）行取整行，旁白行取其 body。
// 对白行与非旁白角色行不是标题载体。
func headerText(l contract.Line) (string, bool) {
	switch {
	case l.Tag.Kind == contract.TagNone:
		return l.Body, strings.TrimSpace(l.Body) != ""
	case l.Tag.IsNarrator():
		return l.Body, strings.TrimSpace(l.Body) != ""
	default:
		return "", false
	}
}

// Blocks 探测对白块：
// - 严格块：连续对白行的极大游程（旁白/空行即断开）——归属启发式的查找边界；
// - 宽松块：允许单个空行或旁白行作连接组织——修复规则的查找边界。
type Blocks struct{}

func NewBlocks() *Blocks { return &Blocks{} }

var _ contract.Rule = (*Blocks)(nil)

func (b *Blocks) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseStructure, Priority: 20, Scope: contract.ScopeDocument, Name: "blocks"}
}

func (b *Blocks) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	lines := contract.ParseLines(text)
	n := len(lines)
	m.Blocks, m.BlockOf = scan(lines, 0)
	m.LooseBlocks, m.LooseBlockOf = scan(lines, 1)
	m.Logf("info", "blocks", "strict=%d loose=%d over %d line(s)", len(m.Blocks), len(m.LooseBlocks), n)
	return text, nil
}

// scan 以 gap 为最大允许的非对白连接行数做块游程扫描。
func scan(lines []contract.Line, gap int) ([]contract.DialogueBlock, []int) {
	n := len(lines)
	of := make([]int, n)
	for i := range of {
		of[i] = -1
	}
	var blocks []contract.DialogueBlock
	i := 0
	for i < n {
		if !lines[i].IsDialogue() {
			i++
			continue
		}
		start, end := i, i
		j := i + 1
		pending := 0
		for j < n {
			if lines[j].IsDialogue() {
				end = j
				pending = 0
				j++
				continue
			}
			if pending < gap && connective(lines[j]) {
				pending++
				j++
				continue
			}
			break
		}
		blocks = append(blocks, contract.DialogueBlock{Start: start, End: end})
		bi := len(blocks) - 1
		for k := start; k <= end; k++ {
			of[k] = bi
		}
		i = end + 1
	}
	return blocks, of
}

// connective: 可作块内连接组织的行——空行或旁白行。
func connective(l contract.Line) bool {
	if l.Tag.Kind == contract.TagNone {
		return strings.TrimSpace(l.Body) == ""
	}
	return l.Tag.IsNarrator()
}
