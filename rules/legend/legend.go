// Package legend 实现角色表构建：把原始 legend 文本解析为 LegendEntry 集，
// 建立折叠别名索引（冲突只记录不裁决），推导第一人称叙述者与内心独白角色。
// 支持两种等价输入形：行式 "#gN - Name/Alt (attr, …)" 与结构化 YAML 记录集。
package legend

import (
	"context"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"spktag/internal/lang"
	"spktag/pkg/contract"
)

type Options struct{}

type Rule struct{}

func New(_ *Options) *Rule { return &Rule{} }

var _ contract.Rule = (*Rule)(nil)

func (r *Rule) Info() contract.RuleInfo {
	return contract.RuleInfo{Phase: contract.PhaseLegend, Priority: 10, Scope: contract.ScopeDocument, Name: "legend"}
}

func (r *Rule) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	raw := strings.TrimSpace(m.LegendRaw)
	if raw == "" {
		m.Logf("warn", "legend", "empty legend: heuristics relying on the cast will not fire")
		return text, nil
	}
	if isPlainForm(raw) {
		parsePlain(raw, m)
	} else {
		if err := parseYAML(raw, m); err != nil {
			m.Logf("warn", "legend", "yaml legend rejected: %v", err)
			return text, nil
		}
	}
	index(m)
	derive(m)
	m.Logf("info", "legend", "%d character(s), %d alias key(s), %d conflict(s)",
		len(m.Legend), len(m.AliasIndex), len(m.AliasConflicts))
	return text, nil
}

// isPlainForm: 首个非空行以 #g 开头即行式。
func isPlainForm(raw string) bool {
	for _, ln := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(ln)
		if t == "" {
			continue
		}
		return strings.HasPrefix(t, "#g")
	}
	return false
}

var plainLineRe = regexp.MustCompile(`^#g(\d+)\s*[-—–:]\s*(.+)$`)

// parsePlain 逐行解析行式 legend。坏行跳过 + 告警，永不致命。
func parsePlain(raw string, m *contract.Meta) {
	for _, ln := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(ln)
		if t == "" || strings.HasPrefix(t, "//") {
			continue
		}
		mt := plainLineRe.FindStringSubmatch(t)
		if mt == nil {
			m.Logf("warn", "legend", "unrecognized legend line skipped: %q", t)
			continue
		}
		id := contract.CharacterID(atoi(mt[1]))
		namePart, attrPart := splitAttrs(mt[2])
		e := ensure(m, id)
		for _, n := range strings.Split(namePart, "/") {
			if n = strings.TrimSpace(n); n != "" {
				e.Names = append(e.Names, n)
			}
		}
		for _, a := range strings.Split(attrPart, ",") {
			applyAttr(m, e, strings.TrimSpace(a))
		}
	}
}

// splitAttrs 切出尾部括号属性串："Name/Alt (attr, attr)" → ("Name/Alt", "attr, attr")。
func splitAttrs(s string) (string, string) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ")") {
		return s, ""
	}
	i := strings.LastIndex(s, "(")
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1 : len(s)-1])
}

// applyAttr 落一个属性 token：性别标记 / 约束标记 / 其余为角色描述。
func applyAttr(m *contract.Meta, e *contract.LegendEntry, attr string) {
	if attr == "" {
		return
	}
	if g, ok := lang.GenderMarker(attr); ok {
		if e.Gender == contract.GenderUnknown {
			e.Gender = g
		}
		return
	}
	if k, v, ok := strings.Cut(attr, ":"); ok {
		c := m.Constraints[e.ID]
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "allow", "scene", "loc":
			c.Allowed = append(c.Allowed, v)
		case "forbid":
			c.Forbidden = append(c.Forbidden, v)
		case "time":
			c.Times = append(c.Times, v)
		default:
			e.AddRole(attr)
			return
		}
		m.Constraints[e.ID] = c
		return
	}
	e.AddRole(attr)
}

// 结构化形（YAML 记录集）。
type yamlLegend struct {
	Characters []yamlEntry `yaml:"characters"`
}

type yamlEntry struct {
	ID      int      `yaml:"id"`
	Name    string   `yaml:"name"`
	Names   []string `yaml:"names"`
	Aliases []string `yaml:"aliases"`
	Gender  string   `yaml:"gender"`
	Roles   []string `yaml:"roles"`
	Allow   []string `yaml:"allow"`
	Forbid  []string `yaml:"forbid"`
	Times   []string `yaml:"times"`
}

func parseYAML(raw string, m *contract.Meta) error {
	var doc yamlLegend
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return err
	}
	if len(doc.Characters) == 0 {
		return contract.ErrLegendInvalid
	}
	for _, y := range doc.Characters {
		if y.ID <= 0 {
			m.Logf("warn", "legend", "character without id skipped: %+v", y)
			continue
		}
		e := ensure(m, contract.CharacterID(y.ID))
		if y.Name != "" {
			e.Names = append(e.Names, y.Name)
		}
		e.Names = append(e.Names, y.Names...)
		for _, a := range y.Aliases {
			e.AddAlias(a)
		}
		if g, ok := lang.GenderMarker(y.Gender); ok && e.Gender == contract.GenderUnknown {
			e.Gender = g
		}
		for _, ro := range y.Roles {
			e.AddRole(ro)
		}
		if len(y.Allow)+len(y.Forbid)+len(y.Times) > 0 {
			c := m.Constraints[e.ID]
			c.Allowed = append(c.Allowed, y.Allow...)
			c.Forbidden = append(c.Forbidden, y.Forbid...)
			c.Times = append(c.Times, y.Times...)
			m.Constraints[e.ID] = c
		}
	}
	return nil
}

func ensure(m *contract.Meta, id contract.CharacterID) *contract.LegendEntry {
	if e, ok := m.Legend[id]; ok {
		return e
	}
	e := &contract.LegendEntry{ID: id}
	m.Legend[id] = e
	return e
}

// index 建折叠别名索引：名字、别名、亲属称呼派生形。只增不减。
func index(m *contract.Meta) {
	for _, id := range m.IDs() {
		e := m.Legend[id]
		for _, n := range e.Names {
			m.Bind(lang.FoldKey(n), id)
			for _, v := range lang.KinshipVocatives(n) {
				e.AddAlias(v)
			}
		}
		for _, a := range e.Aliases {
			m.Bind(lang.FoldKey(a), id)
		}
	}
}

// derive 推导第一人称叙述者与内心独白角色。
// 主角评分（§ 设计约定）：主角标记 +1，孩子类角色 +2，
// 亲属关系中处于 parent→child 的 child 侧 +2；平手取最小 ID。
// 无人带主角标记时不设第一人称 ID——依赖它的启发式不触发。
func derive(m *contract.Meta) {
	bestID, bestScore := contract.CharacterID(0), 0
	for _, id := range m.IDs() {
		e := m.Legend[id]
		for _, ro := range e.Roles {
			if m.InnerVoice == 0 && lang.IsInnerVoiceRole(ro) {
				m.InnerVoice = id
			}
		}
		flagged := false
		score := 0
		for _, ro := range e.Roles {
			if lang.IsProtagonistRole(ro) {
				flagged = true
			}
			if lang.IsChildRole(ro) {
				score += 2
			}
		}
		if !flagged {
			continue
		}
		score++
		if isChildOfSomeone(m, id) {
			score += 2
		}
		if score > bestScore {
			bestID, bestScore = id, score
		}
	}
	m.FirstPerson = bestID
	if bestID != 0 {
		m.Logf("info", "legend", "first-person narrator: #g%d (score %d)", int(bestID), bestScore)
	}
}

// isChildOfSomeone: 某个其他条目的角色描述声明自己是其 parent。
func isChildOfSomeone(m *contract.Meta, child contract.CharacterID) bool {
	ce := m.Legend[child]
	for _, id := range m.IDs() {
		if id == child {
			continue
		}
		for _, ro := range m.Legend[id].Roles {
			target, ok := lang.ParentRelation(ro)
			if !ok {
				continue
			}
			for _, n := range ce.Names {
				if lang.FuzzyEqual(target, n) {
					return true
				}
			}
		}
	}
	return false
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
