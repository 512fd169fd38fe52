// Package registry 维护规则工厂注册表（显式、零反射）与默认规则序列。
// Options 一律严格 JSON 解码：未知字段即错误，拼错的配置键不会被静默吞掉。
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"spktag/pkg/contract"
	"spktag/rules/attrib"
	"spktag/rules/consensus"
	"spktag/rules/legend"
	"spktag/rules/normalize"
	"spktag/rules/repair"
	"spktag/rules/report"
	"spktag/rules/roles"
	"spktag/rules/scene"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewRule 工厂签名：接收原样 JSON Options。
type NewRule func(raw json.RawMessage) (contract.Rule, error)

// noOptions: 无配置规则的工厂包装——传了非空 Options 即错误。
func noOptions(name string, mk func() contract.Rule) NewRule {
	return func(raw json.RawMessage) (contract.Rule, error) {
		var v struct{}
		if err := strictUnmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("rule %q takes no options: %w", name, err)
		}
		return mk(), nil
	}
}

// Rules 工厂注册表。键即规则名（与 RuleInfo.Name 一致）。
var Rules = map[string]NewRule{
	"normalize": func(raw json.RawMessage) (contract.Rule, error) {
		var opts normalize.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return normalize.New(&opts), nil
	},
	"scenes": noOptions("scenes", func() contract.Rule { return scene.NewScenes() }),
	"blocks": noOptions("blocks", func() contract.Rule { return scene.NewBlocks() }),
	"legend": func(raw json.RawMessage) (contract.Rule, error) {
		var opts legend.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return legend.New(&opts), nil
	},
	"roles":           noOptions("roles", func() contract.Rule { return roles.NewExtract() }),
	"constraints":     noOptions("constraints", func() contract.Rule { return roles.NewConstraints() }),
	"reset":           noOptions("reset", func() contract.Rule { return attrib.NewReset() }),
	"narrator-speaks": noOptions("narrator-speaks", func() contract.Rule { return attrib.NewNarrator() }),
	"inline-verb":     noOptions("inline-verb", func() contract.Rule { return attrib.NewInlineVerb() }),
	"inline-name":     noOptions("inline-name", func() contract.Rule { return attrib.NewInlineName() }),
	"lead-in":         noOptions("lead-in", func() contract.Rule { return attrib.NewLeadIn() }),
	"voice":           noOptions("voice", func() contract.Rule { return attrib.NewVoice() }),
	"title":           noOptions("title", func() contract.Rule { return attrib.NewTitle() }),
	"first-person":    noOptions("first-person", func() contract.Rule { return attrib.NewFirstPerson() }),
	"pronoun":         noOptions("pronoun", func() contract.Rule { return attrib.NewPronoun() }),
	"thought":         noOptions("thought", func() contract.Rule { return attrib.NewThought() }),
	"sandwich":        noOptions("sandwich", func() contract.Rule { return repair.NewSandwich() }),
	"alternation":     noOptions("alternation", func() contract.Rule { return repair.NewAlternation() }),
	"gap-fill":        noOptions("gap-fill", func() contract.Rule { return repair.NewGapFill() }),
	"inline-restore":  noOptions("inline-restore", func() contract.Rule { return repair.NewRestoreInline() }),
	"consensus": func(raw json.RawMessage) (contract.Rule, error) {
		var opts consensus.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return consensus.New(&opts), nil
	},
	"report": func(raw json.RawMessage) (contract.Rule, error) {
		var opts report.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return report.New(&opts), nil
	},
}

// DefaultOrder: 完整流水线的规则名序列。执行序最终由 (Phase, Priority)
// 稳定排序裁定，此序列只决定"启用哪些规则"。
var DefaultOrder = []string{
	"normalize",
	"scenes", "blocks",
	"legend",
	"roles", "constraints",
	"reset", "narrator-speaks",
	"inline-verb", "inline-name",
	"lead-in", "voice", "title",
	"first-person", "pronoun", "thought",
	"sandwich", "alternation", "gap-fill", "inline-restore",
	"consensus",
	"report",
}

// Build 按名字与原样 Options 构造规则实例序列。未知规则名即错误。
func Build(names []string, options map[string]json.RawMessage) ([]contract.Rule, error) {
	out := make([]contract.Rule, 0, len(names))
	for _, name := range names {
		mk, ok := Rules[name]
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		r, err := mk(options[name])
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Default 构造默认全量流水线。
func Default() []contract.Rule {
	rs, err := Build(DefaultOrder, nil)
	if err != nil {
		// DefaultOrder 与注册表由同一文件维护，失配属编程错误。
		panic(err)
	}
	return rs
}
