package config

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestLoadJSONStrict: 未知字段立即报错，合法字段正常落位。
func TestLoadJSONStrict(t *testing.T) {
	raw := []byte(`{"input":"a.txt","thresholds":{"min_confidence":0.7},"rules":["normalize"]}`)
	cfg, err := LoadJSON("", raw)
	if err != nil {
		t.Fatalf("合法配置解析失败: %v", err)
	}
	if cfg.Input != "a.txt" || cfg.Thresholds.MinConfidence != 0.7 || len(cfg.Rules) != 1 {
		t.Fatalf("字段落位错误: %+v", cfg)
	}

	if _, err := LoadJSON("", []byte(`{"inptu":"a.txt"}`)); err == nil {
		t.Fatalf("未知字段未报错")
	}
	if _, err := LoadJSON("", nil); err == nil {
		t.Fatalf("空来源未报错")
	}
}

// TestMerge 验证覆盖语义：非零覆盖、OnlyUnresolved 只升不降、Options 按键替换。
func TestMerge(t *testing.T) {
	base := Defaults()
	base.Options = map[string]json.RawMessage{"legend": json.RawMessage(`{"fuzzy":true}`)}

	over := Config{
		Input: "книга.txt",
		Thresholds: Thresholds{
			MinConfidence: 0.8,
			Window:        4,
		},
		Logging: Logging{Level: "debug"},
		Rules:   []string{"normalize", "legend"},
		Options: map[string]json.RawMessage{"normalize": json.RawMessage(`{}`)},
	}
	got := Merge(base, over)

	if got.Input != "книга.txt" {
		t.Fatalf("Input 未覆盖: %q", got.Input)
	}
	if got.Thresholds.MinConfidence != 0.8 || got.Thresholds.Window != 4 {
		t.Fatalf("阈值覆盖错误: %+v", got.Thresholds)
	}
	// 零值字段保留基线
	if got.Thresholds.MinMargin != 0.1 || got.Thresholds.Alternatives != 3 {
		t.Fatalf("零值不应覆盖: %+v", got.Thresholds)
	}
	if got.Thresholds.DefaultScene != "document" {
		t.Fatalf("DefaultScene 丢失: %q", got.Thresholds.DefaultScene)
	}
	if got.Logging.Level != "debug" {
		t.Fatalf("Level 未覆盖")
	}
	if len(got.Rules) != 2 || len(got.Options) != 2 {
		t.Fatalf("Rules/Options 合并错误: %+v", got)
	}

	// OnlyUnresolved: false 不回退已升位的 true
	base2 := Defaults()
	base2.Thresholds.OnlyUnresolved = true
	if got := Merge(base2, Config{}); !got.Thresholds.OnlyUnresolved {
		t.Fatalf("OnlyUnresolved 被 false 回退")
	}
}

// TestEnvOverlay: 前缀键集合解析；集合外忽略；坏数字忽略。
func TestEnvOverlay(t *testing.T) {
	over := EnvOverlay([]string{
		"SPKTAG_INPUT=in.txt",
		"SPKTAG_OUTPUT=out.txt",
		"SPKTAG_MIN_CONFIDENCE=0.9",
		"SPKTAG_WINDOW=зло", // 非数字 → 忽略
		"SPKTAG_ONLY_UNRESOLVED=true",
		"SPKTAG_RULES=normalize, legend ,",
		"SPKTAG_НЕВІДОМО=1", // 集合外
		"PATH=/usr/bin",
	})
	if over.Input != "in.txt" || over.Output != "out.txt" {
		t.Fatalf("路径键解析错误: %+v", over)
	}
	if over.Thresholds.MinConfidence != 0.9 {
		t.Fatalf("MIN_CONFIDENCE 解析错误")
	}
	if over.Thresholds.Window != 0 {
		t.Fatalf("坏数字应忽略")
	}
	if !over.Thresholds.OnlyUnresolved {
		t.Fatalf("ONLY_UNRESOLVED 解析错误")
	}
	if strings.Join(over.Rules, "|") != "normalize|legend" {
		t.Fatalf("RULES 分割错误: %v", over.Rules)
	}
}

// TestValidate 遍历边界违例。
func TestValidate(t *testing.T) {
	ok := Defaults()
	if err := Validate(ok); err != nil {
		t.Fatalf("默认配置应通过: %v", err)
	}
	cases := []func(*Config){
		func(c *Config) { c.Input = "" },
		func(c *Config) { c.Thresholds.MinConfidence = 1.5 },
		func(c *Config) { c.Thresholds.MinMargin = -0.1 },
		func(c *Config) { c.Thresholds.Window = 0 },
		func(c *Config) { c.Thresholds.Alternatives = 0 },
		func(c *Config) { c.Rules = []string{"нема-такого"} },
		func(c *Config) { c.Options = map[string]json.RawMessage{"нема": json.RawMessage(`{}`)} },
	}
	for i, mut := range cases {
		c := Defaults()
		mut(&c)
		if err := Validate(c); err == nil {
			t.Fatalf("case %d: 违例未报错", i)
		}
	}
}

// TestAssemble: 空 Rules → 默认序列；阈值透传 Settings。
func TestAssemble(t *testing.T) {
	cfg := Defaults()
	cfg.Thresholds.MinConfidence = 0.6
	cfg.Thresholds.OnlyUnresolved = true
	rules, set, err := Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(rules) == 0 {
		t.Fatalf("默认序列为空")
	}
	if set.MinConfidence != 0.6 || !set.OnlyUnresolved || set.Window != 2 {
		t.Fatalf("Settings 透传错误: %+v", set)
	}

	cfg.Rules = []string{"normalize"}
	rules, _, err = Assemble(cfg)
	if err != nil || len(rules) != 1 {
		t.Fatalf("显式序列构造失败: %v, %d", err, len(rules))
	}
}
