// Package config 实现运行配置：JSON 文件 + 环境变量 + CLI 参数三层合并，
// 一次装配，运行期只读。
package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input: 文本路径；"-" 为 STDIN。
	Input string `json:"input"`
	// Output: 输出路径；"-" 为 STDOUT；空串为原地覆盖 Input。
	Output string `json:"output"`
	// Legend: 角色表路径；空串表示角色表内嵌在文本头部。
	Legend string `json:"legend"`
	// DecisionLog: 决策日志（TSV）输出路径；空串不写。
	DecisionLog string `json:"decision_log"`
	// Report: 指标报告（JSON）输出路径；空串不写。
	Report string `json:"report"`

	Thresholds Thresholds `json:"thresholds"`
	Logging    Logging    `json:"logging"`

	// Rules: 启用的规则名序列；空则使用默认全量流水线。
	Rules []string `json:"rules"`
	// Options: 各规则的原样 JSON Options（键为规则名），传入工厂严格解码。
	Options map[string]json.RawMessage `json:"options"`
}

// Thresholds: 归属阈值与窗口。
type Thresholds struct {
	// MinConfidence: 启发式落签的最低置信度 [0,1]。
	MinConfidence float64 `json:"min_confidence"`
	// MinMargin: 首选与次选候选的最小间隔 [0,1]。
	MinMargin float64 `json:"min_margin"`
	// Window: 引导行回看窗口（行数，>=1）。
	Window int `json:"window"`
	// Alternatives: 决策日志记录的候选数上限（>=1）。
	Alternatives int `json:"alternatives"`
	// OnlyUnresolved: 仅处理 #g? 行，保留既有 #gN 标签。
	OnlyUnresolved bool `json:"only_unresolved"`
	// DefaultScene: 无任何标题时整篇文档的场景标签。
	DefaultScene string `json:"default_scene"`
}

// Logging: 仅日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}
