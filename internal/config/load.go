package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Input: "-",
		Thresholds: Thresholds{
			MinConfidence: 0.5,
			MinMargin:     0.1,
			Window:        2,
			Alternatives:  3,
			DefaultScene:  "document",
		},
		Logging: Logging{Level: "info"},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为"替换"；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if strings.TrimSpace(over.Input) != "" {
		out.Input = strings.TrimSpace(over.Input)
	}
	if strings.TrimSpace(over.Output) != "" {
		out.Output = strings.TrimSpace(over.Output)
	}
	if strings.TrimSpace(over.Legend) != "" {
		out.Legend = strings.TrimSpace(over.Legend)
	}
	if strings.TrimSpace(over.DecisionLog) != "" {
		out.DecisionLog = strings.TrimSpace(over.DecisionLog)
	}
	if strings.TrimSpace(over.Report) != "" {
		out.Report = strings.TrimSpace(over.Report)
	}

	if over.Thresholds.MinConfidence != 0 {
		out.Thresholds.MinConfidence = over.Thresholds.MinConfidence
	}
	if over.Thresholds.MinMargin != 0 {
		out.Thresholds.MinMargin = over.Thresholds.MinMargin
	}
	if over.Thresholds.Window != 0 {
		out.Thresholds.Window = over.Thresholds.Window
	}
	if over.Thresholds.Alternatives != 0 {
		out.Thresholds.Alternatives = over.Thresholds.Alternatives
	}
	if over.Thresholds.OnlyUnresolved {
		out.Thresholds.OnlyUnresolved = true
	}
	if strings.TrimSpace(over.Thresholds.DefaultScene) != "" {
		out.Thresholds.DefaultScene = strings.TrimSpace(over.Thresholds.DefaultScene)
	}

	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}

	if len(over.Rules) > 0 {
		out.Rules = cloneStrings(over.Rules)
	}
	// Options（完整替换对应键）
	if len(over.Options) > 0 {
		if out.Options == nil {
			out.Options = make(map[string]json.RawMessage, len(over.Options))
		}
		for k, v := range over.Options {
			out.Options[k] = cloneRaw(v)
		}
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 前缀 SPKTAG_；集合之外的键忽略。
func EnvOverlay(environ []string) Config {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "SPKTAG_") {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len("SPKTAG_") {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], "SPKTAG_")
		val := strings.TrimSpace(kv[eq+1:])
		switch key {
		case "INPUT":
			over.Input = val
		case "OUTPUT":
			over.Output = val
		case "LEGEND":
			over.Legend = val
		case "DECISION_LOG":
			over.DecisionLog = val
		case "REPORT":
			over.Report = val
		case "MIN_CONFIDENCE":
			if v, err := strconv.ParseFloat(val, 64); err == nil {
				over.Thresholds.MinConfidence = v
			}
		case "MIN_MARGIN":
			if v, err := strconv.ParseFloat(val, 64); err == nil {
				over.Thresholds.MinMargin = v
			}
		case "WINDOW":
			if v, err := strconv.Atoi(val); err == nil {
				over.Thresholds.Window = v
			}
		case "ALTERNATIVES":
			if v, err := strconv.Atoi(val); err == nil {
				over.Thresholds.Alternatives = v
			}
		case "ONLY_UNRESOLVED":
			if v, err := strconv.ParseBool(val); err == nil {
				over.Thresholds.OnlyUnresolved = v
			}
		case "DEFAULT_SCENE":
			over.Thresholds.DefaultScene = val
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "RULES":
			over.Rules = splitComma(val)
		}
	}
	return over
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
