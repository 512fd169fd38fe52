package config

import (
	"errors"
	"fmt"

	"spktag/internal/pipeline"
	"spktag/pkg/contract"
	"spktag/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if cfg.Input == "" {
		return errors.New("config: input not set")
	}
	t := cfg.Thresholds
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		return errors.New("config: min_confidence must be in [0,1]")
	}
	if t.MinMargin < 0 || t.MinMargin > 1 {
		return errors.New("config: min_margin must be in [0,1]")
	}
	if t.Window < 1 {
		return errors.New("config: window must be >= 1")
	}
	if t.Alternatives < 1 {
		return errors.New("config: alternatives must be >= 1")
	}
	for _, name := range cfg.Rules {
		if registry.Rules[name] == nil {
			return fmt.Errorf("config: rule %q not registered", name)
		}
	}
	for name := range cfg.Options {
		if registry.Rules[name] == nil {
			return fmt.Errorf("config: options for unregistered rule %q", name)
		}
	}
	return nil
}

// Assemble 构造规则序列与 pipeline.Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) ([]contract.Rule, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return nil, pipeline.Settings{}, err
	}
	names := cfg.Rules
	if len(names) == 0 {
		names = registry.DefaultOrder
	}
	rules, err := registry.Build(names, cfg.Options)
	if err != nil {
		return nil, pipeline.Settings{}, err
	}
	set := pipeline.Settings{
		MinConfidence:  cfg.Thresholds.MinConfidence,
		MinMargin:      cfg.Thresholds.MinMargin,
		Window:         cfg.Thresholds.Window,
		Alternatives:   cfg.Thresholds.Alternatives,
		OnlyUnresolved: cfg.Thresholds.OnlyUnresolved,
		DefaultScene:   cfg.Thresholds.DefaultScene,
	}
	return rules, set, nil
}
