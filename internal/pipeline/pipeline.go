package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spktag/internal/diag"
	"spktag/pkg/contract"
)

// 单点编排：流水线是严格串行的纯变换链。
// - 排序是静态契约：(phase, priority) 稳定升序，注册序兜底；运行期不跳过、不重排。
// - 故障局部化：规则内部 fault（error 或 panic）只丢弃该规则的产出，
//   原文透传给下一条规则，流水线继续。
// - 同一 *Meta 贯穿全程；规则间通过它交换场景/块/角色表/约束/投票等状态。

// Settings 运行期配置（最小必要）。
type Settings struct {
	MinConfidence  float64
	MinMargin      float64
	Window         int
	Alternatives   int
	OnlyUnresolved bool
	// DefaultScene: 无标题文档的场景标签；空串用 "document"。
	DefaultScene string
	// Scorer: 可选外部语义分类器；nil 时全部启发式照常工作。
	Scorer contract.Scorer
}

// Run 执行完整流水线：text + legendRaw → 规则序列 → (text', Meta)。
// 规则按 (Phase, Priority) 稳定排序；每条收到前一条的产出与同一 Meta。
func Run(ctx context.Context, text, legendRaw string, rules []contract.Rule, set Settings, logger *diag.Logger) (string, *contract.Meta, error) {
	if set.Window <= 0 {
		set.Window = 2
	}
	if set.Alternatives <= 0 {
		set.Alternatives = 3
	}
	if set.DefaultScene == "" {
		set.DefaultScene = "document"
	}
	m := contract.NewMeta(contract.Params{
		MinConfidence:  set.MinConfidence,
		MinMargin:      set.MinMargin,
		Window:         set.Window,
		Alternatives:   set.Alternatives,
		OnlyUnresolved: set.OnlyUnresolved,
		DefaultScene:   set.DefaultScene,
	})
	m.LegendRaw = legendRaw
	m.Scorer = set.Scorer
	if logger != nil {
		m.Log = func(level, rule, msg string) {
			switch level {
			case "warn":
				logger.Warnf(rule, "%s", msg)
			case "debug":
				logger.Note(diag.Debug, rule, msg, 0)
			default:
				logger.Note(diag.Info, rule, msg, 0)
			}
		}
	}

	ordered := Order(rules)
	cur := text
	for _, r := range ordered {
		select {
		case <-ctx.Done():
			return cur, m, ctx.Err()
		default:
		}
		cur = applyOne(ctx, r, cur, m, logger)
	}
	return cur, m, nil
}

// Order 返回按 (Phase, Priority) 稳定排序的副本；平手保持注册序。
func Order(rules []contract.Rule) []contract.Rule {
	out := make([]contract.Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Info(), out[j].Info()
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		return a.Priority < b.Priority
	})
	return out
}

// applyOne 执行单条规则并局部化其故障。
func applyOne(ctx context.Context, r contract.Rule, text string, m *contract.Meta, logger *diag.Logger) (out string) {
	info := r.Info()
	t0 := time.Now()
	var timer *diag.Timer
	if logger != nil {
		timer = logger.Start(info.Name, info.Phase.String())
	}
	out = text
	defer func() {
		if rec := recover(); rec != nil {
			// 规则内部故障：记录并原文透传，流水线继续。
			out = text
			if logger != nil {
				logger.Error(info.Name, string(diag.CodePanic), fmt.Sprintf("rule fault: %v", rec), &t0)
			}
			diag.IncRule(info.Name, "apply", "error")
			diag.IncError(info.Name, string(diag.CodePanic))
		}
	}()
	next, err := r.Apply(ctx, text, m)
	if err != nil {
		if logger != nil {
			code := diag.Classify(err)
			logger.Error(info.Name, string(code), err.Error(), &t0)
			diag.IncError(info.Name, string(code))
		}
		diag.IncRule(info.Name, "apply", "error")
		return text
	}
	if timer != nil {
		timer.Finish("apply", 0)
	}
	diag.IncRule(info.Name, "apply", "success")
	diag.ObserveDuration(info.Name, time.Since(t0).Milliseconds())
	return next
}
