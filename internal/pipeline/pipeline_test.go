package pipeline

import (
	"context"
	"strings"
	"testing"

	"spktag/internal/diag"
	"spktag/pkg/contract"
)

type stub struct {
	info  contract.RuleInfo
	apply func(ctx context.Context, text string, m *contract.Meta) (string, error)
}

func (s *stub) Info() contract.RuleInfo { return s.info }
func (s *stub) Apply(ctx context.Context, text string, m *contract.Meta) (string, error) {
	return s.apply(ctx, text, m)
}

func mark(name string, phase contract.Phase, prio int) *stub {
	return &stub{
		info: contract.RuleInfo{Phase: phase, Priority: prio, Name: name},
		apply: func(ctx context.Context, text string, m *contract.Meta) (string, error) {
			return text + name + ";", nil
		},
	}
}

// TestOrder 验证 (Phase, Priority) 稳定排序，注册序兜底。
func TestOrder(t *testing.T) {
	rules := []contract.Rule{
		mark("b", contract.PhaseRepair, 10),
		mark("a", contract.PhaseNormalize, 20),
		mark("a2", contract.PhaseNormalize, 10),
		mark("tie1", contract.PhaseAttribute, 5),
		mark("tie2", contract.PhaseAttribute, 5),
	}
	out, _, err := Run(context.Background(), "", "", rules, Settings{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "a2;a;tie1;tie2;b;" {
		t.Fatalf("执行序错误: %q", out)
	}
}

// TestFaultIsolation: 规则 panic/error 只丢弃该规则产出，原文透传。
func TestFaultIsolation(t *testing.T) {
	boom := &stub{
		info: contract.RuleInfo{Phase: contract.PhaseNormalize, Priority: 10, Name: "boom"},
		apply: func(ctx context.Context, text string, m *contract.Meta) (string, error) {
			panic("вибух")
		},
	}
	fail := &stub{
		info: contract.RuleInfo{Phase: contract.PhaseNormalize, Priority: 20, Name: "fail"},
		apply: func(ctx context.Context, text string, m *contract.Meta) (string, error) {
			return "сміття", contract.ErrInvalidInput
		},
	}
	after := mark("after", contract.PhaseReport, 10)
	logger := diag.NewStderrLogger("test", "error")
	out, _, err := Run(context.Background(), "text;", "", []contract.Rule{boom, fail, after}, Settings{}, logger)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "text;after;" {
		t.Fatalf("故障未局部化: %q", out)
	}
}

// TestCancel: ctx 取消在规则边界生效。
func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Run(ctx, "x", "", []contract.Rule{mark("a", contract.PhaseNormalize, 10)}, Settings{}, nil)
	if err == nil {
		t.Fatalf("取消未上报")
	}
}

// TestDefaults: 窗口/候选数/缺省场景的回填。
func TestDefaults(t *testing.T) {
	probe := &stub{info: contract.RuleInfo{Phase: contract.PhaseNormalize, Name: "probe"}}
	var got contract.Params
	probe.apply = func(ctx context.Context, text string, m *contract.Meta) (string, error) {
		got = m.Params
		return text, nil
	}
	if _, _, err := Run(context.Background(), "", "", []contract.Rule{probe}, Settings{}, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Window != 2 || got.Alternatives != 3 || got.DefaultScene != "document" {
		t.Fatalf("默认值错误: %+v", got)
	}
}

// TestMetaShared: 同一 Meta 贯穿全程。
func TestMetaShared(t *testing.T) {
	w := &stub{info: contract.RuleInfo{Phase: contract.PhaseNormalize, Name: "w"}}
	w.apply = func(ctx context.Context, text string, m *contract.Meta) (string, error) {
		m.Ext["k"] = "v"
		return text, nil
	}
	r := &stub{info: contract.RuleInfo{Phase: contract.PhaseReport, Name: "r"}}
	var seen string
	r.apply = func(ctx context.Context, text string, m *contract.Meta) (string, error) {
		seen = m.Ext["k"]
		return text, nil
	}
	if _, m, err := Run(context.Background(), "", "leg", []contract.Rule{w, r}, Settings{}, nil); err != nil {
		t.Fatalf("run: %v", err)
	} else if seen != "v" || m.LegendRaw != "leg" {
		t.Fatalf("Meta 未贯穿: seen=%q legend=%q", seen, m.LegendRaw)
	}
}

// TestRenderStability: 纯透传规则链不改动任何字节。
func TestRenderStability(t *testing.T) {
	pass := &stub{info: contract.RuleInfo{Phase: contract.PhaseNormalize, Name: "pass"}}
	pass.apply = func(ctx context.Context, text string, m *contract.Meta) (string, error) {
		return contract.RenderLines(contract.ParseLines(text)), nil
	}
	in := "#g2: — Привіт.\r\nбез мітки\n\n#g?: — Хто там?\n"
	out, _, err := Run(context.Background(), in, "", []contract.Rule{pass}, Settings{}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != in {
		t.Fatalf("解析→渲染不保真: %q", out)
	}
	if strings.Count(out, "\r\n") != 1 {
		t.Fatalf("行尾风格丢失")
	}
}
