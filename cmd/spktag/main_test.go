package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "spktag/internal/config"
	"spktag/pkg/contract"
)

// TestLegendLine 区分角色表行与打签行。
func TestLegendLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"#g2 - Олег (ч)", true},
		{"#g10\tМама (ж)", true},
		{"#g3: — Привіт.", false}, // 打签行
		{"#g?: — Хто?", false},
		{"#g2", false},
		{"#gX - сміття", false},
	}
	for _, c := range cases {
		if got := legendLine(c.line); got != c.want {
			t.Fatalf("legendLine(%q)=%v, 期望 %v", c.line, got, c.want)
		}
	}
}

// TestLoadLegendEmbedded: 文本头部的 legend 块被剥离，正文完整保留。
func TestLoadLegendEmbedded(t *testing.T) {
	text := "#g2 - Олег (ч, протагоніст)\n" +
		"#g3 - Олена (ж)\n" +
		"\n" +
		"#g?: — Привіт.\n"
	legend, rest, err := loadLegend(context.Background(), "", text)
	if err != nil {
		t.Fatalf("loadLegend: %v", err)
	}
	if !strings.Contains(legend, "Олег") || !strings.Contains(legend, "Олена") {
		t.Fatalf("legend 不完整: %q", legend)
	}
	if strings.Contains(legend, "#g?") {
		t.Fatalf("正文混入 legend: %q", legend)
	}
	if !strings.HasPrefix(rest, "\n#g?:") {
		t.Fatalf("正文错位: %q", rest)
	}
}

// TestLoadLegendAbsent: 开头即打签行 → 无内嵌 legend，原文不动。
func TestLoadLegendAbsent(t *testing.T) {
	text := "#g2: — Привіт.\n#g?: — Хто?\n"
	legend, rest, err := loadLegend(context.Background(), "", text)
	if err != nil {
		t.Fatalf("loadLegend: %v", err)
	}
	if legend != "" || rest != text {
		t.Fatalf("不应剥离: legend=%q rest=%q", legend, rest)
	}
}

// TestLoadLegendFile: 显式路径优先，正文不被剥离。
func TestLoadLegendFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legend.txt")
	if err := os.WriteFile(path, []byte("#g2 - Олег (ч)\n"), 0o644); err != nil {
		t.Fatalf("prep: %v", err)
	}
	text := "#g2 - підробка\n\n#g?: — Привіт.\n"
	legend, rest, err := loadLegend(context.Background(), path, text)
	if err != nil {
		t.Fatalf("loadLegend: %v", err)
	}
	if !strings.Contains(legend, "Олег") || rest != text {
		t.Fatalf("显式路径语义错误: legend=%q rest=%q", legend, rest)
	}
}

// TestApplyThresholdFlags: 显式给出的旗标才覆盖，显式零值也覆盖；
// 未给的旗标保留合并结果。
func TestApplyThresholdFlags(t *testing.T) {
	fs := flag.NewFlagSet("spktag", flag.ContinueOnError)
	var mc, mm float64
	var w, a int
	var only bool
	fs.Float64Var(&mc, "min-confidence", 0, "")
	fs.Float64Var(&mm, "min-margin", 0, "")
	fs.IntVar(&w, "window", 0, "")
	fs.IntVar(&a, "alternatives", 0, "")
	fs.BoolVar(&only, "only-unresolved", false, "")
	if err := fs.Parse([]string{"-min-confidence", "0", "-window", "5", "-only-unresolved=false"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := cfgpkg.Defaults()
	cfg.Thresholds.OnlyUnresolved = true // 如同配置文件已开
	applyThresholdFlags(&cfg, fs, cfgpkg.Thresholds{
		MinConfidence: mc, MinMargin: mm, Window: w, Alternatives: a, OnlyUnresolved: only,
	})

	if cfg.Thresholds.MinConfidence != 0 {
		t.Fatalf("显式 -min-confidence 0 未压过默认 0.5: %v", cfg.Thresholds.MinConfidence)
	}
	if cfg.Thresholds.Window != 5 {
		t.Fatalf("window 未覆盖: %d", cfg.Thresholds.Window)
	}
	if cfg.Thresholds.OnlyUnresolved {
		t.Fatalf("显式 -only-unresolved=false 未关掉配置值")
	}
	if cfg.Thresholds.MinMargin != 0.1 || cfg.Thresholds.Alternatives != 3 {
		t.Fatalf("未给的旗标不应覆盖: %+v", cfg.Thresholds)
	}
}

// TestWriteDecisionLog 验证 TSV 版式。
func TestWriteDecisionLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.tsv")
	ds := []contract.Decision{
		{Line: 4, ID: 3, Confidence: 0.9, Margin: 0.4, Reason: "inline-verb", Alternatives: []contract.CharacterID{2}},
		{Line: 7, ID: 2, Confidence: 0.55, Margin: 0.1, Reason: "scorer"},
	}
	if err := writeDecisionLog(context.Background(), path, ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("行数错误: %d", len(lines))
	}
	if lines[0] != "line\tdecision\tconfidence\tmargin\talternatives\treason" {
		t.Fatalf("表头错误: %q", lines[0])
	}
	if lines[1] != "4\t#g3\t0.900\t0.400\t#g2\tinline-verb" {
		t.Fatalf("数据行错误: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "\t\tscorer") {
		t.Fatalf("空候选列错误: %q", lines[2])
	}
}
