package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cfgpkg "spktag/internal/config"
	"spktag/internal/diag"
	"spktag/internal/pipeline"
	"spktag/internal/textio"
	"spktag/pkg/contract"
)

var pipelineRun = pipeline.Run

// 单一动词 CLI：读文本与角色表，跑完整规则流水线，写回打签文本。
// 优先级自低到高：默认值 ← 配置文件 ← 环境变量 ← 旗标。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := genCorrID()
	logger := diag.NewLogger(corrID, "info")

	var (
		flagIn       string
		flagOut      string
		flagLegend   string
		flagLog      string
		flagConfig   string
		flagMinConf  float64
		flagMargin   float64
		flagWindow   int
		flagAlts     int
		flagOnlyUnr  bool
		flagGold     bool
	)
	flag.StringVar(&flagIn, "in", "", "input transcript path; '-' reads STDIN")
	flag.StringVar(&flagOut, "out", "", "output path; '-' writes STDOUT; empty rewrites input in place")
	flag.StringVar(&flagLegend, "legend", "", "cast legend path; empty expects the legend at the head of the input")
	flag.StringVar(&flagLog, "log", "", "decision log path (TSV); empty disables")
	flag.StringVar(&flagConfig, "config", "", "config path (JSON); default ./config.json if present")
	flag.Float64Var(&flagMinConf, "min-confidence", 0, "minimum confidence for a heuristic to commit (overrides config)")
	flag.Float64Var(&flagMargin, "min-margin", 0, "minimum best-vs-second margin (overrides config)")
	flag.IntVar(&flagWindow, "window", 0, "lead-in lookback window in lines (overrides config)")
	flag.IntVar(&flagAlts, "alternatives", 0, "alternatives recorded per decision (overrides config)")
	flag.BoolVar(&flagOnlyUnr, "only-unresolved", false, "keep existing #gN tags, attribute only #g? lines")
	flag.BoolVar(&flagGold, "gold", false, "keep #!gN gold markers in the output")
	flag.Parse()

	if flagConfig == "" {
		if s := os.Getenv("SPKTAG_CONFIG_FILE"); s != "" {
			flagConfig = s
		}
	}
	if flagConfig == "" {
		if _, err := os.Stat("config.json"); err == nil {
			flagConfig = "config.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if flagConfig != "" {
		base, err := cfgpkg.LoadJSON(flagConfig, nil)
		if err != nil {
			fprintf(os.Stderr, "config parse failed: %v\n", err)
			logger.Error("main", string(diag.Classify(err)), err.Error(), &start)
			return 3
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	cfg = cfgpkg.Merge(cfg, cfgpkg.EnvOverlay(os.Environ()))

	// CLI 覆盖：路径走 Merge（空即未给）；阈值按"旗标是否显式出现"覆盖。
	var overCLI cfgpkg.Config
	overCLI.Input = flagIn
	overCLI.Output = flagOut
	overCLI.Legend = flagLegend
	overCLI.DecisionLog = flagLog
	cfg = cfgpkg.Merge(cfg, overCLI)
	applyThresholdFlags(&cfg, flag.CommandLine, cfgpkg.Thresholds{
		MinConfidence:  flagMinConf,
		MinMargin:      flagMargin,
		Window:         flagWindow,
		Alternatives:   flagAlts,
		OnlyUnresolved: flagOnlyUnr,
	})
	if args := flag.Args(); len(args) == 1 && flagIn == "" {
		cfg.Input = args[0]
	}

	rules, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "config invalid: %v\n", err)
		logger.Error("main", string(diag.Classify(err)), err.Error(), &start)
		return 3
	}
	logger = diag.NewLogger(corrID, cfg.Logging.Level)

	ctx := context.Background()
	text, err := textio.ReadAll(ctx, cfg.Input)
	if err != nil {
		fprintf(os.Stderr, "read failed: %v\n", err)
		logger.Error("main", string(diag.CodeIO), err.Error(), &start)
		return 2
	}
	legendRaw, text, err := loadLegend(ctx, cfg.Legend, text)
	if err != nil {
		fprintf(os.Stderr, "legend read failed: %v\n", err)
		logger.Error("main", string(diag.CodeIO), err.Error(), &start)
		return 2
	}

	t := logger.Start("main", "run")
	out, meta, err := pipelineRun(ctx, text, legendRaw, rules, set, logger)
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("main", code, err.Error(), &start)
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "run failed: %v\n", err)
		}
		return 1
	}
	t.Finish("run", int64(len(meta.Decisions)))

	if !flagGold {
		lines := contract.ParseLines(out)
		contract.StripGold(lines)
		out = contract.RenderLines(lines)
	}

	dest := cfg.Output
	if dest == "" {
		dest = cfg.Input
	}
	if err := textio.WriteAll(ctx, dest, out); err != nil {
		fprintf(os.Stderr, "write failed: %v\n", err)
		logger.Error("main", string(diag.CodeIO), err.Error(), &start)
		return 2
	}

	if cfg.DecisionLog != "" {
		if err := writeDecisionLog(ctx, cfg.DecisionLog, meta.Decisions); err != nil {
			fprintf(os.Stderr, "decision log write failed: %v\n", err)
			logger.Error("main", string(diag.CodeIO), err.Error(), &start)
			return 2
		}
	}
	if cfg.Report != "" && meta.Report != nil {
		if err := writeReport(ctx, cfg.Report, meta.Report); err != nil {
			fprintf(os.Stderr, "report write failed: %v\n", err)
			logger.Error("main", string(diag.CodeIO), err.Error(), &start)
			return 2
		}
	}
	if meta.Report != nil {
		r := meta.Report
		fprintf(os.Stderr, "spktag: %d dialogue, %d resolved (%.1f%%), %d unresolved",
			r.DialogueLines, r.Resolved, 100*r.Coverage, r.Unresolved)
		if r.Accuracy != nil {
			fprintf(os.Stderr, ", accuracy %.3f on %d gold line(s)", *r.Accuracy, r.GoldLines)
		}
		fprintf(os.Stderr, "\n")
	}
	return 0
}

// applyThresholdFlags 只覆盖命令行上显式出现的阈值旗标。
// 给了零值也算给（-min-confidence 0 要能压过配置文件的 0.5），
// 所以不能复用 Merge 的"零即未设"语义。
func applyThresholdFlags(cfg *cfgpkg.Config, fs *flag.FlagSet, v cfgpkg.Thresholds) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-confidence":
			cfg.Thresholds.MinConfidence = v.MinConfidence
		case "min-margin":
			cfg.Thresholds.MinMargin = v.MinMargin
		case "window":
			cfg.Thresholds.Window = v.Window
		case "alternatives":
			cfg.Thresholds.Alternatives = v.Alternatives
		case "only-unresolved":
			cfg.Thresholds.OnlyUnresolved = v.OnlyUnresolved
		}
	})
}

// loadLegend 取角色表原文。给了路径读文件；否则从文本头部剥离
// 内嵌 legend 块（开头连续的 "#gN - …" 行，遇首个空行为止）。
func loadLegend(ctx context.Context, path, text string) (legend, rest string, err error) {
	if path != "" {
		raw, err := textio.ReadAll(ctx, path)
		if err != nil {
			return "", text, err
		}
		return raw, text, nil
	}
	lines := strings.SplitAfter(text, "\n")
	n := 0
	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if t == "" {
			break
		}
		if !strings.HasPrefix(t, "#g") || !legendLine(t) {
			break
		}
		n++
	}
	if n == 0 {
		return "", text, nil
	}
	head := strings.Join(lines[:n], "")
	return head, strings.Join(lines[n:], ""), nil
}

// legendLine: "#gN<sep>…" 而非打签行 "#gN:…"/"#g?:…"。
func legendLine(t string) bool {
	r := strings.TrimPrefix(t, "#g")
	i := 0
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(r) {
		return false
	}
	return r[i] != ':'
}

// writeDecisionLog 写 TSV 决策日志：line, decision, confidence, margin,
// alternatives, reason。
func writeDecisionLog(ctx context.Context, path string, ds []contract.Decision) error {
	var b strings.Builder
	b.WriteString("line\tdecision\tconfidence\tmargin\talternatives\treason\n")
	for _, d := range ds {
		alts := make([]string, 0, len(d.Alternatives))
		for _, a := range d.Alternatives {
			alts = append(alts, "#g"+strconv.Itoa(int(a)))
		}
		fmt.Fprintf(&b, "%d\t#g%d\t%.3f\t%.3f\t%s\t%s\n",
			d.Line, int(d.ID), d.Confidence, d.Margin, strings.Join(alts, ","), d.Reason)
	}
	return textio.WriteAll(ctx, path, b.String())
}

// writeReport 写 JSON 指标报告。
func writeReport(ctx context.Context, path string, r *contract.Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return textio.WriteAll(ctx, path, string(b)+"\n")
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
