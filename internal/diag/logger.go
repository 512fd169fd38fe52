package diag

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Logger 为最小结构化日志器：单行 JSON 输出；支持级别。
// sink 为 nil 时后备写 stderr。
type Logger struct {
	corrID string
	level  Level
	sink   *RotatingFile
	mu     sync.Mutex
}

// NewLogger 通过配置的 level 初始化，日志写入 logs/ 下的轮转文件。
func NewLogger(corrID, level string) *Logger {
	lvl := parseLevel(strings.TrimSpace(level))
	sink := NewRotatingFile("logs", 0)
	return &Logger{corrID: corrID, level: lvl, sink: sink}
}

// NewStderrLogger 仅写 stderr（测试与无日志目录场景）。
func NewStderrLogger(corrID, level string) *Logger {
	return &Logger{corrID: corrID, level: parseLevel(strings.TrimSpace(level))}
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Event 为标准事件结构。
type Event struct {
	Level  string            `json:"level"`
	TS     string            `json:"ts"`
	CorrID string            `json:"corr_id"`
	Rule   string            `json:"rule"`
	Stage  string            `json:"stage"` // start|finish|error|note
	Code   string            `json:"code,omitempty"`
	DurMS  int64             `json:"dur_ms,omitempty"`
	Count  int64             `json:"count,omitempty"`
	Line   int               `json:"line,omitempty"`
	Msg    string            `json:"msg"`
	KV     map[string]string `json:"kv,omitempty"`
}

// log 以最小开销写出事件，遵循级别。
func (l *Logger) log(lv Level, ev Event) {
	if l == nil || lv < l.level {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		_, _ = os.Stderr.Write(append(b, '\n'))
		return
	}
	if err := l.sink.WriteLine(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// Start 记录 rule 的 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(rule, msg string) *Timer {
	l.log(Info, Event{Rule: rule, Stage: "start", Msg: msg})
	return &Timer{l: l, rule: rule, t0: time.Now()}
}

// Note 记录规则过程事件（行级信号、压制、决策等）。
func (l *Logger) Note(level Level, rule, msg string, line int) {
	l.log(level, Event{Rule: rule, Stage: "note", Line: line, Msg: msg})
}

// Warnf 记录 warn 事件（角色表坏行等非致命问题）。
func (l *Logger) Warnf(rule, format string, args ...any) {
	l.log(Warn, Event{Rule: rule, Stage: "note", Msg: fmt.Sprintf(format, args...)})
}

// Error 记录 error 事件（不采样）。
func (l *Logger) Error(rule, code, msg string, durSince *time.Time) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Rule: rule, Stage: "error", Code: code, DurMS: dur, Msg: msg})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	rule string
	t0   time.Time
}

// Finish 记录 finish；count 为规则改动的行数。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Rule: t.rule, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, Msg: msg})
}
