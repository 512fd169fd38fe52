package contract

import (
	"strings"
	"testing"
)

// TestParseRenderRoundTrip 验证解析→渲染逐字节还原（含 CRLF 与无尾换行）。
func TestParseRenderRoundTrip(t *testing.T) {
	cases := []string{
		"#g2: — Привіт.\n#g?: — Хто там?\n",
		"#g1: Мама подивилась на нього.\r\n#g?: — Де ти був?\r\n",
		"розділ 1\n\n#g?: — Так.\nбез мітки",
		"",
		"\n\n\n",
		"  \t#g3: — відступ зберігається\n",
	}
	for _, in := range cases {
		got := RenderLines(ParseLines(in))
		if got != in {
			t.Fatalf("round trip 不保真:\nin=%q\ngot=%q", in, got)
		}
	}
}

// TestParseLineTags 验证标签文法解析。
func TestParseLineTags(t *testing.T) {
	cases := []struct {
		raw  string
		want TagState
		body string
	}{
		{"#g2: — Привіт.", Resolved(2), " — Привіт."},
		{"#g?: — Хто?", Unresolved(), " — Хто?"},
		{"#g12:x", Resolved(12), "x"},
		{"#g2 без двокрапки", TagState{}, "#g2 без двокрапки"},
		{"просто текст", TagState{}, "просто текст"},
		{"#gabc:", TagState{}, "#gabc:"},
	}
	for _, c := range cases {
		l := ParseLines(c.raw)[0]
		if l.Tag != c.want || l.Body != c.body {
			t.Fatalf("%q: tag=%+v body=%q, 期望 tag=%+v body=%q", c.raw, l.Tag, l.Body, c.want, c.body)
		}
	}
}

// TestGoldMarker 验证金标剥离、随行携带与终稿清除。
func TestGoldMarker(t *testing.T) {
	in := "#g?:#!g3 — Де ти був?\n"
	lines := ParseLines(in)
	if lines[0].Gold != 3 {
		t.Fatalf("gold=%d, 期望 3", lines[0].Gold)
	}
	if lines[0].Body != "— Де ти був?" {
		t.Fatalf("body=%q 应不含金标", lines[0].Body)
	}
	// 渲染须携带金标（规则间以文本传递）。
	mid := RenderLines(lines)
	if !strings.Contains(mid, "#!g3") {
		t.Fatalf("中间渲染丢失金标: %q", mid)
	}
	if ParseLines(mid)[0].Gold != 3 {
		t.Fatalf("金标未能穿过一轮渲染")
	}
	// 终稿清除。
	StripGold(lines)
	if out := RenderLines(lines); strings.Contains(out, "#!g") {
		t.Fatalf("StripGold 后输出仍含金标: %q", out)
	}
}

// TestIsDialogue 验证对白行判定：无标签行恒为否；各开符均接受。
func TestIsDialogue(t *testing.T) {
	if (Line{Body: "— привіт"}).IsDialogue() {
		t.Fatalf("无标签行不得算对白")
	}
	for _, body := range []string{"— так", " – так", `"так"`, "«так»", "„так“"} {
		l := Line{Tag: Unresolved(), Body: body}
		if !l.IsDialogue() {
			t.Fatalf("%q 应判定为对白", body)
		}
	}
	if (Line{Tag: Resolved(1), Body: "Мама подивилась."}).IsDialogue() {
		t.Fatalf("叙述行不得算对白")
	}
}

// TestBodyPreservation: 任意改签不得改动 body 与行尾。
func TestBodyPreservation(t *testing.T) {
	in := "#g?: — Текст із  подвійним пробілом…\r\n"
	lines := ParseLines(in)
	lines[0].Tag = Resolved(7)
	got := RenderLines(lines)
	if got != "#g7: — Текст із  подвійним пробілом…\r\n" {
		t.Fatalf("改签改动了 body/eol: %q", got)
	}
}
