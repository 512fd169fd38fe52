package repair

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"spktag/pkg/contract"
)

func looseMeta(n int) *contract.Meta {
	m := contract.NewMeta(contract.Params{})
	m.LooseBlocks = []contract.DialogueBlock{{Start: 0, End: n - 1}}
	m.LooseBlockOf = make([]int, n)
	return m
}

func apply(t *testing.T, r contract.Rule, text string, m *contract.Meta) []contract.Line {
	t.Helper()
	out, err := r.Apply(context.Background(), text, m)
	require.NoError(t, err)
	return contract.ParseLines(out)
}

// TestSandwich: A,B,?,B → X=A。
func TestSandwich(t *testing.T) {
	text := "#g2: — Раз.\n#g3: — Два.\n#g?: — Три.\n#g3: — Чотири.\n"
	m := looseMeta(4)
	lines := apply(t, NewSandwich(), text, m)
	require.Equal(t, contract.Resolved(2), lines[2].Tag)
	require.Equal(t, "sandwich", m.Decisions[0].Reason)
}

// TestSandwichNeedsDistinctPair: A==B 的三明治不成立。
func TestSandwichNeedsDistinctPair(t *testing.T) {
	text := "#g3: — Раз.\n#g3: — Два.\n#g?: — Три.\n#g3: — Чотири.\n"
	m := looseMeta(4)
	lines := apply(t, NewSandwich(), text, m)
	require.True(t, lines[2].Tag.IsUnresolved())
}

// TestAlternationRestore: 完整 ABAB 序列挖掉一个标签，轮替修复还原。
func TestAlternationRestore(t *testing.T) {
	full := []contract.CharacterID{2, 3, 2, 3, 2, 3, 2, 3}
	for hole := 0; hole < len(full); hole++ {
		var b strings.Builder
		for i, id := range full {
			if i == hole {
				b.WriteString("#g?: — Репліка.\n")
			} else {
				b.WriteString("#g" + string(rune('0'+int(id))) + ": — Репліка.\n")
			}
		}
		m := looseMeta(len(full))
		lines := apply(t, NewAlternation(), b.String(), m)
		require.Equal(t, contract.Resolved(full[hole]), lines[hole].Tag, "hole=%d", hole)
	}
}

// TestAlternationNeedsDominantPair: 三人均分的块不触发轮替。
func TestAlternationNeedsDominantPair(t *testing.T) {
	text := "#g2: — Раз.\n#g3: — Два.\n#g4: — Три.\n#g2: — Чотири.\n#g3: — Пять.\n#g4: — Шість.\n#g?: — Сім.\n"
	m := looseMeta(7)
	lines := apply(t, NewAlternation(), text, m)
	require.True(t, lines[6].Tag.IsUnresolved())
}

// TestAlternationRespectsInlineNames: 带行内点名的行轮替不触碰。
func TestAlternationRespectsInlineNames(t *testing.T) {
	text := "#g2: — Раз.\n#g3: — Два.\n#g?: — Три.\n#g3: — Чотири.\n#g2: — Пʼять.\n"
	m := looseMeta(5)
	m.InlineNames[2] = 9
	lines := apply(t, NewAlternation(), text, m)
	require.True(t, lines[2].Tag.IsUnresolved())
}

// TestGapFill: 两侧同说话人 + 问号护栏 → 最近的他者。
func TestGapFill(t *testing.T) {
	text := "#g3: — Питання?\n#g2: — Відповідь.\n#g?: — А ти хто?\n#g2: — Я.\n"
	m := looseMeta(4)
	lines := apply(t, NewGapFill(), text, m)
	require.Equal(t, contract.Resolved(3), lines[2].Tag)
}

// TestGapFillNeedsGuard: 无问号/第二人称护栏不动。
func TestGapFillNeedsGuard(t *testing.T) {
	text := "#g3: — Раз.\n#g2: — Два.\n#g?: — Мовчанка без питання.\n#g2: — Три.\n"
	m := looseMeta(4)
	lines := apply(t, NewGapFill(), text, m)
	require.True(t, lines[2].Tag.IsUnresolved())
}

// TestRestoreInline: 行内点名被覆写后按 Meta.InlineNames 还原。
func TestRestoreInline(t *testing.T) {
	text := "#g2: — Так. — сказала Олена.\n"
	m := looseMeta(1)
	m.InlineNames[0] = 3
	lines := apply(t, NewRestoreInline(), text, m)
	require.Equal(t, contract.Resolved(3), lines[0].Tag)
	require.Equal(t, "inline-restore", m.Decisions[0].Reason)
}

// TestRepairSkipsSuppressed: 被压制的行任何修复不填。
func TestRepairSkipsSuppressed(t *testing.T) {
	text := "#g2: — Раз.\n#g3: — Два.\n#g?: — Три.\n#g3: — Чотири.\n"
	m := looseMeta(4)
	m.Suppressed[2] = true
	lines := apply(t, NewSandwich(), text, m)
	require.True(t, lines[2].Tag.IsUnresolved())
	lines = apply(t, NewAlternation(), text, m)
	require.True(t, lines[2].Tag.IsUnresolved())
}
