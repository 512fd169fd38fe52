package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"spktag/pkg/contract"
)

func apply(t *testing.T, text string, m *contract.Meta) *contract.Report {
	t.Helper()
	out, err := New(nil).Apply(context.Background(), text, m)
	require.NoError(t, err)
	require.Equal(t, text, out, "报告规则不得改动文本")
	require.NotNil(t, m.Report)
	return m.Report
}

// TestNoGold: 无金标时 accuracy/micro/macro 为 nil，覆盖率照常填报。
func TestNoGold(t *testing.T) {
	m := contract.NewMeta(contract.Params{})
	text := "#g2: — Раз.\n#g?: — Два.\n#g1: Оповідь.\nбез мітки\n#g3: — Три.\n"
	r := apply(t, text, m)
	require.Equal(t, 5, r.TotalLines)
	require.Equal(t, 3, r.DialogueLines)
	require.Equal(t, 2, r.Resolved)
	require.Equal(t, 1, r.Unresolved)
	require.InDelta(t, 2.0/3.0, r.Coverage, 1e-9)
	require.Equal(t, 0, r.GoldLines)
	require.Nil(t, r.Accuracy)
	require.Nil(t, r.MicroF1)
	require.Nil(t, r.MacroF1)
}

// TestGoldEval: 金标评估——准确率、逐角色 P/R/F1、混淆矩阵。
func TestGoldEval(t *testing.T) {
	m := contract.NewMeta(contract.Params{})
	text := "#g2:#!g2 — вірно.\n" + // 2→2 правильно
		"#g3:#!g2 — плутанина.\n" + // 2→3 помилка
		"#g3:#!g3 — вірно.\n" + // 3→3 правильно
		"#g?:#!g3 — не розвʼязано.\n" // 3→∅
	r := apply(t, text, m)
	require.Equal(t, 4, r.GoldLines)
	require.NotNil(t, r.Accuracy)
	require.InDelta(t, 0.5, *r.Accuracy, 1e-9)

	require.Len(t, r.PerCharacter, 2)
	// #g2: tp=1 fn=1 fp=0 → P=1, R=0.5
	c2 := r.PerCharacter[0]
	require.Equal(t, contract.CharacterID(2), c2.ID)
	require.InDelta(t, 1.0, c2.Precision, 1e-9)
	require.InDelta(t, 0.5, c2.Recall, 1e-9)
	// #g3: tp=1 fn=1 fp=1 → P=0.5, R=0.5
	c3 := r.PerCharacter[1]
	require.InDelta(t, 0.5, c3.Precision, 1e-9)
	require.InDelta(t, 0.5, c3.Recall, 1e-9)

	require.Equal(t, 1, r.Confusion[2][3])
	require.Equal(t, 1, r.Confusion[3][0])
	require.NotNil(t, r.MicroF1)
	require.NotNil(t, r.MacroF1)
}

// TestPerScene 验证分场景覆盖。
func TestPerScene(t *testing.T) {
	m := contract.NewMeta(contract.Params{})
	m.Scenes = []contract.Scene{{Label: "Пролог", Start: 0, End: 1}, {Label: "Розділ 1", Start: 2, End: 3}}
	m.SceneOf = []int{0, 0, 1, 1}
	text := "#g2: — Раз.\n#g?: — Два.\n#g3: — Три.\n#g3: — Чотири.\n"
	r := apply(t, text, m)
	require.Len(t, r.PerScene, 2)
	require.Equal(t, "Пролог", r.PerScene[0].Label)
	require.InDelta(t, 0.5, r.PerScene[0].Coverage, 1e-9)
	require.InDelta(t, 1.0, r.PerScene[1].Coverage, 1e-9)
}

// TestAliasConflictsSurfaced 验证别名冲突计数进报告。
func TestAliasConflictsSurfaced(t *testing.T) {
	m := contract.NewMeta(contract.Params{})
	m.AliasConflicts = append(m.AliasConflicts, contract.AliasConflict{Key: "олег", First: 2, Second: 4})
	r := apply(t, "#g2: — Раз.\n", m)
	require.Equal(t, 1, r.AliasConflicts)
}
