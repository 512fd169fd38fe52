package legend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"spktag/pkg/contract"
)

func build(t *testing.T, raw string) *contract.Meta {
	t.Helper()
	m := contract.NewMeta(contract.Params{})
	m.LegendRaw = raw
	_, err := New(nil).Apply(context.Background(), "", m)
	require.NoError(t, err)
	return m
}

// TestPlainForm 验证行式角色表：名字/别名、性别标记、约束标记、角色描述。
func TestPlainForm(t *testing.T) {
	m := build(t, `
#g1 - Оповідач
#g2 - Олег/Олежик (ч, хлопчик, протагоніст)
#g3 - Мама (ж, мати Олега, forbid:Пролог)
// коментар пропускається
#g4 - Дідусь (ч, allow:Розділ 1)
`)
	require.Len(t, m.Legend, 4)
	e := m.Legend[2]
	require.Equal(t, []string{"Олег", "Олежик"}, e.Names)
	require.Equal(t, contract.GenderMale, e.Gender)
	require.Contains(t, e.Roles, "хлопчик")

	require.Equal(t, contract.CharacterID(2), m.AliasIndex["олег"])
	require.Equal(t, contract.CharacterID(2), m.AliasIndex["олежик"])
	// 亲属称呼派生形进了别名索引。
	require.Equal(t, contract.CharacterID(3), m.AliasIndex["мамо"])
	require.Equal(t, contract.CharacterID(4), m.AliasIndex["дідусю"])

	require.Equal(t, []string{"Пролог"}, m.Constraints[3].Forbidden)
	require.Equal(t, []string{"Розділ 1"}, m.Constraints[4].Allowed)
}

// TestYAMLForm 验证结构化角色表。
func TestYAMLForm(t *testing.T) {
	m := build(t, `
characters:
  - id: 2
    name: Oleh
    aliases: [Olezhyk]
    gender: m
    roles: [boy, protagonist]
  - id: 3
    name: Mama
    gender: f
    roles: ["mother of Oleh"]
    forbid: [Prologue]
`)
	require.Len(t, m.Legend, 2)
	require.Equal(t, contract.GenderMale, m.Legend[2].Gender)
	require.Equal(t, contract.CharacterID(2), m.AliasIndex["olezhyk"])
	require.Equal(t, []string{"Prologue"}, m.Constraints[3].Forbidden)
}

// TestProtagonistScoring: 主角标记 +1、孩子角色 +2、亲属 child 侧 +2。
func TestProtagonistScoring(t *testing.T) {
	m := build(t, `
#g2 - Олег (ч, хлопчик, протагоніст)
#g3 - Мама (ж, мати Олега)
#g4 - Тарас (ч, протагоніст)
`)
	// Олег: 1 + 2 (хлопчик) + 2 (мати Олега 的 child 侧) = 5 > Тарас 1。
	require.Equal(t, contract.CharacterID(2), m.FirstPerson)
}

// TestNoProtagonist: 无主角标记不设第一人称 ID。
func TestNoProtagonist(t *testing.T) {
	m := build(t, "#g2 - Олег (ч)\n#g3 - Мама (ж)\n")
	require.Equal(t, contract.CharacterID(0), m.FirstPerson)
}

// TestInnerVoice 验证内心独白角色识别。
func TestInnerVoice(t *testing.T) {
	m := build(t, "#g5 - Голос (внутрішній голос)\n")
	require.Equal(t, contract.CharacterID(5), m.InnerVoice)
}

// TestAliasConflict: 同键不同 ID 只记录，先到者保留。
func TestAliasConflict(t *testing.T) {
	m := build(t, "#g2 - Олег\n#g3 - Олег\n")
	require.Equal(t, contract.CharacterID(2), m.AliasIndex["олег"])
	require.Len(t, m.AliasConflicts, 1)
}

// TestBadLinesSkipped: 坏行跳过，不致命。
func TestBadLinesSkipped(t *testing.T) {
	m := build(t, "#g2 - Олег\nмотлох без форми\n#g3 - Мама\n")
	require.Len(t, m.Legend, 2)
}

// TestEmptyLegend: 空表不报错，仅告警。
func TestEmptyLegend(t *testing.T) {
	m := build(t, "")
	require.Empty(t, m.Legend)
}
