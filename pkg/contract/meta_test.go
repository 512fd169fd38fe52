package contract

import "testing"

// TestVoteBagTop 验证最高票/次高票与平票确定性（取较小 ID）。
func TestVoteBagTop(t *testing.T) {
	v := VoteBag{}
	if b, bw, sw := v.Top(); b != 0 || bw != 0 || sw != 0 {
		t.Fatalf("空袋应返回零值: %v %v %v", b, bw, sw)
	}
	v.Add(3, 2)
	v.Add(5, 3)
	v.Add(2, 1)
	b, bw, sw := v.Top()
	if b != 5 || bw != 3 || sw != 2 {
		t.Fatalf("top=%v/%v/%v, 期望 5/3/2", b, bw, sw)
	}
	// 平票：2 与 5 同票，取较小 ID。
	v.Add(2, 2)
	if b, _, _ = v.Top(); b != 2 {
		t.Fatalf("平票应取较小 ID, got %v", b)
	}
}

// TestBind 验证别名冲突只记录不裁决，先到者保留。
func TestBind(t *testing.T) {
	m := NewMeta(Params{})
	m.Bind("олена", 2)
	m.Bind("олена", 3)
	if m.AliasIndex["олена"] != 2 {
		t.Fatalf("先到绑定被覆盖")
	}
	if len(m.AliasConflicts) != 1 || m.AliasConflicts[0].Second != 3 {
		t.Fatalf("冲突未记录: %+v", m.AliasConflicts)
	}
	m.Bind("олена", 2) // 同 ID 重复不算冲突
	if len(m.AliasConflicts) != 1 {
		t.Fatalf("同 ID 重绑不应记冲突")
	}
}

// TestAllowedAt 验证场景约束门。
func TestAllowedAt(t *testing.T) {
	m := NewMeta(Params{})
	m.Scenes = []Scene{{Label: "Prologue", Start: 0, End: 1}, {Label: "Chapter 1", Start: 2, End: 5}}
	m.SceneOf = []int{0, 0, 1, 1, 1, 1}
	m.Constraints[2] = Constraint{Forbidden: []string{"Prologue"}}
	m.Constraints[3] = Constraint{Allowed: []string{"Chapter 1"}}

	if m.AllowedAt(2, 0) {
		t.Fatalf("forbid 命中应拒绝")
	}
	if !m.AllowedAt(2, 3) {
		t.Fatalf("forbid 未命中应放行")
	}
	if m.AllowedAt(3, 0) {
		t.Fatalf("allow 非空且不含当前场景应拒绝")
	}
	if !m.AllowedAt(3, 3) {
		t.Fatalf("allow 含当前场景应放行")
	}
	if !m.AllowedAt(9, 0) {
		t.Fatalf("无约束角色应放行")
	}
}

// TestGenderAgrees: 未知性别永不构成冲突。
func TestGenderAgrees(t *testing.T) {
	if !GenderUnknown.Agrees(GenderFemale) || !GenderMale.Agrees(GenderUnknown) {
		t.Fatalf("未知性别不得构成冲突")
	}
	if GenderMale.Agrees(GenderFemale) {
		t.Fatalf("显式相异应冲突")
	}
}
