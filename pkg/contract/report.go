package contract

// Report: 指标报告。只读产物——Metrics Reporter 填充，绝不反向影响打签。
type Report struct {
	TotalLines     int             `json:"total_lines"`
	DialogueLines  int             `json:"dialogue_lines"`
	Resolved       int             `json:"resolved"`
	Unresolved     int             `json:"unresolved"`
	Coverage       float64         `json:"coverage"`
	PerScene       []SceneCoverage `json:"per_scene,omitempty"`
	AliasConflicts int             `json:"alias_conflicts"`

	// 金标评估。无金标时 Accuracy/MicroF1/MacroF1 为 null（undefined），
	// 覆盖率字段仍照常填报。
	GoldLines    int                                 `json:"gold_lines"`
	Accuracy     *float64                            `json:"accuracy"`
	MicroF1      *float64                            `json:"micro_f1"`
	MacroF1      *float64                            `json:"macro_f1"`
	PerCharacter []CharScore                         `json:"per_character,omitempty"`
	Confusion    map[CharacterID]map[CharacterID]int `json:"confusion,omitempty"`
}

// SceneCoverage: 单场景的对白解析覆盖率。
type SceneCoverage struct {
	Label    string  `json:"label"`
	Dialogue int     `json:"dialogue"`
	Resolved int     `json:"resolved"`
	Coverage float64 `json:"coverage"`
}

// CharScore: 单角色的精确率/召回率/F1。
type CharScore struct {
	ID        CharacterID `json:"id"`
	Precision float64     `json:"precision"`
	Recall    float64     `json:"recall"`
	F1        float64     `json:"f1"`
	Support   int         `json:"support"`
}
