package diag

// 最小指标接口（无导出实现，默认 no-op）。
// - rule_total{rule,stage,result}
// - error_total{rule,code}
// - rule_duration_ms{rule}

// IncRule 累加规则执行计数（result=success|error）。
func IncRule(rule, stage, result string) {
	// 保持最小 no-op；适配层可通过替换实现导出。
}

// IncError 按分类累加错误计数。
func IncError(rule, code string) {
	// 保持最小 no-op；适配层可通过替换实现导出。
}

// ObserveDuration 记录规则耗时（毫秒）。
func ObserveDuration(rule string, durMS int64) {
	// 保持最小 no-op；适配层可通过替换实现导出。
}
