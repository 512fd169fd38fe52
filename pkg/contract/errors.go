package contract

import "errors"

// 最小错误分类（哨兵）。仅用 errors.Is 判定，不做字符串匹配。
var (
	// ErrLegendInvalid: 角色表行不匹配任何已识别文法（跳过 + 告警，永不致命）。
	ErrLegendInvalid = errors.New("legend invalid")
	// ErrInvalidInput: 输入不满足前置约定。
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrConstraintConflict: 已定说话人与新发现的场景约束冲突。
	// 只在共识校验中以改签/降级收敛，绝不静默放行。
	ErrConstraintConflict = errors.New("constraint conflict")
)
