package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeAmount 功耗为负 (调用方的前置条件被破坏)
	ErrNegativeAmount = errors.New("negative power amount")

	// ErrInvalidAmount 功耗为 NaN 或 Inf
	ErrInvalidAmount = errors.New("invalid power amount")

	// ErrUnknownDrainType 未知的归类名称
	ErrUnknownDrainType = errors.New("unknown drain type")

	// ErrInvalidLimit 展示上限为负
	ErrInvalidLimit = errors.New("invalid display limit")

	// ErrUnsupportedFormat 输入格式不被支持
	ErrUnsupportedFormat = errors.New("unsupported input format")

	// ErrUnknownRuleType 没有注册对应的规则构造器
	ErrUnknownRuleType = errors.New("unknown rule type")

	// ErrInvalidRuleParams 规则参数缺失或类型错误
	ErrInvalidRuleParams = errors.New("invalid rule parameters")

	// ErrEmptyRuleChain 配置了规则但没有一条启用 (enabled 缺省为 false)
	ErrEmptyRuleChain = errors.New("no enabled inclusion rules")
)

// ValidateRecords 边界校验: 引擎本身不检查输入, 由调用方在进入引擎前完成
func ValidateRecords(records []PowerRecord) error {
	var errs []error
	for i, r := range records {
		switch {
		case !validAmount(r.PowerMah):
			errs = append(errs, fmt.Errorf("record %d (%s): %w: %v", i, r.Drain, ErrInvalidAmount, r.PowerMah))
		case r.PowerMah < 0:
			errs = append(errs, fmt.Errorf("record %d (%s): %w: %.4f", i, r.Drain, ErrNegativeAmount, r.PowerMah))
		}
		if !r.Drain.Valid() {
			errs = append(errs, fmt.Errorf("record %d: %w: %d", i, ErrUnknownDrainType, int(r.Drain)))
		}
	}
	return errors.Join(errs...)
}
