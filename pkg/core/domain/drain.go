package domain

import (
	"fmt"
	"strings"
)

// DrainType 定义功耗记录的归类 (闭合枚举)
// 新增类型时必须同时在 Suppression() 中给出抑制策略
type DrainType int

const (
	DrainIdle DrainType = iota
	DrainCell
	DrainPhone
	DrainWifi
	DrainBluetooth
	DrainFlashlight
	DrainScreen
	DrainApp
	DrainUser
	DrainUnaccounted
	DrainOvercounted
	DrainCamera
	DrainMemory

	drainTypeCount
)

var drainNames = [drainTypeCount]string{
	DrainIdle:        "IDLE",
	DrainCell:        "CELL",
	DrainPhone:       "PHONE",
	DrainWifi:        "WIFI",
	DrainBluetooth:   "BLUETOOTH",
	DrainFlashlight:  "FLASHLIGHT",
	DrainScreen:      "SCREEN",
	DrainApp:         "APP",
	DrainUser:        "USER",
	DrainUnaccounted: "UNACCOUNTED",
	DrainOvercounted: "OVERCOUNTED",
	DrainCamera:      "CAMERA",
	DrainMemory:      "MEMORY",
}

// AllDrainTypes 返回全部归类, 按枚举顺序
func AllDrainTypes() []DrainType {
	all := make([]DrainType, 0, drainTypeCount)
	for d := DrainType(0); d < drainTypeCount; d++ {
		all = append(all, d)
	}
	return all
}

// Valid reports whether d is one of the declared drain types.
func (d DrainType) Valid() bool {
	return d >= 0 && d < drainTypeCount
}

func (d DrainType) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DrainType(%d)", int(d))
	}
	return drainNames[d]
}

// ParseDrainType 解析归类名称 (大小写不敏感)
func ParseDrainType(s string) (DrainType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for d, n := range drainNames {
		if n == name {
			return DrainType(d), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDrainType, s)
}

func (d DrainType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDrainType, int(d))
	}
	return []byte(drainNames[d]), nil
}

func (d *DrainType) UnmarshalText(text []byte) error {
	parsed, err := ParseDrainType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsEstimate 估算类记录 (非真实测量), 不参与 MaxRealPower 的计算
func (d DrainType) IsEstimate() bool {
	return d == DrainOvercounted || d == DrainUnaccounted
}

// SuppressionPolicy 描述某一归类在排行中的额外抑制条件
type SuppressionPolicy struct {
	// Suppressed 为 false 时不做任何额外检查
	Suppressed bool
	// 记录功耗必须 >= MaxRealPower * RealPowerNum / RealPowerDen
	RealPowerNum float64
	RealPowerDen float64
	// 占比必须 >= MinPercent
	MinPercent float64
	// 正式版本 (user/userdebug) 下一律隐藏
	HideOnRestricted bool
}

// RealPowerFloor 返回该策略要求的最小功耗
func (p SuppressionPolicy) RealPowerFloor(maxRealPower float64) float64 {
	return maxRealPower * p.RealPowerNum / p.RealPowerDen
}

// Suppression 返回归类的抑制策略
// switch 必须覆盖全部归类; 未声明的值视为编程错误
func (d DrainType) Suppression() SuppressionPolicy {
	switch d {
	case DrainOvercounted:
		// 至少为最大真实条目的 2/3, 且占比不低于 10
		return SuppressionPolicy{Suppressed: true, RealPowerNum: 2, RealPowerDen: 3, MinPercent: 10, HideOnRestricted: true}
	case DrainUnaccounted:
		// 至少为最大真实条目的 1/2, 且占比不低于 5
		return SuppressionPolicy{Suppressed: true, RealPowerNum: 1, RealPowerDen: 2, MinPercent: 5, HideOnRestricted: true}
	case DrainIdle, DrainCell, DrainPhone, DrainWifi, DrainBluetooth, DrainFlashlight,
		DrainScreen, DrainApp, DrainUser, DrainCamera, DrainMemory:
		return SuppressionPolicy{}
	}
	panic(fmt.Sprintf("domain: no suppression policy for %s", d))
}
