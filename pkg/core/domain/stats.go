package domain

import "strings"

// SecondsPerHour 将 mAh 换算为平均电流阈值时使用
const SecondsPerHour = 60 * 60

// AggregateStatistics 由外部统计方提供的只读聚合数据
type AggregateStatistics struct {
	TotalPower      float64 `json:"total_power" yaml:"total_power"`           // 全部记录的总消耗
	MaxRealPower    float64 `json:"max_real_power" yaml:"max_real_power"`     // 非估算记录中的最大值
	MaxPower        float64 `json:"max_power" yaml:"max_power"`               // 全部记录中的最大值
	DischargeAmount float64 `json:"discharge_amount" yaml:"discharge_amount"` // 周期内放电量 (百分点)
	RestrictedBuild bool    `json:"restricted_build" yaml:"restricted_build"` // 正式版本 (user/userdebug)

	// DischargeAmounts 按统计口径区分的放电量, 缺省时使用 DischargeAmount
	DischargeAmounts map[StatsType]float64 `json:"discharge_amounts,omitempty" yaml:"discharge_amounts,omitempty"`
}

// ForStatsType 返回按口径选定放电量后的副本; 键名大小写不敏感
func (s AggregateStatistics) ForStatsType(t StatsType) AggregateStatistics {
	for key, amount := range s.DischargeAmounts {
		if parsed, err := ParseStatsType(string(key)); err == nil && parsed == t {
			s.DischargeAmount = amount
			break
		}
	}
	return s
}

// PercentOfTotal 记录占本次放电量的比例; TotalPower 为 0 时恒为 0
func (s AggregateStatistics) PercentOfTotal(powerMah float64) float64 {
	if s.TotalPower <= 0 {
		return 0
	}
	return (powerMah / s.TotalPower) * s.DischargeAmount
}

// PercentOfMax 相对最大条目的比例
func (s AggregateStatistics) PercentOfMax(powerMah float64) float64 {
	if s.MaxPower <= 0 {
		return 0
	}
	return (powerMah * 100) / s.MaxPower
}

// DeriveStatistics 数据源没有提供聚合数据时, 从记录本身推算
func DeriveStatistics(records []PowerRecord, dischargeAmount float64, restricted bool) AggregateStatistics {
	stats := AggregateStatistics{
		DischargeAmount: dischargeAmount,
		RestrictedBuild: restricted,
	}
	for _, r := range records {
		stats.TotalPower += r.PowerMah
		if r.PowerMah > stats.MaxPower {
			stats.MaxPower = r.PowerMah
		}
		if !r.Drain.IsEstimate() && r.PowerMah > stats.MaxRealPower {
			stats.MaxRealPower = r.PowerMah
		}
	}
	return stats
}

// IsRestrictedBuild 诊断类条目在这些构建类型下对用户隐藏
func IsRestrictedBuild(buildType string) bool {
	switch strings.ToLower(strings.TrimSpace(buildType)) {
	case "user", "userdebug":
		return true
	default:
		return false
	}
}

// PowerProfile 设备功耗模型中与排行相关的部分
type PowerProfile struct {
	ScreenFullMilliAmps float64 `json:"screen_full_milliamps" yaml:"screen_full_milliamps"`
}

// Snapshot 一个刷新周期的不可变输入
type Snapshot struct {
	Records []PowerRecord       `json:"records" yaml:"records"`
	Stats   AggregateStatistics `json:"stats" yaml:"stats"`
	Profile *PowerProfile       `json:"profile,omitempty" yaml:"profile,omitempty"` // nil 表示未知, 不做屏幕功耗门限检查
}
