package domain

import "sort"

// RuleType 定义排行准入规则类型
type RuleType string

const (
	RuleTypeMinAbsolute         RuleType = "MIN_ABSOLUTE"         // 绝对功耗下限 (噪音过滤)
	RuleTypeMinShare            RuleType = "MIN_SHARE"            // 四舍五入后的最小占比
	RuleTypeEstimateSuppression RuleType = "ESTIMATE_SUPPRESSION" // 估算类条目的抑制
)

// 默认阈值
const (
	DefaultMinAbsoluteMilliAmps = 5.0
	DefaultMinVisiblePercent    = 1.0
	DefaultMinScreenMilliAmps   = 10.0
	DefaultDisplayLimit         = 10
)

// RuleConfig 定义一条准入规则的配置
type RuleConfig struct {
	ID         string         `json:"id" yaml:"id" mapstructure:"id"`
	Type       RuleType       `json:"type" yaml:"type" mapstructure:"type"`
	Enabled    bool           `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Parameters map[string]any `json:"parameters" yaml:"parameters" mapstructure:"parameters"` // 例如: {"min_milliamps": 5}
	Priority   int            `json:"priority" yaml:"priority" mapstructure:"priority"`       // 越小越先执行
}

// DefaultRuleConfigs 固定顺序: 绝对阈值 -> 最小占比 -> 估算抑制
func DefaultRuleConfigs() []RuleConfig {
	return []RuleConfig{
		{
			ID:         "min-absolute",
			Type:       RuleTypeMinAbsolute,
			Enabled:    true,
			Parameters: map[string]any{"min_milliamps": DefaultMinAbsoluteMilliAmps},
			Priority:   10,
		},
		{
			ID:         "min-share",
			Type:       RuleTypeMinShare,
			Enabled:    true,
			Parameters: map[string]any{"min_percent": DefaultMinVisiblePercent},
			Priority:   20,
		},
		{
			ID:       "estimate-suppression",
			Type:     RuleTypeEstimateSuppression,
			Enabled:  true,
			Priority: 30,
		},
	}
}

// SortRuleConfigs 按优先级稳定排序, 过滤掉未启用的规则
func SortRuleConfigs(configs []RuleConfig) []RuleConfig {
	enabled := make([]RuleConfig, 0, len(configs))
	for _, c := range configs {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})
	return enabled
}
