package domain

import "time"

// Exclusion 代表一条未进入排行的记录及其原因
type Exclusion struct {
	Record PowerRecord `json:"record" yaml:"record"`
	RuleID string      `json:"rule_id" yaml:"rule_id"` // 触发的规则ID
	Reason string      `json:"reason" yaml:"reason"`   // e.g. "0.31% of discharge rounds below 1%"
}

// UsageSummary 一次刷新的输出快照, 交给展示层消费
type UsageSummary struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	StatsType   StatsType           `json:"stats_type" yaml:"stats_type"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Stats       AggregateStatistics `json:"stats" yaml:"stats"`

	Coalesced []PowerRecord `json:"coalesced" yaml:"coalesced"`
	Ranked    []PowerRecord `json:"ranked" yaml:"ranked"`
	Excluded  []Exclusion   `json:"excluded,omitempty" yaml:"excluded,omitempty"`

	// NotAvailable 为 true 时展示层应显示 "暂无数据" 占位
	NotAvailable bool `json:"not_available" yaml:"not_available"`
}
