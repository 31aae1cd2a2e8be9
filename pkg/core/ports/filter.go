package ports

import "github.com/renjie/prism-power/pkg/core/domain"

// RankingContext 准入规则执行时的上下文信息
type RankingContext struct {
	Stats domain.AggregateStatistics
	// PercentOfTotal 当前记录占放电量的比例, 由排行器预先计算一次
	PercentOfTotal float64
}

// CheckResult 准入规则检查的结果
type CheckResult struct {
	Passed bool   // 是否通过检查
	RuleID string // 拒绝时触发的规则
	Reason string // 拒绝原因描述
}

// Pass is the zero-cost passing result.
func Pass() CheckResult {
	return CheckResult{Passed: true}
}

// InclusionRule 准入规则接口
// 这是一个策略接口, 具体的阈值与归类抑制逻辑由外部实现注入
type InclusionRule interface {
	// Check 检查记录是否可以进入排行
	Check(ctx RankingContext, rec domain.PowerRecord) CheckResult
}

// IdentityResolver 归属方规范化
type IdentityResolver interface {
	// Canonicalize 把原始 UID 映射为规范 UID; 纯函数且全域定义
	Canonicalize(uid int, dominantPackage string) int
}

// Coalescer 按规范归属方合并记录
type Coalescer interface {
	// Coalesce 返回按功耗降序排列的合并结果, 不修改输入
	Coalesce(records []domain.PowerRecord) []domain.PowerRecord
}

// Ranker 排行过滤器接口
type Ranker interface {
	// Rank 过滤并截断已降序排列的输入, 不重新排序
	// 返回:
	// 1. ranked: 进入排行的记录 (已写入 Percent / PercentOfMax)
	// 2. excluded: 被准入规则拒绝的记录 (包含拒绝原因)
	Rank(records []domain.PowerRecord, stats domain.AggregateStatistics, limit int) (ranked []domain.PowerRecord, excluded []domain.Exclusion)
}
