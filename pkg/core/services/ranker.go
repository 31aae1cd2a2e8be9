package services

import (
	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
	"github.com/renjie/prism-power/pkg/core/services/rules"
)

// ChainRanker 基于责任链模式的排行过滤器实现
type ChainRanker struct {
	rules []ports.InclusionRule
}

// NewRanker 创建基于规则链的排行器, 规则按传入顺序执行
func NewRanker(chain ...ports.InclusionRule) *ChainRanker {
	return &ChainRanker{rules: chain}
}

// NewDefaultRanker 默认规则链: 绝对阈值 -> 最小占比 -> 估算抑制
func NewDefaultRanker() *ChainRanker {
	return NewRanker(
		&rules.MinAbsoluteRule{ID: "min-absolute", MinMilliAmps: domain.DefaultMinAbsoluteMilliAmps},
		&rules.MinShareRule{ID: "min-share", MinPercent: domain.DefaultMinVisiblePercent},
		&rules.EstimateSuppressionRule{ID: "estimate-suppression"},
	)
}

// Rank 实现 ports.Ranker 接口
// 输入必须已按功耗降序排列; 这里只过滤和截断
func (r *ChainRanker) Rank(records []domain.PowerRecord, stats domain.AggregateStatistics, limit int) ([]domain.PowerRecord, []domain.Exclusion) {
	if limit <= 0 || len(records) == 0 {
		return nil, nil
	}

	var ranked []domain.PowerRecord
	var excluded []domain.Exclusion

	for _, rec := range records {
		if len(ranked) >= limit {
			break
		}

		rankCtx := ports.RankingContext{
			Stats:          stats,
			PercentOfTotal: stats.PercentOfTotal(rec.PowerMah),
		}

		// 执行规则链, 第一条拒绝即停止
		result := ports.Pass()
		for _, rule := range r.rules {
			if result = rule.Check(rankCtx, rec); !result.Passed {
				break
			}
		}

		if !result.Passed {
			excluded = append(excluded, domain.Exclusion{
				Record: rec.Clone(),
				RuleID: result.RuleID,
				Reason: result.Reason,
			})
			continue
		}

		kept := rec.Clone()
		kept.Percent = rankCtx.PercentOfTotal
		kept.PercentOfMax = stats.PercentOfMax(rec.PowerMah)
		ranked = append(ranked, kept)
	}
	return ranked, excluded
}
