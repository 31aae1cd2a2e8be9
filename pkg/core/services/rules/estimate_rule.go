package rules

import (
	"fmt"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// EstimateSuppressionRule 估算类条目 (overcounted / unaccounted) 的抑制
// 策略来自 DrainType.Suppression(), 其他归类直接通过
type EstimateSuppressionRule struct {
	ID string
}

func (r *EstimateSuppressionRule) Check(ctx ports.RankingContext, rec domain.PowerRecord) ports.CheckResult {
	policy := rec.Drain.Suppression()
	if !policy.Suppressed {
		return ports.Pass()
	}

	// 1. 必须接近最大的真实条目
	if floor := policy.RealPowerFloor(ctx.Stats.MaxRealPower); rec.PowerMah < floor {
		return r.reject("%s %.4f mAh below %.0f/%.0f of max real power (%.4f mAh)",
			rec.Drain, rec.PowerMah, policy.RealPowerNum, policy.RealPowerDen, floor)
	}
	// 2. 占比必须足够显著
	if ctx.PercentOfTotal < policy.MinPercent {
		return r.reject("%s %.2f%% of discharge below %.0f%%", rec.Drain, ctx.PercentOfTotal, policy.MinPercent)
	}
	// 3. 诊断条目, 正式版本不展示
	if policy.HideOnRestricted && ctx.Stats.RestrictedBuild {
		return r.reject("%s hidden on restricted builds", rec.Drain)
	}
	return ports.Pass()
}

func (r *EstimateSuppressionRule) reject(format string, args ...any) ports.CheckResult {
	return ports.CheckResult{RuleID: r.ID, Reason: fmt.Sprintf(format, args...)}
}
