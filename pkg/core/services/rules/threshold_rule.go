package rules

import (
	"fmt"
	"math"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// MinAbsoluteRule 绝对阈值: 折算成平均电流后低于下限的视为噪音
type MinAbsoluteRule struct {
	ID           string
	MinMilliAmps float64
}

// Check 在任何相对比较之前执行
func (r *MinAbsoluteRule) Check(_ ports.RankingContext, rec domain.PowerRecord) ports.CheckResult {
	rate := rec.PowerMah * domain.SecondsPerHour
	if rate < r.MinMilliAmps {
		return ports.CheckResult{
			RuleID: r.ID,
			Reason: fmt.Sprintf("%.4f mAh (%.2f mA) below noise floor %.2f mA", rec.PowerMah, rate, r.MinMilliAmps),
		}
	}
	return ports.Pass()
}

// MinShareRule 最小可见占比
// 四舍五入 (0.5 进位) 后低于 MinPercent 的条目不展示
type MinShareRule struct {
	ID         string
	MinPercent float64
}

func (r *MinShareRule) Check(ctx ports.RankingContext, _ domain.PowerRecord) ports.CheckResult {
	rounded := math.Floor(ctx.PercentOfTotal + 0.5)
	if rounded < r.MinPercent {
		return ports.CheckResult{
			RuleID: r.ID,
			Reason: fmt.Sprintf("%.4f%% of discharge rounds to %.0f%%, below %.0f%%", ctx.PercentOfTotal, rounded, r.MinPercent),
		}
	}
	return ports.Pass()
}
