package services

import (
	"fmt"

	"github.com/renjie/prism-power/pkg/adapters/factory"
	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
)

// NewRankerFromConfigs 根据规则配置构建规则链
// 未启用的规则被跳过, 其余按 Priority 升序执行; rf 为 nil 时使用全局工厂
// 没有任何启用的规则时报错, 空规则链会让所有记录进入排行
func NewRankerFromConfigs(rf *factory.RuleFactory, configs []domain.RuleConfig) (*ChainRanker, error) {
	if rf == nil {
		rf = factory.GetRuleFactory()
	}

	enabled := domain.SortRuleConfigs(configs)
	if len(enabled) == 0 {
		return nil, fmt.Errorf("%w: %d configured", domain.ErrEmptyRuleChain, len(configs))
	}

	var chain []ports.InclusionRule
	for _, cfg := range enabled {
		rule, err := rf.CreateRule(cfg)
		if err != nil {
			// Strict mode: 配置错误直接失败
			return nil, fmt.Errorf("convert rule %s failed: %w", cfg.ID, err)
		}
		chain = append(chain, rule)
	}
	return NewRanker(chain...), nil
}
