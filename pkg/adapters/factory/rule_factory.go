package factory

import (
	"fmt"
	"sync"

	"github.com/renjie/prism-power/pkg/core/domain"
	"github.com/renjie/prism-power/pkg/core/ports"
	"github.com/renjie/prism-power/pkg/core/services/rules"
)

// RuleBuilder defines the contract for creating a specific inclusion rule
type RuleBuilder func(id string, params map[string]any) (ports.InclusionRule, error)

// RuleFactory is the registry for all available rule types
type RuleFactory struct {
	builders map[domain.RuleType]RuleBuilder
	mu       sync.RWMutex
}

var (
	instance *RuleFactory
	once     sync.Once
)

// GetRuleFactory returns the singleton instance
func GetRuleFactory() *RuleFactory {
	once.Do(func() {
		instance = NewRuleFactory()
	})
	return instance
}

// NewRuleFactory creates a new RuleFactory instance with built-in rules registered.
// Tests use it to get isolated registries.
func NewRuleFactory() *RuleFactory {
	f := &RuleFactory{
		builders: make(map[domain.RuleType]RuleBuilder),
	}
	f.Register(domain.RuleTypeMinAbsolute, buildMinAbsoluteRule)
	f.Register(domain.RuleTypeMinShare, buildMinShareRule)
	f.Register(domain.RuleTypeEstimateSuppression, buildEstimateSuppressionRule)
	return f
}

// Register adds or overrides a rule builder
func (f *RuleFactory) Register(ruleType domain.RuleType, builder RuleBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[ruleType] = builder
}

// CreateRule instantiates a rule strategy based on configuration
func (f *RuleFactory) CreateRule(rule domain.RuleConfig) (ports.InclusionRule, error) {
	f.mu.RLock()
	builder, ok := f.builders[rule.Type]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRuleType, rule.Type)
	}
	id := rule.ID
	if id == "" {
		id = string(rule.Type)
	}
	return builder(id, rule.Parameters)
}

func buildMinAbsoluteRule(id string, params map[string]any) (ports.InclusionRule, error) {
	threshold, err := floatParam(params, "min_milliamps", domain.DefaultMinAbsoluteMilliAmps)
	if err != nil {
		return nil, err
	}
	return &rules.MinAbsoluteRule{ID: id, MinMilliAmps: threshold}, nil
}

func buildMinShareRule(id string, params map[string]any) (ports.InclusionRule, error) {
	threshold, err := floatParam(params, "min_percent", domain.DefaultMinVisiblePercent)
	if err != nil {
		return nil, err
	}
	return &rules.MinShareRule{ID: id, MinPercent: threshold}, nil
}

func buildEstimateSuppressionRule(id string, _ map[string]any) (ports.InclusionRule, error) {
	return &rules.EstimateSuppressionRule{ID: id}, nil
}

// floatParam reads an optional numeric parameter.
// JSON gives float64, YAML/viper may give int.
func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", domain.ErrInvalidRuleParams, key, v)
	}
}
