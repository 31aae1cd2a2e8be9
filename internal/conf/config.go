package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/renjie/prism-power/pkg/core/domain"
)

// EnvPrefix 环境变量前缀, 例如 PRISM_RANKING_LIMIT=5
const EnvPrefix = "PRISM"

// Config 应用配置
type Config struct {
	Ranking       RankingConfig       `mapstructure:"ranking"`
	Build         BuildConfig         `mapstructure:"build"`
	Stats         StatsConfig         `mapstructure:"stats"`
	Input         InputConfig         `mapstructure:"input"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// RankingConfig 排行配置
type RankingConfig struct {
	Limit                int                 `mapstructure:"limit"`
	MinAbsoluteMilliAmps float64             `mapstructure:"min_absolute_milliamps"`
	MinVisiblePercent    float64             `mapstructure:"min_visible_percent"`
	MinScreenMilliAmps   float64             `mapstructure:"min_screen_milliamps"`
	Rules                []domain.RuleConfig `mapstructure:"rules"` // 为空时使用内置规则链
}

// BuildConfig 构建信息
type BuildConfig struct {
	Type string `mapstructure:"type"` // user / userdebug 为受限构建
}

// StatsConfig 统计口径
type StatsConfig struct {
	Type string `mapstructure:"type"`
}

// InputConfig 快照文件配置
type InputConfig struct {
	Path            string  `mapstructure:"path"`
	Format          string  `mapstructure:"format"`
	DischargeAmount float64 `mapstructure:"discharge_amount"`
	// DischargeAmounts 按口径的放电量, 例如 {since_unplugged: 12}
	DischargeAmounts map[string]float64 `mapstructure:"discharge_amounts"`
	AllowPartial    bool    `mapstructure:"allow_partial"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	ServiceName string `mapstructure:"service_name"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MetricsAddr string `mapstructure:"metrics_addr"` // 为空时不启动 metrics 服务
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ranking.limit", domain.DefaultDisplayLimit)
	v.SetDefault("ranking.min_absolute_milliamps", domain.DefaultMinAbsoluteMilliAmps)
	v.SetDefault("ranking.min_visible_percent", domain.DefaultMinVisiblePercent)
	v.SetDefault("ranking.min_screen_milliamps", domain.DefaultMinScreenMilliAmps)
	v.SetDefault("build.type", "eng")
	v.SetDefault("stats.type", string(domain.StatsSinceCharged))
	v.SetDefault("input.path", "")
	v.SetDefault("input.format", "")
	v.SetDefault("input.discharge_amount", 100.0)
	v.SetDefault("input.allow_partial", false)
	v.SetDefault("observability.service_name", "powerrank")
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "console")
	v.SetDefault("observability.metrics_addr", "")
}

// Load 加载配置
// configPath 为空时在 ./configs 等目录查找 powerrank.yaml, 找不到则只使用默认值与环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 设置配置文件
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("powerrank")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath(".")
	}

	// 自动从环境变量读取
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate 检查配置的取值范围
func (c *Config) Validate() error {
	if c.Ranking.Limit < 0 {
		return fmt.Errorf("ranking.limit: %w: %d", domain.ErrInvalidLimit, c.Ranking.Limit)
	}
	if _, err := domain.ParseStatsType(c.Stats.Type); err != nil {
		return fmt.Errorf("stats.type: %w", err)
	}
	if len(c.Ranking.Rules) > 0 && len(domain.SortRuleConfigs(c.Ranking.Rules)) == 0 {
		return fmt.Errorf("ranking.rules: %w (set enabled: true)", domain.ErrEmptyRuleChain)
	}
	for key := range c.Input.DischargeAmounts {
		if _, err := domain.ParseStatsType(key); err != nil {
			return fmt.Errorf("input.discharge_amounts: %w", err)
		}
	}
	return nil
}

// DischargeAmounts 解析后的按口径放电量; 键已在 Validate 中校验
func (c *Config) DischargeAmounts() map[domain.StatsType]float64 {
	if len(c.Input.DischargeAmounts) == 0 {
		return nil
	}
	amounts := make(map[domain.StatsType]float64, len(c.Input.DischargeAmounts))
	for key, v := range c.Input.DischargeAmounts {
		if t, err := domain.ParseStatsType(key); err == nil {
			amounts[t] = v
		}
	}
	return amounts
}

// StatsType 解析后的统计口径
func (c *Config) StatsType() domain.StatsType {
	t, err := domain.ParseStatsType(c.Stats.Type)
	if err != nil {
		return domain.StatsSinceCharged
	}
	return t
}

// Restricted 当前构建是否隐藏诊断类条目
func (c *Config) Restricted() bool {
	return domain.IsRestrictedBuild(c.Build.Type)
}

// RuleConfigs 返回规则链配置
// 没有显式配置规则时, 使用内置规则链并套用 ranking 中的阈值
func (c *Config) RuleConfigs() []domain.RuleConfig {
	if len(c.Ranking.Rules) > 0 {
		return c.Ranking.Rules
	}
	rules := domain.DefaultRuleConfigs()
	for i := range rules {
		switch rules[i].Type {
		case domain.RuleTypeMinAbsolute:
			rules[i].Parameters["min_milliamps"] = c.Ranking.MinAbsoluteMilliAmps
		case domain.RuleTypeMinShare:
			rules[i].Parameters["min_percent"] = c.Ranking.MinVisiblePercent
		}
	}
	return rules
}
