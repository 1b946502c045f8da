// Package config 提供配置加载和管理功能
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "CTXREFINE_"

// Config 全局配置结构
type Config struct {
	// LLM 生成模型配置
	LLM LLMConfig `koanf:"llm"`
	// Rewriter 上下文改写器配置
	Rewriter RewriterConfig `koanf:"rewriter"`
	// Observability 可观测性配置
	Observability ObservabilityConfig `koanf:"observability"`
}

// Validate 验证全部子配置
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Rewriter.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}

// Loader 配置加载器
type Loader struct {
	k *koanf.Koanf
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		k: koanf.New("."),
	}
}

// LoadFile 从 YAML/JSON 文件加载配置
//
// 文件不存在时不报错，使用默认值。JSON 是 YAML 的子集，统一使用 YAML 解析器。
func (l *Loader) LoadFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return l.k.Load(file.Provider(path), yaml.Parser())
}

// LoadEnv 从环境变量加载配置
//
// CTXREFINE_REWRITER_BATCH_SIZE -> rewriter.batch_size
// CTXREFINE_OBSERVABILITY_TRACING_SAMPLE_RATE -> observability.tracing.sample_rate
func (l *Loader) LoadEnv(prefix string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		return envKey(strings.TrimPrefix(s, prefix))
	}), nil)
}

// nestedSections 含有二级分组的配置段
var nestedSections = map[string][]string{
	"observability": {"tracing", "logging"},
}

// envKey 将去掉前缀的环境变量名映射为 koanf 路径
func envKey(s string) string {
	s = strings.ToLower(s)
	section, rest, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	for _, group := range nestedSections[section] {
		if leaf, ok := strings.CutPrefix(rest, group+"_"); ok {
			return section + "." + group + "." + leaf
		}
	}
	return section + "." + rest
}

// Unmarshal 解析配置到结构体
func (l *Loader) Unmarshal(cfg *Config) error {
	return l.k.Unmarshal("", cfg)
}

// GetString 获取字符串配置值
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt 获取整数配置值
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool 获取布尔配置值
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// GetDuration 获取时间间隔配置值
func (l *Loader) GetDuration(key string) time.Duration {
	return l.k.Duration(key)
}

// Load 加载完整配置（文件 + 环境变量）
func Load(configPath string) (*Config, error) {
	loader := NewLoader()

	if configPath != "" {
		if err := loader.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	// 环境变量优先级更高
	if err := loader.LoadEnv(EnvPrefix); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults 应用默认配置值
func applyDefaults(cfg *Config) {
	cfg.LLM = cfg.LLM.WithDefaults()
	cfg.Rewriter = cfg.Rewriter.WithDefaults()
	cfg.Observability = cfg.Observability.WithDefaults()
}
