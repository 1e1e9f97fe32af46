package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Configuration 配置接口
// 键使用 ":" 或 "." 分隔层级，例如 "redis:default:addr"。
type Configuration interface {
	// Get 获取配置值，不存在时返回空字符串
	Get(key string) string
	// GetWithDefault 获取配置值，不存在时返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// Exists 报告键是否存在
	Exists(key string) bool
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置（副本）
	GetAll() map[string]any
}

// ConfigurationBuilder 配置构建器，后添加的配置源覆盖先添加的
type ConfigurationBuilder struct {
	mu      sync.RWMutex
	sources []ConfigurationSource
}

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&JsonFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	return b.Add(&YamlFileSource{Path: path, Optional: len(optional) > 0 && optional[0]})
}

// AddFile 按扩展名添加 JSON 或 YAML 文件配置源
func (b *ConfigurationBuilder) AddFile(path string, optional ...bool) *ConfigurationBuilder {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return b.AddJsonFile(path, optional...)
	}
	return b.AddYamlFile(path, optional...)
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	return b.Add(&EtcdSource{Options: opts.withDefaults()})
}

// Sources 返回配置源快照
func (b *ConfigurationBuilder) Sources() []ConfigurationSource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ConfigurationSource, len(b.sources))
	copy(out, b.sources)
	return out
}

// Build 构建一次性加载的配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	data, err := loadSources(b.Sources())
	if err != nil {
		return nil, err
	}
	return newConfiguration(data), nil
}

// BuildReloadable 构建可重新加载的配置
func (b *ConfigurationBuilder) BuildReloadable() (*ReloadableConfiguration, error) {
	sources := b.Sources()
	data, err := loadSources(sources)
	if err != nil {
		return nil, err
	}
	return &ReloadableConfiguration{
		configuration: newConfiguration(data),
		sources:       sources,
	}, nil
}

func loadSources(sources []ConfigurationSource) (map[string]any, error) {
	data := make(map[string]any)
	for _, source := range sources {
		part, err := source.Load()
		if err != nil {
			return nil, errors.Wrapf(err, "config: load source %s", source.Name())
		}
		mergeMaps(data, part)
	}
	return data, nil
}

// configuration 配置实现，数据整体替换，读取无锁
type configuration struct {
	data atomic.Pointer[map[string]any]
}

func newConfiguration(data map[string]any) *configuration {
	c := &configuration{}
	c.store(data)
	return c
}

func (c *configuration) load() map[string]any {
	if p := c.data.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *configuration) store(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	c.data.Store(&data)
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	switch v := c.lookup(key).(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	switch v := c.lookup(key).(type) {
	case nil:
		return 0, errors.Errorf("config: key %s not found", key)
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		return n, errors.Wrapf(err, "config: key %s", key)
	default:
		return 0, errors.Errorf("config: cannot convert %v to int", v)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	switch v := c.lookup(key).(type) {
	case nil:
		return false, errors.Errorf("config: key %s not found", key)
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		return b, errors.Wrapf(err, "config: key %s", key)
	default:
		return false, errors.Errorf("config: cannot convert %v to bool", v)
	}
}

// Exists 报告键是否存在
func (c *configuration) Exists(key string) bool {
	return c.lookup(key) != nil
}

// GetSection 获取配置节，不存在或不是对象时返回空配置
func (c *configuration) GetSection(key string) Configuration {
	m, _ := c.lookup(key).(map[string]any)
	cp := make(map[string]any, len(m))
	mergeMaps(cp, m)
	return newConfiguration(cp)
}

// Bind 绑定配置到结构体，key 为空时绑定全部配置
func (c *configuration) Bind(key string, target any) error {
	data := c.lookup(key)
	if data == nil {
		return errors.Errorf("config: key %s not found", key)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, "config: marshal %s", key)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.Wrapf(err, "config: bind %s", key)
	}
	return nil
}

// GetAll 获取所有配置
func (c *configuration) GetAll() map[string]any {
	result := make(map[string]any)
	mergeMaps(result, c.load())
	return result
}

func (c *configuration) lookup(path string) any {
	current := any(c.load())
	if path == "" {
		return current
	}
	for _, part := range segments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[part]; !ok {
			return nil
		}
	}
	return current
}

var pathCache sync.Map

// segments 拆分配置路径，结果被缓存
func segments(path string) []string {
	if v, ok := pathCache.Load(path); ok {
		return v.([]string)
	}
	parts := strings.Split(strings.ReplaceAll(path, ":", "."), ".")
	pathCache.Store(path, parts)
	return parts
}

// mergeMaps 深度合并 src 到 dst，嵌套 map 会被复制
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		if dstMap, ok := dst[k].(map[string]any); ok && srcIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			cp := make(map[string]any, len(srcMap))
			mergeMaps(cp, srcMap)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}
