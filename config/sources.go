package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// fileSource 基于文件的配置源，可被 Watch 监听
type fileSource interface {
	FilePath() string
}

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string { return fmt.Sprintf("JsonFile(%s)", s.Path) }

// FilePath 返回文件路径
func (s *JsonFileSource) FilePath() string { return s.Path }

func (s *JsonFileSource) Load() (map[string]any, error) {
	data, err := readOptional(s.Path, s.Optional)
	if err != nil || data == nil {
		return map[string]any{}, err
	}
	result := make(map[string]any)
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "config: parse JSON")
	}
	return result, nil
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string { return fmt.Sprintf("YamlFile(%s)", s.Path) }

// FilePath 返回文件路径
func (s *YamlFileSource) FilePath() string { return s.Path }

func (s *YamlFileSource) Load() (map[string]any, error) {
	data, err := readOptional(s.Path, s.Optional)
	if err != nil || data == nil {
		return map[string]any{}, err
	}
	result := make(map[string]any)
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "config: parse YAML")
	}
	return result, nil
}

func readOptional(path string, optional bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	return data, nil
}

// EnvironmentVariableSource 环境变量配置源
// APP_REDIS_ADDR 在前缀 APP_ 下映射为 redis:addr。
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, s.Prefix) {
			continue
		}
		key = strings.ToLower(strings.TrimPrefix(key, s.Prefix))
		if key == "" {
			continue
		}
		setNestedValue(result, strings.ReplaceAll(key, "_", ":"), parseScalar(value))
	}
	return result, nil
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string { return "InMemory" }

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	mergeMaps(result, s.Data)
	return result, nil
}

// EtcdOptions etcd 配置源选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时（默认 5 秒）
	DialTimeout time.Duration // 拨号超时（默认 5 秒）
}

func (o EtcdOptions) withDefaults() EtcdOptions {
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = 5 * time.Second
	}
	return o
}

// EtcdSource etcd 配置源
// 键 /app/redis/addr 在前缀 /app 下映射为 redis:addr，值依次尝试按 JSON、YAML 解析。
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string { return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints) }

func (s *EtcdSource) Load() (map[string]any, error) {
	opts := s.Options.withDefaults()
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		Username:    opts.Username,
		Password:    opts.Password,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "config: create etcd client")
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "/"
	}
	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "config: read etcd")
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(strings.TrimPrefix(string(kv.Key), opts.Prefix), "/")
		if key == "" {
			continue
		}
		setNestedValue(result, strings.ReplaceAll(key, "/", ":"), decodeValue(kv.Value))
	}
	return result, nil
}

// decodeValue 依次尝试 JSON、YAML，都失败时保留原始字符串
func decodeValue(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	if err := yaml.Unmarshal(raw, &v); err == nil && v != nil {
		return v
	}
	return string(raw)
}

// setNestedValue 按 ":" 路径写入嵌套 map
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			if _, exists := current[part]; exists {
				return
			}
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// parseScalar 将字符串转换为整数、浮点数或布尔值，都失败时保持原样
func parseScalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
