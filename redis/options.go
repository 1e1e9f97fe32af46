package redis

import (
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Name         string        `json:"name"`         // 客户端名称
	Addr         string        `json:"addr"`         // Redis 服务器地址 (host:port)
	Username     string        `json:"username"`     // 用户名（可选）
	Password     string        `json:"password"`     // 密码（可选）
	DB           int           `json:"db"`           // 数据库编号
	DialTimeout  time.Duration `json:"dialTimeout"`  // 连接超时时间
	ReadTimeout  time.Duration `json:"readTimeout"`  // 读取超时时间
	WriteTimeout time.Duration `json:"writeTimeout"` // 写入超时时间
	PoolSize     int           `json:"poolSize"`     // 连接池大小
	MinIdleConns int           `json:"minIdleConns"` // 最小空闲连接数
	MaxRetries   int           `json:"maxRetries"`   // 最大重试次数
	Ping         bool          `json:"ping"`         // 创建后是否 PING 验证连接
	Lazy         bool          `json:"lazy"`         // 首次解析时才创建客户端
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		Ping:         true,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return errors.New("redis: client name is required")
	}
	if o.Addr == "" {
		return errors.New("redis: address is required")
	}
	if o.DB < 0 {
		return errors.New("redis: database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return errors.New("redis: dial timeout must be positive")
	}
	return nil
}

func (o *ClientOptions) redisOptions() *redis.Options {
	return &redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		MaxRetries:   o.MaxRetries,
	}
}
