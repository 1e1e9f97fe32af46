// Package redis 把 go-redis 客户端注册进运行时的容器
//
// 每个客户端注册为 "redis:<name>"，名为 default 的客户端同时以 *redis.Client 注册，
// 全部客户端可以通过 ClientsToken 取得。客户端在注册表关闭时关闭。
package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Kind 客户端种类
const Kind = "redis"

// ClientsToken 全部 Redis 客户端
var ClientsToken = di.NewToken[*redis.Client]("redis.clients")

// BuilderOption 用于配置 Redis Builder
type BuilderOption func(*Builder)

// WithClient 添加 Redis 客户端配置
func WithClient(name string, opts ...func(*ClientOptions)) BuilderOption {
	return func(b *Builder) {
		b.AddClient(name, func(o *ClientOptions) {
			for _, opt := range opts {
				opt(o)
			}
		})
	}
}

// FromConfig 从配置节读取客户端，需要先应用 config.New
func FromConfig(section string) BuilderOption {
	return func(b *Builder) { b.AddSection(section) }
}

// ClientID 返回客户端的服务标识
func ClientID(name string) string {
	return core.ClientID(Kind, name)
}

// New 启用 Redis 能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		clients, err := builder.Build(config.FromRuntime(rt))
		if err != nil {
			return err
		}
		for _, o := range clients {
			err := rt.ProvideClient(core.NamedClient{
				Kind:    Kind,
				Name:    o.Name,
				Type:    di.TypeOf[*redis.Client](),
				Members: ClientsToken,
				Lazy:    o.Lazy,
				Connect: func(ctx context.Context) (any, error) { return connect(ctx, o) },
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func connect(ctx context.Context, o ClientOptions) (*redis.Client, error) {
	client := redis.NewClient(o.redisOptions())
	if !o.Ping {
		return client, nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis: ping %s", o.Addr)
	}
	return client, nil
}
