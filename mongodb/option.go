// Package mongodb 把 mongo-driver 客户端注册进运行时的容器
//
// 每个客户端注册为 "mongodb:<name>"（*Client），名为 default 的客户端同时以 *mongo.Client 注册，
// 配置了 Database 时还以 *mongo.Database 注册。客户端在注册表关闭时断开。
package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Kind 客户端种类
const Kind = "mongodb"

// ClientsToken 全部 MongoDB 客户端
var ClientsToken = di.NewToken[*mongo.Client]("mongodb.clients")

// BuilderOption 用于配置 MongoDB Builder
type BuilderOption func(*Builder)

// WithClient 添加 MongoDB 客户端配置
func WithClient(name, uri string, opts ...func(*Options)) BuilderOption {
	return func(b *Builder) {
		b.Add(name, uri, func(o *Options) {
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

// New 启用 MongoDB 能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}
		configs, err := builder.Build(config.FromRuntime(rt))
		if err != nil {
			return err
		}

		for _, o := range configs {
			err := rt.ProvideClient(core.NamedClient{
				Kind:    Kind,
				Name:    o.Name,
				Type:    di.TypeOf[*mongo.Client](),
				Members: ClientsToken,
				Lazy:    o.Lazy,
				Connect: func(ctx context.Context) (any, error) { return Connect(ctx, o) },
				Unwrap:  func(v any) any { return v.(*Client).Client },
			})
			if err != nil {
				return err
			}
			if o.Name != core.DefaultClientName || o.Database == "" {
				continue
			}
			id := ClientID(o.Name)
			err = rt.Container.Set(di.ServiceOptions{
				ID:    di.TypeOf[*mongo.Database](),
				Scope: di.ScopeTransient,
				Factory: func(c *di.Container, _ any) (any, error) {
					v, err := c.Get(id)
					if err != nil {
						return nil, err
					}
					return v.(*Client).DB(), nil
				},
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}
