// Package etcd 把 etcd v3 客户端注册进运行时的容器
//
// 每个客户端注册为 "etcd:<name>"，名为 default 的客户端同时以 *clientv3.Client 注册，
// 全部客户端可以通过 ClientsToken 取得。客户端在注册表关闭时关闭。
package etcd

import (
	"context"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
)

// Kind 客户端种类
const Kind = "etcd"

// ClientsToken 全部 etcd 客户端
var ClientsToken = di.NewToken[*clientv3.Client]("etcd.clients")

// BuilderOption 用于配置 etcd Builder
type BuilderOption func(*Builder)

// WithClient 添加 etcd 客户端配置
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

// New 启用 etcd 能力
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
				Type:    di.TypeOf[*clientv3.Client](),
				Members: ClientsToken,
				Lazy:    o.Lazy,
				Connect: func(ctx context.Context) (any, error) { return Connect(ctx, o) },
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// Connect 按配置创建客户端
func Connect(ctx context.Context, o ClientOptions) (*clientv3.Client, error) {
	client, err := clientv3.New(o.config())
	if err != nil {
		return nil, errors.Wrap(err, "etcd: create client")
	}
	if !o.Ping {
		return client, nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.DialTimeout)
	defer cancel()
	if _, err := client.Status(ctx, o.Endpoints[0]); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "etcd: status %s", o.Endpoints[0])
	}
	return client, nil
}
