package core

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// DefaultClientName 默认客户端名称
const DefaultClientName = "default"

// ClientID 返回命名客户端的服务标识，例如 "redis:cache"
func ClientID(kind, name string) string {
	return kind + ":" + name
}

// NamedClient 描述一个按名称注册的外部客户端
type NamedClient struct {
	// Kind 客户端种类，例如 "redis"
	Kind string
	// Name 客户端名称
	Name string
	// Type default 客户端额外以该类型注册，为 nil 时跳过
	Type reflect.Type
	// Members 全部客户端共享的 multiple 标识，为 nil 时跳过
	Members any
	// Connect 创建客户端，返回值在注册表关闭时执行清理钩子
	Connect func(ctx context.Context) (any, error)
	// Unwrap 转换 Type 别名和 Members 成员返回的值，为 nil 时原样返回
	Unwrap func(v any) any
	// Lazy 为 false 时在启动钩子中提前建立连接
	Lazy bool
}

// ProvideClient 把客户端以 singleton 注册到默认容器
//
// 客户端本身注册在 ClientID(Kind, Name) 下，首次解析时才调用 Connect；
// 类型别名和 Members 成员都是 transient 转发，不会重复执行清理钩子。
func (rt *Runtime) ProvideClient(nc NamedClient) error {
	if nc.Kind == "" || nc.Name == "" || nc.Connect == nil {
		return errors.New("core: named client needs a kind, a name and a connect function")
	}
	id := ClientID(nc.Kind, nc.Name)
	logger := rt.Logger.WithCategory(nc.Kind)

	connect := nc.Connect
	err := rt.Container.Set(di.ServiceOptions{
		ID:    id,
		Scope: di.ScopeSingleton,
		Factory: func(*di.Container, any) (any, error) {
			v, err := connect(context.Background())
			if err != nil {
				return nil, errors.Wrapf(err, "%s: connect %q", nc.Kind, nc.Name)
			}
			logger.Info("client connected", logging.F("name", nc.Name))
			return v, nil
		},
	})
	if err != nil {
		return err
	}

	forward := func(c *di.Container, _ any) (any, error) {
		v, err := c.Get(id)
		if err != nil || nc.Unwrap == nil {
			return v, err
		}
		return nc.Unwrap(v), nil
	}
	if nc.Type != nil && nc.Name == DefaultClientName {
		if err := rt.Container.Set(di.ServiceOptions{ID: nc.Type, Scope: di.ScopeTransient, Factory: forward}); err != nil {
			return err
		}
	}
	if nc.Members != nil {
		err := rt.Container.Set(di.ServiceOptions{ID: nc.Members, Scope: di.ScopeTransient, Factory: forward, Multiple: true})
		if err != nil {
			return err
		}
	}

	if !nc.Lazy {
		rt.Lifecycle.OnStart(func(context.Context) error {
			_, err := rt.Container.Get(id)
			return err
		})
	}
	logger.Debug("client registered", logging.F("name", nc.Name), logging.F("id", id))
	return nil
}
