// Package database 把 GORM 连接注册进运行时的容器
//
// 每个实例注册为 "database:<name>"（*DB），名为 default 的实例同时以 *DB 和 *gorm.DB 注册，
// 全部实例可以通过 DatabasesToken 取得。连接池在注册表关闭时关闭。
package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/gocrud/ioc/config"
	"github.com/gocrud/ioc/core"
	"github.com/gocrud/ioc/di"
	"github.com/gocrud/ioc/logging"
)

// Kind 客户端种类
const Kind = "database"

// DatabasesToken 全部数据库实例
var DatabasesToken = di.NewToken[*gorm.DB]("database.all")

// BuilderOption 用于配置 Database Builder
type BuilderOption func(*Builder)

// WithDatabase 添加数据库配置
func WithDatabase(name string, dialector gorm.Dialector, opts ...func(*Options)) BuilderOption {
	return func(b *Builder) {
		b.Add(name, dialector, func(o *Options) {
			for _, opt := range opts {
				opt(o)
			}
		})
	}
}

// FromConfig 从配置节读取数据库，需要先应用 config.New
func FromConfig(section string) BuilderOption {
	return func(b *Builder) { b.AddSection(section) }
}

// ClientID 返回数据库实例的服务标识
func ClientID(name string) string {
	return core.ClientID(Kind, name)
}

// New 启用数据库能力
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

		logger := rt.Logger.WithCategory(Kind)
		for _, o := range configs {
			err := rt.ProvideClient(core.NamedClient{
				Kind:    Kind,
				Name:    o.Name,
				Type:    di.TypeOf[*gorm.DB](),
				Members: DatabasesToken,
				Lazy:    o.Lazy,
				Connect: func(context.Context) (any, error) {
					return Open(o, logger.WithFields(logging.F("name", o.Name)))
				},
				Unwrap: func(v any) any { return v.(*DB).DB },
			})
			if err != nil {
				return err
			}
			if o.Name == core.DefaultClientName {
				id := ClientID(o.Name)
				err := rt.Container.Set(di.ServiceOptions{
					ID:      di.TypeOf[*DB](),
					Scope:   di.ScopeTransient,
					Factory: func(c *di.Container, _ any) (any, error) { return c.Get(id) },
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	}
}
