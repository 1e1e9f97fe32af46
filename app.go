// Package app 是应用程序的入口
//
//	err := app.Run(
//	    config.New(config.WithFile("appsettings.yaml")),
//	    redis.New(redis.FromConfig("redis")),
//	    web.New(web.WithControllers(NewUserController)),
//	)
package app

import "github.com/gocrud/ioc/core"

// New 创建运行时并依次应用 Option
func New(opts ...core.Option) (*core.Runtime, error) {
	rt := core.NewRuntime()
	if err := rt.Apply(opts...); err != nil {
		_ = rt.Registry.Close()
		_ = rt.LoggerFactory.Close()
		return nil, err
	}
	return rt, nil
}
