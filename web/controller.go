package web

import (
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/gocrud/ioc/di"
)

// Controller 控制器接口
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// ControllersToken 全部控制器
var ControllersToken = di.NewToken[Controller]("web.controllers")

var controllerType = di.TypeOf[Controller]()

// RegisterController 把控制器登记到容器，Host 启动时解析并挂载路由
//
// target 可以是：
//  1. 构造函数（例如 NewUserController），参数从容器解析
//  2. di.Struct[T]() 构造器，配合 di.InjectTagged 使用字段注入
//  3. 已经构建好的控制器实例
func RegisterController(c *di.Container, target any) error {
	opts := []di.ServiceOption{di.AsGlobal()}
	switch t := target.(type) {
	case nil:
		return errors.New("web: controller is nil")
	case *di.Constructor:
		if !t.Type().Implements(controllerType) {
			return errors.Errorf("web: %v does not implement Controller", t.Type())
		}
		if err := di.InjectTagged(c, t); err != nil {
			return err
		}
	case Controller:
		opts = append(opts, di.WithValue(t))
		target = ControllersToken
	default:
		ft := reflect.TypeOf(target)
		if ft.Kind() != reflect.Func || ft.NumOut() == 0 {
			return errors.Errorf("web: unsupported controller %T", target)
		}
		if !ft.Out(0).Implements(controllerType) {
			return errors.Errorf("web: %v does not implement Controller", ft.Out(0))
		}
	}
	opts = append(opts, di.WithID(ControllersToken), di.AsMultiple())
	return di.Service(c, target, opts...)
}
