package di

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/muir/reflectutils"
	"github.com/pkg/errors"
)

// ErrContainerDisposed 容器已被释放，之后的任何调用都会返回此错误
var ErrContainerDisposed = errors.New("di: container used after dispose")

// ServiceNotFoundError 请求的标识在任何可达容器中都没有注册
type ServiceNotFoundError struct {
	ID any
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("di: service %s not found", describeID(e.ID))
}

// CannotInstantiateValueError 元数据存在，但既没有 factory 也没有构造器
type CannotInstantiateValueError struct {
	ID any
}

func (e *CannotInstantiateValueError) Error() string {
	return fmt.Sprintf("di: cannot instantiate %s: no factory or constructor registered", describeID(e.ID))
}

// CannotInjectValueError 注入点的标识缺失，或只能推断出空接口这类无信息类型
type CannotInjectValueError struct {
	Target   reflect.Type
	Property string
	Index    int
}

func (e *CannotInjectValueError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("di: cannot inject value into %s.%s: no usable service identifier", typeName(e.Target), e.Property)
	}
	return fmt.Sprintf("di: cannot inject value into parameter %d of %s: no usable service identifier", e.Index, typeName(e.Target))
}

// ContainerNotFoundError 注册表中没有该 id 的容器
type ContainerNotFoundError struct {
	ID any
}

func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("di: container %v not found", e.ID)
}

// CannotRegisterContainerError 容器 id 重复或使用了保留的默认 id
type CannotRegisterContainerError struct {
	ID     any
	Reason string
}

func (e *CannotRegisterContainerError) Error() string {
	return fmt.Sprintf("di: cannot register container %v: %s", e.ID, e.Reason)
}

// MultipleServiceError 对 multiple 标识调用了 Get，应使用 GetMany
type MultipleServiceError struct {
	ID any
}

func (e *MultipleServiceError) Error() string {
	return fmt.Sprintf("di: service %s is registered as multiple, use GetMany", describeID(e.ID))
}

// InvalidServiceOptionsError 服务选项本身不合法（例如缺少 id）
type InvalidServiceOptionsError struct {
	Reason string
}

func (e *InvalidServiceOptionsError) Error() string {
	return "di: invalid service options: " + e.Reason
}

// CircularDependencyError 构建过程中再次请求了正在构建的服务
// 构造期的循环需要通过 Lazy 或属性处理器打破。
type CircularDependencyError struct {
	Path []any
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = describeID(id)
	}
	return "di: circular dependency: " + strings.Join(parts, " -> ")
}

// IsNotFound 报告 err 链中是否包含 ServiceNotFoundError
func IsNotFound(err error) bool {
	var nf *ServiceNotFoundError
	return errors.As(err, &nf)
}

// describeID 将服务标识格式化为可读字符串
func describeID(id any) string {
	switch v := id.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", v)
	case reflect.Type:
		return typeName(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return reflectutils.TypeName(t)
}
