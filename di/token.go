package di

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// Token 表示一个依赖注入的令牌，在字符串或类型不足以区分服务时使用
//
// 使用场景：
//   - 接口没有可用于区分的具体类型（多个实现共享同一接口）
//   - 配置值（如字符串、整数等基本类型）
//
// 两个 Token 只有是同一个指针时才相等，名称仅用于调试输出。
//
// 示例：
//
//	var DBHost = di.NewToken[string]("db.host")
//
//	c.SetValue(DBHost, "localhost")
//	host, _ := di.ResolveToken(c, DBHost)
type Token[T any] struct {
	name string
	typ  reflect.Type
}

// NewToken 创建一个新的 Token
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{
		name: name,
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Type 返回 Token 承载值的类型
func (t *Token[T]) Type() reflect.Type {
	return t.typ
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	if t.name == "" {
		return fmt.Sprintf("Token[%s]", t.typ)
	}
	return fmt.Sprintf("Token[%s](%s)", t.typ, t.name)
}

// tokenSeq 生成掩码 Token 的序号
var tokenSeq atomic.Uint64

// newMaskToken 为 multiple 注册生成一个新的存储标识
func newMaskToken(id any) *Token[any] {
	return NewToken[any](fmt.Sprintf("%s#%d", describeID(id), tokenSeq.Add(1)))
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
//
// 示例：
//
//	userServiceType := di.TypeOf[*UserService]()
//	instance, _ := c.Get(userServiceType)
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
