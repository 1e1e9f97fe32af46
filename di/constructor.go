package di

import (
	"reflect"

	"github.com/pkg/errors"
)

var (
	containerPtrType = reflect.TypeOf((*Container)(nil))
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
)

// Constructor 描述一个可构建的服务类型
//
// 通过 Ctor 包装构造函数，或通过 Struct 直接创建零值结构体指针。
// 构造函数的参数按声明顺序从容器解析；如果最后一个参数是 *Container，
// 则传入发起请求的容器。
type Constructor struct {
	typ      reflect.Type
	fn       reflect.Value
	params   []reflect.Type
	wantsC   bool
	hasError bool
}

// Ctor 包装构造函数，签名为 func(deps...) T 或 func(deps...) (T, error)
func Ctor(fn any) *Constructor {
	c, err := newConstructor(fn)
	if err != nil {
		panic(err.Error())
	}
	return c
}

// Struct 返回以 new(T) 构建 *T 的构造器，依赖通过属性注入补全
func Struct[T any]() *Constructor {
	t := reflect.TypeOf((*T)(nil))
	return &Constructor{typ: t}
}

func newConstructor(fn any) (*Constructor, error) {
	if c, ok := fn.(*Constructor); ok {
		return c, nil
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.Errorf("di: constructor must be a function, got %T", fn)
	}
	ft := v.Type()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, errors.Errorf("di: constructor %v must return (T) or (T, error)", ft)
	}

	c := &Constructor{
		typ:      ft.Out(0),
		fn:       v,
		hasError: ft.NumOut() == 2,
	}
	n := ft.NumIn()
	if n > 0 && ft.In(n-1) == containerPtrType {
		c.wantsC = true
		n--
	}
	if ft.IsVariadic() {
		return nil, errors.Errorf("di: variadic constructor %v is not supported", ft)
	}
	for i := 0; i < n; i++ {
		c.params = append(c.params, ft.In(i))
	}
	return c, nil
}

// Type 返回构造器产出的类型，同时也是服务的默认标识
func (c *Constructor) Type() reflect.Type { return c.typ }

// NumParams 返回需要解析的参数个数（不含隐式的 *Container 参数）
func (c *Constructor) NumParams() int { return len(c.params) }

// Param 返回第 i 个参数的类型
func (c *Constructor) Param(i int) reflect.Type { return c.params[i] }

// call 以给定参数调用构造器
func (c *Constructor) call(container *Container, args []reflect.Value) (any, error) {
	if !c.fn.IsValid() {
		return reflect.New(c.typ.Elem()).Interface(), nil
	}
	if c.wantsC {
		args = append(args, reflect.ValueOf(container))
	}
	out := c.fn.Call(args)
	if c.hasError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	if isNilValue(out[0]) {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// callZero 以各参数的零值调用构造器，不解析任何依赖
func (c *Constructor) callZero(container *Container) (any, error) {
	args := make([]reflect.Value, len(c.params))
	for i, t := range c.params {
		args[i] = reflect.Zero(t)
	}
	return c.call(container, args)
}

// parentType 返回 t 的“直接父类型”：第一个匿名嵌入的结构体字段
// 只看一层，更深的嵌入链不会被遍历。
func parentType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	ptr := t.Kind() == reflect.Pointer
	st := t
	if ptr {
		st = t.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		if ptr {
			return reflect.PointerTo(ft)
		}
		return ft
	}
	return nil
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
