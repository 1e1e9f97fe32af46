package di

import "reflect"

// TypeProvider 提供注入点的类型信息
//
// 容器不关心类型信息如何获取，只需要一个尽力而为的标识；
// 返回 false 表示该位置不是服务（例如普通配置值）。
type TypeProvider interface {
	// ParameterType 返回构造器第 index 个参数的服务标识
	ParameterType(ctor *Constructor, index int) (any, bool)
	// PropertyType 返回类型 t 上字段 name 的服务标识
	PropertyType(t reflect.Type, name string) (any, bool)
}

// ReflectTypeProvider 基于反射的默认实现，直接使用参数/字段的 Go 类型作为标识
type ReflectTypeProvider struct{}

// ParameterType 实现 TypeProvider
func (ReflectTypeProvider) ParameterType(ctor *Constructor, index int) (any, bool) {
	if ctor == nil || index < 0 || index >= ctor.NumParams() {
		return nil, false
	}
	return ctor.Param(index), true
}

// PropertyType 实现 TypeProvider
func (ReflectTypeProvider) PropertyType(t reflect.Type, name string) (any, bool) {
	st := t
	for st != nil && st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st == nil || st.Kind() != reflect.Struct {
		return nil, false
	}
	f, ok := st.FieldByName(name)
	if !ok {
		return nil, false
	}
	return f.Type, true
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// isPrimitiveLike 判断标识是否为基本类型（不会从容器解析）
func isPrimitiveLike(id any) bool {
	t, ok := id.(reflect.Type)
	if !ok {
		return false
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Map:
		return t.Key().Kind() == reflect.String && t.Elem() == anyType
	case reflect.Interface:
		return t.NumMethod() == 0
	}
	return false
}

// isGenericType 判断标识是否只携带了空接口这类无信息类型
func isGenericType(id any) bool {
	t, ok := id.(reflect.Type)
	return ok && t.Kind() == reflect.Interface && t.NumMethod() == 0
}
