package di

import (
	"reflect"
)

// Handler 覆盖某个类型的构造参数或属性的注入值
//
// Property 与 Index 必须且只能设置一个：注入属性时 Index 为 -1，
// 注入构造参数时 Property 为空。
type Handler struct {
	Target   reflect.Type
	Property string
	Index    int
	Value    func(c *Container) (any, error)

	// lookup 按标识注入的处理器沿用调用方的解析路径
	lookup func(c *Container, path resolvePath) (any, error)
}

// ParamHandler 创建构造参数处理器
func ParamHandler(target reflect.Type, index int, value func(c *Container) (any, error)) Handler {
	return Handler{Target: target, Index: index, Value: value}
}

// PropertyHandler 创建属性处理器
func PropertyHandler(target reflect.Type, property string, value func(c *Container) (any, error)) Handler {
	return Handler{Target: target, Property: property, Index: -1, Value: value}
}

// identifierHandler 让处理器按标识 id 解析，optional 时缺失的服务得到 nil
func identifierHandler(h Handler, id any, optional bool) Handler {
	h.lookup = func(c *Container, path resolvePath) (any, error) {
		v, err := resolveIdentifier(c, id, path)
		if err != nil && optional && IsNotFound(err) {
			return nil, nil
		}
		return v, err
	}
	h.Value = func(c *Container) (any, error) { return h.lookup(c, nil) }
	return h
}

func (h Handler) resolve(c *Container, path resolvePath) (any, error) {
	if h.lookup != nil {
		return h.lookup(c, path)
	}
	return h.Value(c)
}

func (h Handler) validate() error {
	if h.Target == nil {
		return &InvalidServiceOptionsError{Reason: "handler target type is required"}
	}
	if h.Value == nil {
		return &InvalidServiceOptionsError{Reason: "handler value provider is required"}
	}
	hasProp := h.Property != ""
	hasIndex := h.Index >= 0
	if hasProp == hasIndex {
		return &InvalidServiceOptionsError{Reason: "handler needs exactly one of property or parameter index"}
	}
	return nil
}

// findParamHandler 按目标类型和参数位置查找处理器，找不到时回退到直接父类型
func findParamHandler(handlers []Handler, target reflect.Type, index int) (Handler, bool) {
	for _, h := range handlers {
		if h.Target == target && h.Property == "" && h.Index == index {
			return h, true
		}
	}
	if parent := parentType(target); parent != nil {
		for _, h := range handlers {
			if h.Target == parent && h.Property == "" && h.Index == index {
				return h, true
			}
		}
	}
	return Handler{}, false
}

// propertyHandlers 返回作用于 target 的属性处理器，子类型自身的处理器优先
func propertyHandlers(handlers []Handler, target reflect.Type) []Handler {
	var own, inherited []Handler
	parent := parentType(target)
	seen := make(map[string]bool)
	for _, h := range handlers {
		if h.Property != "" && h.Target == target {
			own = append(own, h)
			seen[h.Property] = true
		}
	}
	if parent != nil {
		for _, h := range handlers {
			if h.Property != "" && h.Target == parent && !seen[h.Property] {
				inherited = append(inherited, h)
			}
		}
	}
	return append(inherited, own...)
}
