package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 按类型存放构建时特性（配置、Web 引擎等）
type FeatureCollection struct {
	features sync.Map
}

// Set 注册一个特性，同类型的旧值被覆盖
func (fc *FeatureCollection) Set(feature any) {
	if feature == nil {
		return
	}
	fc.features.Store(reflect.TypeOf(feature), feature)
}

// Get 获取一个特性
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	return fc.features.Load(typ)
}

// GetFeature 按类型 T 获取特性
func GetFeature[T any](rt *Runtime) (T, bool) {
	var zero T
	v, ok := rt.Features.Get(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
