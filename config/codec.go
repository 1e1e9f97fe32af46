package config

import (
	"reflect"
	"time"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

// json 绑定配置使用的编解码器，time.Duration 字段同时接受 "5s" 和纳秒数
var json = newCodec()

func newCodec() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&durationExtension{})
	return api
}

var durationType = reflect.TypeOf(time.Duration(0))

type durationExtension struct {
	jsoniter.DummyExtension
}

func (e *durationExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	if typ.Type1() == durationType {
		return durationDecoder{}
	}
	return nil
}

type durationDecoder struct{}

func (durationDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		d, err := time.ParseDuration(iter.ReadString())
		if err != nil {
			iter.ReportError("decode duration", err.Error())
			return
		}
		*(*time.Duration)(ptr) = d
	case jsoniter.NumberValue:
		*(*time.Duration)(ptr) = time.Duration(iter.ReadInt64())
	case jsoniter.NilValue:
		iter.Skip()
	default:
		iter.Skip()
		iter.ReportError("decode duration", "expected a string or a number")
	}
}
