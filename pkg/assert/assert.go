package assert

import (
	"fmt"
	"reflect"
	"runtime"
)

// NotNil 断言对象非空，用于单例构造完成后的校验
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: unexpected nil value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("assert: unexpected nil %T", v))
		}
	}
}

// NotCircular 断言调用方没有在自身的调用栈上重入，避免单例初始化出现循环依赖
func NotCircular() {
	pcs := make([]uintptr, 128)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	caller, more := frames.Next()
	for more {
		var f runtime.Frame
		f, more = frames.Next()
		if f.Function == caller.Function {
			panic(fmt.Sprintf("assert: circular initialization in %s", caller.Function))
		}
	}
}
