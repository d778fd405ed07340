package reflectx

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn holds a function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName derives a name for fn. Named function types use their type name,
// everything else uses the runtime symbol without package path or the "-fm"
// suffix the compiler adds to method values.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Name() != "" {
		return typ.String()
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return typ.String()
	}
	name := rf.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = name[lastDot+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// IsRefinedType reports whether value is exactly the type R.
func IsRefinedType[R any](value reflect.Type) bool {
	var toMatch R
	return reflect.TypeOf(toMatch) == value
}

var contextType = reflect.TypeFor[context.Context]()

// IsContext reports whether value is the context.Context interface type.
func IsContext(value reflect.Type) bool {
	return value == contextType
}

// ResultImplements reports whether any result of the function implements T.
// function may be a function value or the reflect.Type of a function.
func ResultImplements[T any](function any) bool {
	if function == nil {
		return false
	}

	var fnType reflect.Type
	switch v := function.(type) {
	case reflect.Type:
		fnType = v
	default:
		fnType = reflect.TypeOf(function)
	}
	if fnType.Kind() != reflect.Func {
		return false
	}

	ifaceType := reflect.TypeFor[T]()
	for i := 0; i < fnType.NumOut(); i++ {
		if fnType.Out(i).Implements(ifaceType) {
			return true
		}
	}
	return false
}
