package metadata

import (
	"fmt"
	"reflect"
)

// AssignValue stores value into dst, converting between T and *T and
// between convertible kinds. A nil value zeroes dst.
func AssignValue(dst reflect.Value, value any) error {
	if !dst.CanSet() {
		return fmt.Errorf("translatable: field %s is not settable", dst.Type())
	}
	if value == nil {
		dst.SetZero()
		return nil
	}

	src := reflect.ValueOf(value)
	return assignReflect(dst, src)
}

func assignReflect(dst, src reflect.Value) error {
	dstType := dst.Type()

	switch {
	case src.Type().AssignableTo(dstType):
		dst.Set(src)
		return nil
	case src.Kind() == reflect.Pointer:
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		return assignReflect(dst, src.Elem())
	case dstType.Kind() == reflect.Pointer:
		holder := reflect.New(dstType.Elem())
		if err := assignReflect(holder.Elem(), src); err != nil {
			return err
		}
		dst.Set(holder)
		return nil
	case src.Type().ConvertibleTo(dstType) && compatibleKinds(src.Kind(), dstType.Kind()):
		dst.Set(src.Convert(dstType))
		return nil
	default:
		return fmt.Errorf("translatable: cannot assign %s to %s", src.Type(), dstType)
	}
}

// compatibleKinds stops reflect from converting integers into strings
// ("65" -> "A"), which Convert allows.
func compatibleKinds(src, dst reflect.Kind) bool {
	if dst == reflect.String {
		return src == reflect.String || src == reflect.Slice
	}
	if src == reflect.String {
		return dst == reflect.String || dst == reflect.Slice
	}
	return true
}
