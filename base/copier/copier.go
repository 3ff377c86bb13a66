// Copyright 2023 teasel Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package copier deep-copies model state through reflection. It is used to
// clone estimators before concurrent fits so that no weights are shared.
package copier

import (
	"reflect"

	"github.com/juju/errors"
)

// Copy deep-copies src into dst. dst must be a pointer. Unexported struct
// fields are not copied, callers restore them on their own.
func Copy(dst, src interface{}) error {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Ptr {
		return errors.NotValidf("dst of kind %v instead of a pointer", target.Kind())
	}
	return deepCopy(target.Elem(), reflect.ValueOf(src))
}

// clone returns a fresh deep copy of src.
func clone(src reflect.Value) (reflect.Value, error) {
	fresh := reflect.New(src.Type())
	if err := deepCopy(fresh.Elem(), src); err != nil {
		return reflect.Value{}, err
	}
	return fresh.Elem(), nil
}

func deepCopy(dst, src reflect.Value) error {
	if dst.Kind() != src.Kind() {
		// An interface destination takes a copy of the concrete value.
		if dst.Kind() == reflect.Interface {
			copied, err := clone(src)
			if err != nil {
				return err
			}
			dst.Set(copied)
			return nil
		}
		return errors.NotValidf("copy of %v into %v", src.Kind(), dst.Kind())
	}

	switch dst.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Uint,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64,
		reflect.String:
		dst.Set(src)
	case reflect.Slice:
		if src.IsNil() {
			return nil
		}
		// Reuse the destination array when it is addressable and large
		// enough, otherwise allocate.
		if dst.IsNil() || (!dst.CanAddr() && dst.Len() != src.Len()) || dst.Cap() < src.Len() {
			dst.Set(reflect.MakeSlice(src.Type(), src.Len(), src.Len()))
		} else if dst.CanAddr() {
			dst.SetLen(src.Len())
		}
		for i := 0; i < src.Len(); i++ {
			if err := deepCopy(dst.Index(i), src.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if src.IsNil() {
			return nil
		}
		dst.Set(reflect.MakeMap(dst.Type()))
		for _, key := range src.MapKeys() {
			copied, err := clone(src.MapIndex(key))
			if err != nil {
				return err
			}
			dst.SetMapIndex(key, copied)
		}
	case reflect.Struct:
		if dst.Type().Name() != src.Type().Name() {
			return errors.NotValidf("copy of struct %v into %v", src.Type().Name(), dst.Type().Name())
		}
		for i := 0; i < src.NumField(); i++ {
			if !dst.Field(i).CanSet() {
				continue
			}
			if err := deepCopy(dst.Field(i), src.Field(i)); err != nil {
				return err
			}
		}
	case reflect.Ptr:
		if src.IsNil() {
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(src.Elem().Type()))
		}
		return deepCopy(dst.Elem(), src.Elem())
	case reflect.Interface:
		if src.IsNil() {
			return nil
		}
		copied, err := clone(src.Elem())
		if err != nil {
			return err
		}
		dst.Set(copied)
	default:
		return errors.NotValidf("copy of unsupported kind %v", dst.Kind())
	}
	return nil
}
