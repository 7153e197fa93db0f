package dbobj

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/gosexy/to"
	"github.com/iancoleman/strcase"
)

// Assign copies values into the object from a struct with db tags or from a
// map with string keys. Auto columns, nil pointer fields and null Valuer
// fields are skipped.
func (o *Object) Assign(value any) error {
	fieldMap, err := o.createFieldsAndValuesMap(value)
	if err != nil {
		return err
	}

	for k, v := range fieldMap {
		o.SetField(k, v)
	}

	return nil
}

// Bind fills the db tagged fields of the struct pointed to by dest.
func (o *Object) Bind(dest any) error {
	dval := reflect.ValueOf(dest)
	if dval.Kind() != reflect.Ptr || dval.IsNil() || dval.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("destination must be a non nil pointer to struct, got %T", dest)
	}

	dval = dval.Elem()
	dtype := dval.Type()
	for i := 0; i < dtype.NumField(); i++ {
		field := dtype.Field(i)
		col, _, ok := columnOfField(field)
		if !ok || !o.Has(col) && col != o.def.KeyField {
			continue
		}

		if err := setFieldValue(dval.Field(i), o.Field(col)); err != nil {
			return fmt.Errorf("cannot set %s from column %s: %w", field.Name, col, err)
		}
	}

	return nil
}

func (o *Object) createFieldsAndValuesMap(value any) (map[string]any, error) {
	dataVal := reflect.ValueOf(value)
	if dataVal.Kind() == reflect.Ptr {
		dataVal = dataVal.Elem()
	}

	var result = make(map[string]any)

	if dataVal.Kind() == reflect.Map {
		if dataVal.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("value as map should have string key")
		}

		iter := dataVal.MapRange()
		for iter.Next() {
			result[iter.Key().String()] = iter.Value().Interface()
		}

		return result, nil
	}

	if dataVal.Kind() != reflect.Struct {
		return nil, fmt.Errorf("value must be a struct or a map, got %s", dataVal.Kind())
	}

	valType := dataVal.Type()
	for i := 0; i < valType.NumField(); i++ {
		col, isAuto, ok := columnOfField(valType.Field(i))
		if !ok || isAuto {
			continue
		}

		val := dataVal.Field(i).Interface()
		if isNilPointer(val) {
			continue
		}

		if v, ok := val.(driver.Valuer); ok {
			buffVal, err := v.Value()
			if err != nil {
				return nil, fmt.Errorf("failed to get value of %s: %w", valType.Field(i).Name, err)
			}

			//skip for nil value
			if buffVal == nil {
				continue
			}

			val = buffVal
		}

		result[col] = val
	}

	return result, nil
}

func columnOfField(field reflect.StructField) (name string, isAuto bool, ok bool) {
	if !field.IsExported() || field.Type == reflect.TypeOf(DBTable{}) {
		return
	}

	tag, err := parseDBTag(field.Tag.Get("db"))
	if err != nil || tag.Skip {
		return
	}

	name = tag.Name
	if name == "" {
		name = strcase.ToSnake(field.Name)
	}

	return name, tag.IsAuto, true
}

func setFieldValue(fv reflect.Value, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	if fv.CanAddr() {
		if scanner, ok := fv.Addr().Interface().(sql.Scanner); ok {
			return scanner.Scan(value)
		}
	}

	target := fv.Type()
	if target.Kind() == reflect.Ptr {
		ptr := reflect.New(target.Elem())
		if err := setFieldValue(ptr.Elem(), value); err != nil {
			return err
		}
		fv.Set(ptr)
		return nil
	}

	vv := reflect.ValueOf(value)
	switch {
	case vv.Type().AssignableTo(target):
		fv.Set(vv)
	case target.Kind() == reflect.String:
		fv.SetString(FormatString.Coerce(value).(string))
	case target.Kind() == reflect.Bool:
		fv.SetBool(to.Bool(value))
	case vv.Type().ConvertibleTo(target) && vv.Kind() != reflect.String:
		fv.Set(vv.Convert(target))
	case isIntKind(target.Kind()):
		fv.SetInt(FormatInt.Coerce(value).(int64))
	case isUintKind(target.Kind()):
		fv.SetUint(uint64(FormatInt.Coerce(value).(int64)))
	case target.Kind() == reflect.Float32 || target.Kind() == reflect.Float64:
		fv.SetFloat(FormatFloat.Coerce(value).(float64))
	default:
		return fmt.Errorf("unsupported conversion from %T to %s", value, target)
	}

	return nil
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}
