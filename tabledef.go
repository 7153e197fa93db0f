package dbobj

import (
	"fmt"
	"reflect"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// TableDef describes the table an Object maps to. The key column is kept
// apart from Columns and is always bound as an integer.
type TableDef struct {
	Schema     string
	Name       string
	KeyField   string
	ObjectName string
	Columns    []Column
}

type Column struct {
	Name   string
	Format Format
	// Auto columns are filled by the database and skipped by Assign.
	Auto bool
}

// DBTable is embedded in a model struct to carry table level tags:
//
//	type Item struct {
//		dbobj.DBTable `schema:"shop" name:"items" object:"item"`
//		ID   int64  `db:"id,key"`
//		Name string `db:"name"`
//	}
type DBTable struct{}

func NewTableDef(name, keyField string, cols ...Column) TableDef {
	return TableDef{
		Name:     name,
		KeyField: keyField,
		Columns:  cols,
	}
}

func (td TableDef) WithSchema(schema string) TableDef {
	td.Schema = schema
	return td
}

func (td TableDef) WithObjectName(name string) TableDef {
	td.ObjectName = name
	return td
}

func (td TableDef) FullTableName() string {
	name := td.Name
	if td.Schema != "" {
		name = fmt.Sprintf("%s.%s", td.Schema, td.Name)
	}
	return name
}

// HookPrefix is the object name used to build hook names. It falls back to
// the table name.
func (td TableDef) HookPrefix() string {
	if td.ObjectName != "" {
		return td.ObjectName
	}
	return td.Name
}

func (td TableDef) ColumnNames() []string {
	return sliceMap(td.Columns, func(val Column) string {
		return val.Name
	})
}

func (td TableDef) HasColumn(name string) bool {
	_, ok := td.column(name)
	return ok
}

// FormatOf returns the binding format of a column; the key is %d and unknown
// columns are %s.
func (td TableDef) FormatOf(name string) Format {
	if name == td.KeyField {
		return FormatInt
	}

	if col, ok := td.column(name); ok && col.Format != "" {
		return col.Format
	}

	return FormatString
}

func (td TableDef) column(name string) (Column, bool) {
	for _, col := range td.Columns {
		if col.Name == name {
			return col, true
		}
	}

	return Column{}, false
}

func (td TableDef) validate() error {
	if td.Name == "" {
		return fmt.Errorf("table definition has no name")
	}

	if td.KeyField == "" {
		return ErrNoKeyField
	}

	return nil
}

// DefineModel builds a TableDef from the db tags of a struct value or type.
func DefineModel(v any) (TableDef, error) {
	mval := reflect.ValueOf(v)
	if !mval.IsValid() {
		return TableDef{}, fmt.Errorf("model must be a struct, got nil")
	}

	if mval.Kind() == reflect.Ptr && mval.IsNil() {
		mval = reflect.New(mval.Type().Elem())
	}

	if model, isModel := mval.Interface().(Model); isModel {
		return model.GetTableDef(), nil
	}

	if mval.Kind() == reflect.Ptr {
		mval = mval.Elem()
	}

	if mval.Kind() != reflect.Struct {
		return TableDef{}, fmt.Errorf("model must be a struct, got %s", mval.Kind())
	}

	return parseModel(mval.Type())
}

func parseModel(model reflect.Type) (TableDef, error) {
	td := TableDef{}
	keyFound := false
	for i := 0; i < model.NumField(); i++ {
		field := model.Field(i)
		if field.Type == reflect.TypeOf(DBTable{}) {
			td.Schema = field.Tag.Get("schema")
			td.Name = field.Tag.Get("name")
			td.ObjectName = field.Tag.Get("object")
			continue
		}

		if !field.IsExported() {
			continue
		}

		tag, err := parseDBTag(field.Tag.Get("db"))
		if err != nil {
			return td, fmt.Errorf("field %s: %w", field.Name, err)
		}

		if tag.Skip {
			continue
		}

		name := tag.Name
		if name == "" {
			name = strcase.ToSnake(field.Name)
		}

		if tag.IsKey {
			if keyFound {
				return td, fmt.Errorf("cannot have more than 1 key in %s", model.Name())
			}
			keyFound = true
			td.KeyField = name
			continue
		}

		format := tag.Format
		if format == "" {
			format = formatFromType(field.Type)
		}

		td.Columns = append(td.Columns, Column{Name: name, Format: format, Auto: tag.IsAuto})
	}

	if !keyFound {
		return td, fmt.Errorf("%w in %s", ErrNoKeyField, model.Name())
	}

	if td.Name == "" {
		td.Name = inflection.Plural(strcase.ToSnake(model.Name()))
	}

	return td, nil
}

func formatFromType(t reflect.Type) Format {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Bool:
		return FormatInt
	case reflect.Float32, reflect.Float64:
		return FormatFloat
	case reflect.Struct:
		switch t.Name() {
		case "NullInt16", "NullInt32", "NullInt64", "NullBool", "NullByte":
			return FormatInt
		case "NullFloat64":
			return FormatFloat
		}
	}

	return FormatString
}
