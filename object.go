package dbobj

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gosexy/to"
	"go.uber.org/zap"
)

// Object holds one table row: the key value in its own slot and every other
// column in data. An Object is not safe for concurrent use.
type Object struct {
	def    TableDef
	store  Store
	hooks  *Hooks
	logger *zap.Logger

	id   int64
	data Row
}

func New(store Store, td TableDef, options ...ObjectOption) *Object {
	opt := &objectOption{}
	for _, op := range options {
		op(opt)
	}

	if opt.hooks == nil {
		opt.hooks = DefaultHooks
	}

	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}

	return &Object{
		def:    td,
		store:  store,
		hooks:  opt.hooks,
		logger: opt.logger.With(zap.String("table", td.FullTableName())),
		data:   make(Row),
	}
}

// NewFor creates an Object for the table of model type T.
func NewFor[T Model](store Store, options ...ObjectOption) *Object {
	var model T
	return New(store, model.GetTableDef(), options...)
}

// Load creates an Object and populates it when id is not zero.
func Load(ctx context.Context, store Store, td TableDef, id int64, options ...ObjectOption) (*Object, error) {
	obj := New(store, td, options...)
	if id == 0 {
		return obj, nil
	}

	if _, err := obj.Populate(ctx, id); err != nil {
		return nil, err
	}

	return obj, nil
}

func (o *Object) TableDef() TableDef {
	return o.def
}

// Populate reads the row with the given key. When no row matches, the object
// is left untouched and false is returned.
func (o *Object) Populate(ctx context.Context, id int64) (bool, error) {
	if err := o.def.validate(); err != nil {
		return false, err
	}

	row, err := o.store.FindByKey(ctx, o.def, id)
	if err != nil {
		return false, fmt.Errorf("failed to populate %s %d: %w", o.def.Name, id, err)
	}

	if row == nil {
		o.logger.Debug("row not found", zap.Int64("id", id))
		return false, nil
	}

	key := FormatInt.Coerce(row[o.def.KeyField])
	if key == nil || key.(int64) == 0 {
		return false, nil
	}

	delete(row, o.def.KeyField)
	o.id = key.(int64)
	o.data = row

	return true, nil
}

// Save inserts the object when it has no key and updates its row otherwise.
// Field filters and the before-save action run first; the after-save action
// runs only when the store reports a changed row.
func (o *Object) Save(ctx context.Context) (int64, error) {
	if err := o.def.validate(); err != nil {
		return 0, err
	}

	prefix := o.def.HookPrefix()
	for _, field := range orderedColumns(o.def, o.data) {
		o.data[field] = o.hooks.ApplyFilters(FieldBeforeSaveHook(prefix, field), o.data[field], o.id)
	}

	o.hooks.DoAction(BeforeSaveHook(prefix), o)

	values := make(Row, len(o.data))
	for field, v := range o.data {
		if field == o.def.KeyField {
			continue
		}
		values[field] = o.def.FormatOf(field).Coerce(v)
	}

	var (
		result int64
		err    error
	)

	begin := time.Now()
	if o.id != 0 {
		result, err = o.store.Update(ctx, o.def, o.id, values)
	} else {
		var id int64
		id, err = o.store.Insert(ctx, o.def, values)
		if err == nil {
			o.id = id
			result = 1
		}
	}

	if err != nil {
		o.logger.Error("save failed", zap.Int64("id", o.id), zap.Error(err))
		return 0, fmt.Errorf("failed to save %s: %w", o.def.Name, err)
	}

	if result == 0 {
		o.logger.Debug("save changed no rows", zap.Int64("id", o.id))
		return 0, ErrNoRowsAffected
	}

	o.logger.Debug("saved", zap.Int64("id", o.id), zap.Duration("elapsed", time.Since(begin)))
	o.hooks.DoAction(AfterSaveHook(prefix), o)

	return result, nil
}

// Delete removes the object's row. The in-memory values are kept.
func (o *Object) Delete(ctx context.Context) (int64, error) {
	if err := o.def.validate(); err != nil {
		return 0, err
	}

	if o.id == 0 {
		return 0, ErrMissingKey
	}

	n, err := o.store.Delete(ctx, o.def, o.id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s %d: %w", o.def.Name, o.id, err)
	}

	return n, nil
}

type GetArgs struct {
	// Select holds column names, "*" or the key. Defaults to "*".
	Select []string
	// Where holds equality conditions on columns of the table definition.
	Where map[string]any
}

// Result of Get. Scalar results carry Value, the rest carry Rows.
type Result struct {
	Scalar bool
	Value  any
	Rows   []Row
}

// Get runs a select restricted to known columns. A single selected column
// other than "*" yields a scalar taken from the first matching row.
func (o *Object) Get(ctx context.Context, args GetArgs) (Result, error) {
	q := Query{
		Columns: o.selectColumns(args.Select),
		Where:   o.whereConds(args.Where),
	}

	if len(q.Columns) == 1 && q.Columns[0] != "*" {
		q.Limit = 1
		rows, err := o.store.Find(ctx, o.def, q)
		if err != nil {
			return Result{}, fmt.Errorf("failed to get %s: %w", o.def.Name, err)
		}

		res := Result{Scalar: true}
		if len(rows) > 0 {
			res.Value = rows[0][q.Columns[0]]
		}

		return res, nil
	}

	rows, err := o.store.Find(ctx, o.def, q)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get %s: %w", o.def.Name, err)
	}

	return Result{Rows: rows}, nil
}

func (o *Object) selectColumns(requested []string) []string {
	if len(requested) == 0 {
		return []string{"*"}
	}

	allowed := append(o.def.ColumnNames(), "*", o.def.KeyField)
	var cols []string
	for _, name := range allowed {
		if sliceContains(requested, name) && !sliceContains(cols, name) {
			cols = append(cols, name)
		}
	}

	if len(cols) == 0 {
		return []string{"*"}
	}

	return cols
}

func (o *Object) whereConds(where map[string]any) []Cond {
	var names []string
	for name := range where {
		if o.def.HasColumn(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	return sliceMap(names, func(name string) Cond {
		return Cond{Column: name, Value: o.def.FormatOf(name).Coerce(where[name])}
	})
}

func (o *Object) ID() int64 {
	return o.id
}

func (o *Object) SetID(id int64) {
	o.id = id
}

// Field returns the value of a column, or nil when it is not set.
func (o *Object) Field(name string) any {
	if name == o.def.KeyField {
		return o.id
	}

	return o.data[name]
}

func (o *Object) SetField(name string, value any) {
	if name == o.def.KeyField {
		if id, ok := FormatInt.Coerce(value).(int64); ok {
			o.id = id
		} else {
			o.id = 0
		}
		return
	}

	o.data[name] = value
}

func (o *Object) Has(name string) bool {
	if name == o.def.KeyField {
		return o.id != 0
	}

	_, ok := o.data[name]
	return ok
}

func (o *Object) Unset(name string) {
	if name == o.def.KeyField {
		o.id = 0
		return
	}

	delete(o.data, name)
}

// Data returns a copy of the non-key columns.
func (o *Object) Data() Row {
	return o.data.clone()
}

func (o *Object) GetString(name string) string {
	return to.String(o.Field(name))
}

func (o *Object) GetInt(name string) int64 {
	return to.Int64(o.Field(name))
}

func (o *Object) GetFloat(name string) float64 {
	return to.Float64(o.Field(name))
}

func (o *Object) GetBool(name string) bool {
	return to.Bool(o.Field(name))
}

func (o *Object) GetTime(name string) time.Time {
	if t, ok := o.Field(name).(time.Time); ok {
		return t
	}

	return to.Time(o.Field(name))
}
