package dbobj

import (
	"context"
	"sort"
)

type Row map[string]any

// Store executes the statements an Object needs against one backend.
type Store interface {
	// FindByKey returns nil and no error when the row does not exist.
	FindByKey(ctx context.Context, td TableDef, id int64) (Row, error)
	Find(ctx context.Context, td TableDef, q Query) ([]Row, error)
	// Insert returns the key generated for the new row.
	Insert(ctx context.Context, td TableDef, data Row) (int64, error)
	Update(ctx context.Context, td TableDef, id int64, data Row) (int64, error)
	Delete(ctx context.Context, td TableDef, id int64) (int64, error)
}

// Query is an equality-only select over one table. Columns and Where must
// already be validated against the table definition.
type Query struct {
	Columns []string
	Where   []Cond
	Limit   int
}

type Cond struct {
	Column string
	Value  any
}

func (q Query) selectAll() bool {
	return len(q.Columns) == 0 || sliceContains(q.Columns, "*")
}

func (r Row) clone() Row {
	if r == nil {
		return nil
	}

	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}

	return c
}

// orderedColumns lists the keys of data in table column order, followed by
// columns unknown to the table in name order.
func orderedColumns(td TableDef, data Row) []string {
	cols := make([]string, 0, len(data))
	for _, c := range td.Columns {
		if _, ok := data[c.Name]; ok {
			cols = append(cols, c.Name)
		}
	}

	var extra []string
	for k := range data {
		if !td.HasColumn(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(cols, extra...)
}
