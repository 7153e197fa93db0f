package dbobj

import (
	"context"
	"errors"
	"sort"
)

// memStore is an in-memory Store keyed by table name.
type memStore struct {
	tables  map[string]map[int64]Row
	nextID  int64
	queries []Query
	// updateResult overrides the affected row count of Update when set.
	updateResult *int64
	err          error
}

func newMemStore() *memStore {
	return &memStore{tables: make(map[string]map[int64]Row)}
}

func (m *memStore) table(td TableDef) map[int64]Row {
	t, ok := m.tables[td.FullTableName()]
	if !ok {
		t = make(map[int64]Row)
		m.tables[td.FullTableName()] = t
	}
	return t
}

func (m *memStore) put(td TableDef, id int64, row Row) {
	r := row.clone()
	r[td.KeyField] = id
	m.table(td)[id] = r
	if id > m.nextID {
		m.nextID = id
	}
}

func (m *memStore) FindByKey(_ context.Context, td TableDef, id int64) (Row, error) {
	if m.err != nil {
		return nil, m.err
	}

	row, ok := m.table(td)[id]
	if !ok {
		return nil, nil
	}
	return row.clone(), nil
}

func (m *memStore) Find(_ context.Context, td TableDef, q Query) ([]Row, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.queries = append(m.queries, q)

	var ids []int64
	for id := range m.table(td) {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []Row
	for _, id := range ids {
		row := m.table(td)[id]
		match := true
		for _, c := range q.Where {
			if row[c.Column] != c.Value {
				match = false
				break
			}
		}
		if !match {
			continue
		}

		if q.selectAll() {
			result = append(result, row.clone())
		} else {
			r := make(Row)
			for _, col := range q.Columns {
				r[col] = row[col]
			}
			result = append(result, r)
		}

		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}

	return result, nil
}

func (m *memStore) Insert(_ context.Context, td TableDef, data Row) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}

	m.nextID++
	m.put(td, m.nextID, data)
	return m.nextID, nil
}

func (m *memStore) Update(_ context.Context, td TableDef, id int64, data Row) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}

	if m.updateResult != nil {
		return *m.updateResult, nil
	}

	row, ok := m.table(td)[id]
	if !ok {
		return 0, nil
	}

	for k, v := range data {
		row[k] = v
	}
	return 1, nil
}

func (m *memStore) Delete(_ context.Context, td TableDef, id int64) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}

	if _, ok := m.table(td)[id]; !ok {
		return 0, nil
	}

	delete(m.table(td), id)
	return 1, nil
}

var errStoreDown = errors.New("store down")
