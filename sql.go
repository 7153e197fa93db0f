package dbobj

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore runs object statements through sqlx. Placeholders are rebound to
// the bind type of the driver the DB was opened with.
type SQLStore struct {
	db     *sqlx.DB
	tracer tracer
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *sqlx.DB, options ...StoreOption) *SQLStore {
	opt := newStoreOption(options)

	return &SQLStore{
		db: db,
		tracer: tracer{
			logger:        opt.logger.With(zapDriver(db.DriverName())),
			slowThreshold: opt.slowThreshold,
		},
	}
}

func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) FindByKey(ctx context.Context, td TableDef, id int64) (Row, error) {
	qry := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", td.FullTableName(), td.KeyField)
	qry = s.db.Rebind(qry)

	begin := time.Now()
	row := make(map[string]any)
	err := s.db.QueryRowxContext(ctx, qry, id).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		s.tracer.trace(begin, qry, 0, nil)
		return nil, nil
	}

	err = wrapSQLError(err)
	s.tracer.trace(begin, qry, 1, err)
	if err != nil {
		return nil, err
	}

	return normalizeRow(row), nil
}

func (s *SQLStore) Find(ctx context.Context, td TableDef, q Query) ([]Row, error) {
	qry, args := createSelectQuery(td, q)
	qry = s.db.Rebind(qry)

	begin := time.Now()
	rows, err := s.db.QueryxContext(ctx, qry, args...)
	if err != nil {
		err = wrapSQLError(err)
		s.tracer.trace(begin, qry, -1, err)
		return nil, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			s.tracer.trace(begin, qry, int64(len(result)), err)
			return nil, err
		}

		result = append(result, normalizeRow(row))
	}

	err = wrapSQLError(rows.Err())
	s.tracer.trace(begin, qry, int64(len(result)), err)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *SQLStore) Insert(ctx context.Context, td TableDef, data Row) (int64, error) {
	cols := orderedColumns(td, data)

	emptyValues := "DEFAULT VALUES"
	if s.db.DriverName() == "mysql" {
		emptyValues = "() VALUES ()"
	}

	qry, args := createInsertQuery(td, cols, data, emptyValues)

	if sqlx.BindType(s.db.DriverName()) == sqlx.DOLLAR {
		return s.insertReturning(ctx, td, qry, args)
	}

	qry = s.db.Rebind(qry)

	begin := time.Now()
	res, err := s.db.ExecContext(ctx, qry, args...)
	if err != nil {
		err = wrapSQLError(err)
		s.tracer.trace(begin, qry, -1, err)
		return 0, err
	}

	id, err := res.LastInsertId()
	s.tracer.trace(begin, qry, 1, err)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// insertReturning reads the generated key back with RETURNING, since the
// postgres drivers do not implement LastInsertId.
func (s *SQLStore) insertReturning(ctx context.Context, td TableDef, qry string, args []any) (int64, error) {
	qry = s.db.Rebind(fmt.Sprintf("%s RETURNING %s", qry, td.KeyField))

	begin := time.Now()
	var id int64
	err := wrapSQLError(s.db.QueryRowxContext(ctx, qry, args...).Scan(&id))
	s.tracer.trace(begin, qry, 1, err)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (s *SQLStore) Update(ctx context.Context, td TableDef, id int64, data Row) (int64, error) {
	cols := orderedColumns(td, data)
	if len(cols) == 0 {
		return 0, nil
	}

	qry, args := createUpdateQuery(td, id, cols, data)
	return s.exec(ctx, qry, args)
}

func (s *SQLStore) Delete(ctx context.Context, td TableDef, id int64) (int64, error) {
	qry, args := createDeleteQuery(td, id)
	return s.exec(ctx, qry, args)
}

func (s *SQLStore) exec(ctx context.Context, qry string, args []any) (int64, error) {
	qry = s.db.Rebind(qry)

	begin := time.Now()
	res, err := s.db.ExecContext(ctx, qry, args...)
	if err != nil {
		err = wrapSQLError(err)
		s.tracer.trace(begin, qry, -1, err)
		return 0, err
	}

	n, err := res.RowsAffected()
	s.tracer.trace(begin, qry, n, err)
	if err != nil {
		return 0, err
	}

	return n, nil
}
