package dbobj

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func wrapSQLError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %w", ErrKeyAlreadyExists, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %w", ErrKeyAlreadyExists, err)
	}

	return err
}

// createSelectQuery renders q with ? placeholders.
func createSelectQuery(td TableDef, q Query) (qry string, args []any) {
	columns := "*"
	if len(q.Columns) > 0 {
		columns = strings.Join(q.Columns, ",")
	}

	where, args := createWhereClause(q.Where)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT %s FROM %s", columns, td.FullTableName()))
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}

	return sb.String(), args
}

func createWhereClause(conds []Cond) (string, []any) {
	where := ""
	var args []any
	for _, c := range conds {
		if len(where) > 0 {
			where += " AND "
		}
		where += c.Column + " = ?"
		args = append(args, c.Value)
	}

	return where, args
}

func createInsertQuery(td TableDef, cols []string, data Row, emptyValues string) (qry string, args []any) {
	if len(cols) == 0 {
		return fmt.Sprintf("INSERT INTO %s %s", td.FullTableName(), emptyValues), nil
	}

	for _, c := range cols {
		args = append(args, data[c])
	}

	pl := "?" + strings.Repeat(",?", len(cols)-1)
	qry = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", td.FullTableName(), strings.Join(cols, ","), pl)
	return
}

func createUpdateQuery(td TableDef, id int64, cols []string, data Row) (qry string, args []any) {
	var sets []string
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = ?", c))
		args = append(args, data[c])
	}

	qry = fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", td.FullTableName(), strings.Join(sets, ","), td.KeyField)
	args = append(args, id)
	return
}

func createDeleteQuery(td TableDef, id int64) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", td.FullTableName(), td.KeyField), []any{id}
}

// normalizeRow turns driver byte slices into strings so callers see text
// columns the same way on every driver.
func normalizeRow(row map[string]any) Row {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}

	return Row(row)
}
