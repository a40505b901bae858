package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when an insert or update violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrHasDependents is returned when a delete is refused because other rows still reference the record.
	ErrHasDependents = errors.New("record is still referenced")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// withTx runs fn inside a transaction and commits when it returns nil.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// expectOneRow turns an UPDATE or DELETE that matched nothing into sql.ErrNoRows.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// pageBounds normalises page values into LIMIT/OFFSET.
func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", pqErr.Constraint, ErrDuplicate)
		case "23503":
			return fmt.Errorf("%s: %w", pqErr.Constraint, ErrHasDependents)
		}
	}
	return err
}

// whereBuilder accumulates positional SQL conditions.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	out := " WHERE " + w.conds[0]
	for _, c := range w.conds[1:] {
		out += " AND " + c
	}
	return out
}

// pageQuery describes one paginated listing of a table.
type pageQuery struct {
	table    string
	columns  string
	where    whereBuilder
	orderBy  string
	page     int
	pageSize int
}

// selectPage fills dest with the requested page and returns the total number
// of matching rows.
func selectPage(ctx context.Context, db *sqlx.DB, dest interface{}, q pageQuery) (int, error) {
	limit, offset := pageBounds(q.page, q.pageSize)
	list := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT %d OFFSET %d", q.columns, q.table, q.where.sql(), q.orderBy, limit, offset)
	if err := db.SelectContext(ctx, dest, list, q.where.args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", q.table, err)
	}
	var total int
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+q.table+q.where.sql(), q.where.args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.table, err)
	}
	return total, nil
}
