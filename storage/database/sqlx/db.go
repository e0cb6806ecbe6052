// Package sqlxrepos implements the repositories on Postgres through sqlx.
// The transaction opened by DB.InTx travels in the context; every repository call made with
// that context runs on it.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/payroll"
)

// constraint names declared by the migrations
const (
	instructorExclusion = "teaching_slots_instructor_excl"
	roomExclusion       = "teaching_slots_room_excl"
	payrollPeriodUnique = "instructor_payrolls_period_uniq"

	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
)

type (
	DB struct {
		db *sqlx.DB
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func NewDB(db *sqlx.DB) *DB {
	return &DB{db: db}
}

func txFrom(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// exec returns the transaction carried by ctx, or the pool.
func (s *DB) exec(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return s.db
}

func (s *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = errors.Wrap(err, "committing transaction")
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, tx))
}

// mapErr translates the constraint violations the services rely on; anything else is wrapped with msg.
func mapErr(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeExclusionViolation && pqErr.Constraint == instructorExclusion:
			return core.NewConflictError(core.Conflict{Dimension: core.DimensionInstructor})
		case pqErr.Code == codeExclusionViolation && pqErr.Constraint == roomExclusion:
			return core.NewConflictError(core.Conflict{Dimension: core.DimensionRoom})
		case pqErr.Code == codeUniqueViolation && pqErr.Constraint == payrollPeriodUnique:
			return payroll.ErrPayrollExists
		}
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr maps "no rows" to a *core.NotFoundError.
func trapNoRowsErr(err error, entity, id, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewNotFoundError(entity, id)
	}
	return errors.Wrap(err, msg)
}

// validID rejects ids Postgres would refuse to cast to uuid, which can only be unknown.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// where accumulates positional conditions.
type where struct {
	conds []string
	args  []interface{}
}

// liveWhere starts a condition set with the default tombstone filter.
func liveWhere(alias ...string) *where {
	col := "deleted_at"
	if len(alias) > 0 {
		col = alias[0] + ".deleted_at"
	}
	return &where{conds: []string{col + " IS NULL"}}
}

// add appends cond, in which every "?" is replaced by the next positional parameter.
func (w *where) add(cond string, args ...interface{}) *where {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
	return w
}

func (w *where) String() string {
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func orderBy(ords ...core.DBOrdering) string {
	if len(ords) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ords))
	for _, ord := range ords {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func newID() string {
	return uuid.New().String()
}
