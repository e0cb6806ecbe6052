// Package inmemdb is an in-memory store used by tests and local tooling.
// Transactions are serialized: InTx holds the store lock for the whole unit of work
// and restores the tables on error or panic.
package inmemdb

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/instructor"
	"github.com/trezcool/backoffice/core/payroll"
	"github.com/trezcool/backoffice/core/session"
	"github.com/trezcool/backoffice/core/slot"
)

type (
	tables struct {
		instructors        map[string]instructor.Instructor
		slots              map[string]slot.TeachingSlot
		costModels         map[string]costmodel.CostModel
		sessions           map[string]session.Session
		attendance         map[string][]session.AttendanceRecord // by session ID
		payrolls           map[string]payroll.InstructorPayroll
		instructorSessions map[string]payroll.InstructorSession // by session ID
		audit              []core.AuditEntry
	}

	DB struct {
		mu sync.Mutex
		t  *tables
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func newTables() *tables {
	return &tables{
		instructors:        make(map[string]instructor.Instructor),
		slots:              make(map[string]slot.TeachingSlot),
		costModels:         make(map[string]costmodel.CostModel),
		sessions:           make(map[string]session.Session),
		attendance:         make(map[string][]session.AttendanceRecord),
		payrolls:           make(map[string]payroll.InstructorPayroll),
		instructorSessions: make(map[string]payroll.InstructorSession),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.instructors {
		c.instructors[k] = v
	}
	for k, v := range t.slots {
		c.slots[k] = v
	}
	for k, v := range t.costModels {
		c.costModels[k] = v
	}
	for k, v := range t.sessions {
		c.sessions[k] = v
	}
	for k, v := range t.attendance {
		c.attendance[k] = append([]session.AttendanceRecord(nil), v...)
	}
	for k, v := range t.payrolls {
		c.payrolls[k] = v
	}
	for k, v := range t.instructorSessions {
		c.instructorSessions[k] = v
	}
	c.audit = append([]core.AuditEntry(nil), t.audit...)
	return c
}

func Open() (*DB, error) {
	return &DB{t: newTables()}, nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock acquires the store lock unless ctx already runs inside InTx, which holds it.
func (db *DB) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	backup := db.t.clone()
	defer func() {
		if p := recover(); p != nil {
			db.t = backup
			panic(p)
		}
		if err != nil {
			db.t = backup
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func newID() string {
	return uuid.New().String()
}
