// Package testutil wires the services on the in-memory store and creates fixtures.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/costmodel"
	"github.com/trezcool/backoffice/core/instructor"
	"github.com/trezcool/backoffice/core/payroll"
	"github.com/trezcool/backoffice/core/session"
	"github.com/trezcool/backoffice/core/slot"
	"github.com/trezcool/backoffice/storage/database/inmem"
)

const DefaultCurrency = "EGP"

// LogEntry is one call captured by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records log calls instead of printing them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Levels returns the levels logged so far, in order.
func (l *Logger) Levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	levels := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		levels = append(levels, e.Level)
	}
	return levels
}

// Env bundles the services wired on a fresh in-memory store.
type Env struct {
	DB          *inmemdb.DB
	Clock       core.FixedClock
	Logger      *Logger
	Instructors instructor.Repository
	Slots       *slot.Allocator
	SlotRepo    slot.Repository
	CostModels  *costmodel.Service
	Resolver    *costmodel.Resolver
	Payroll     *payroll.Generator
	PayrollRepo payroll.Repository
}

func NewEnv(t *testing.T, now time.Time) *Env {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}

	clock := core.FixedClock(now.UTC())
	logger := new(Logger)
	audit := inmemdb.NewAuditRecorder(db)
	insts := inmemdb.NewInstructorRepository(db)
	slotRepo := inmemdb.NewSlotRepository(db)
	cmRepo := inmemdb.NewCostModelRepository(db)
	payRepo := inmemdb.NewPayrollRepository(db)
	resolver := costmodel.NewResolver(cmRepo)

	return &Env{
		DB:          db,
		Clock:       clock,
		Logger:      logger,
		Instructors: insts,
		Slots:       slot.NewAllocator(db, slotRepo, audit, clock),
		SlotRepo:    slotRepo,
		CostModels:  costmodel.NewService(db, cmRepo, insts, audit, clock),
		Resolver:    resolver,
		Payroll: payroll.NewGenerator(
			db, payRepo, insts, inmemdb.NewSessionRepository(db), resolver, audit, clock, logger,
			payroll.Options{DefaultCurrency: DefaultCurrency},
		),
		PayrollRepo: payRepo,
	}
}

func CreateInstructor(t *testing.T, db *inmemdb.DB, name string) instructor.Instructor {
	return db.SaveInstructor(instructor.Instructor{
		Name:      name,
		Email:     fmt.Sprintf("%s@test.test", name),
		CreatedAt: time.Now().UTC(),
	})
}

// CreateSession stores a completed session lasting minutes, with attendees attendance records.
func CreateSession(t *testing.T, db *inmemdb.DB, instructorID string, start time.Time, minutes, attendees int) session.Session {
	start = start.UTC()
	s := db.SaveSession(session.Session{
		ClassID:       "class-" + instructorID,
		InstructorID:  instructorID,
		ScheduledDate: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:     start,
		EndTime:       start.Add(time.Duration(minutes) * time.Minute),
		Status:        session.StatusCompleted,
	})
	for i := 0; i < attendees; i++ {
		db.AddAttendance(session.AttendanceRecord{
			SessionID:  s.ID,
			StudentID:  fmt.Sprintf("student-%d", i+1),
			Status:     "present",
			RecordedAt: s.EndTime,
		})
	}
	s.AttendanceCount = attendees
	return s
}

func CreateCostModel(
	t *testing.T,
	svc *costmodel.Service,
	instructorID string,
	typ costmodel.Type,
	amount float64,
	from time.Time,
	to *time.Time,
	currency ...string,
) costmodel.CostModel {
	cur := DefaultCurrency
	if len(currency) > 0 {
		cur = currency[0]
	}
	m, err := svc.Create(context.Background(), costmodel.NewCostModel{
		InstructorID:  instructorID,
		Type:          typ,
		Amount:        amount,
		Currency:      cur,
		EffectiveFrom: from,
		EffectiveTo:   to,
		CreatedBy:     "admin",
	})
	if err != nil {
		t.Fatalf("CreateCostModel() failed: %v", err)
	}
	return m
}

// NewSlotDetails returns valid details for a weekday slot between start and end ("HH:mm").
func NewSlotDetails(instructorID, roomID string, day int, start, end string) slot.Details {
	return slot.Details{
		InstructorID:    instructorID,
		RoomID:          roomID,
		CourseLevelID:   "level-1",
		DayOfWeek:       day,
		StartTime:       start,
		EndTime:         end,
		MinCapacity:     4,
		MaxCapacity:     12,
		PlannedSessions: 8,
		PricePerStudent: 500,
		MinMarginPct:    20,
		Currency:        DefaultCurrency,
	}
}

func TimePtr(t time.Time) *time.Time { return &t }
