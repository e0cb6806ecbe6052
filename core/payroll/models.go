package payroll

import (
	"time"

	"github.com/pkg/errors"
)

type Status string

// Generation only ever creates drafts; later transitions belong to the approval workflow.
const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusVoid     Status = "void"
)

// ErrPayrollExists is returned by Repository.CreatePayroll when a non-void payroll already holds the period.
var ErrPayrollExists = errors.New("a payroll already exists for this instructor and period")

// InstructorPayroll is the monthly payroll aggregate of one instructor.
type InstructorPayroll struct {
	ID           string     `json:"id"`
	InstructorID string     `json:"instructor_id"`
	PeriodYear   int        `json:"period_year"`
	PeriodMonth  int        `json:"period_month"`
	Status       Status     `json:"status"`
	Currency     string     `json:"currency"`
	TotalAmount  float64    `json:"total_amount"`
	Snapshot     Snapshot   `json:"snapshot"`
	GeneratedBy  string     `json:"generated_by"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"-"`
}

func (p InstructorPayroll) IsVoid() bool { return p.Status == StatusVoid }

// InstructorSession is the priced line item of one session. One row per session.
type InstructorSession struct {
	SessionID          string    `json:"session_id"`
	InstructorID       string    `json:"instructor_id"`
	CostModelID        string    `json:"cost_model_id,omitempty"` // empty when no model applied
	CostAmount         float64   `json:"cost_amount"`
	Currency           string    `json:"currency"`
	DurationMinutes    int       `json:"duration_minutes"`
	AttendanceComplete bool      `json:"attendance_complete"`
	CalculatedAt       time.Time `json:"calculated_at"`
	PayrollID          string    `json:"payroll_id"`
}

// Period is a billing month with its UTC [Start, End) boundaries.
type Period struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end_exclusive"`
}

// Result statuses
const (
	ResultCreated    = "created"
	ResultExists     = "exists"
	ResultNoSessions = "no_sessions"
	ResultFailed     = "failed"
)

// Result is the outcome of one instructor within a Generate call.
type Result struct {
	InstructorID string `json:"instructor_id"`
	Status       string `json:"status"`
	PayrollID    string `json:"payroll_id,omitempty"`
	Err          error  `json:"-"`
}

// Report is returned by Generate. Generation is per instructor, not all-or-nothing across the batch:
// results of other instructors are committed independently of a failed one.
type Report struct {
	Period  Period   `json:"period"`
	Results []Result `json:"results"`
}

// Failed returns the results that did not commit.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Status == ResultFailed {
			failed = append(failed, res)
		}
	}
	return failed
}
