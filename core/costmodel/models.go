package costmodel

import (
	"strings"
	"time"

	"github.com/trezcool/backoffice/core"
)

type Type string

const (
	TypeHourly     Type = "hourly"
	TypePerSession Type = "per_session"
	TypeMonthly    Type = "monthly"
)

var AllTypes = []Type{TypeHourly, TypePerSession, TypeMonthly}

// CostModel is a time-bounded pay-rate rule for an instructor.
type CostModel struct {
	ID            string     `json:"id"`
	InstructorID  string     `json:"instructor_id"`
	Type          Type       `json:"type"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"` // nil: open-ended
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"-"`
}

// EffectiveAt reports whether effectiveFrom <= t <= effectiveTo (open-ended when effectiveTo is nil).
func (m CostModel) EffectiveAt(t time.Time) bool {
	if m.EffectiveFrom.After(t) {
		return false
	}
	return m.EffectiveTo == nil || !m.EffectiveTo.Before(t)
}

// Intersects reports whether the model's window intersects [start, endExclusive).
func (m CostModel) Intersects(start, endExclusive time.Time) bool {
	if !m.EffectiveFrom.Before(endExclusive) {
		return false
	}
	return m.EffectiveTo == nil || !m.EffectiveTo.Before(start)
}

// NewCostModel contains information needed to create a new CostModel.
type NewCostModel struct {
	InstructorID  string     `json:"instructor_id" validate:"required"`
	Type          Type       `json:"type" validate:"required,costmodeltype"`
	Amount        float64    `json:"amount" validate:"min=0"`
	Currency      string     `json:"currency" validate:"required,currency"`
	EffectiveFrom time.Time  `json:"effective_from" validate:"required"`
	EffectiveTo   *time.Time `json:"effective_to"`
	CreatedBy     string     `json:"created_by" validate:"required"`
}

func (nm *NewCostModel) Validate() error {
	nm.InstructorID = core.CleanString(nm.InstructorID)
	nm.Type = Type(core.CleanString(string(nm.Type), true /* lower */))
	nm.Currency = strings.ToUpper(core.CleanString(nm.Currency))
	nm.CreatedBy = core.CleanString(nm.CreatedBy)
	return core.ValidateStruct(nm)
}
