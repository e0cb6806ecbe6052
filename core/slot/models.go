package slot

import (
	"strings"
	"time"

	"github.com/trezcool/backoffice/core"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusOccupied Status = "occupied"
	StatusInactive Status = "inactive"
)

// Details holds the caller-controlled attributes of a TeachingSlot.
type Details struct {
	InstructorID        string     `json:"instructor_id" validate:"required"`
	RoomID              string     `json:"room_id" validate:"required"`
	CourseLevelID       string     `json:"course_level_id" validate:"required"`
	DayOfWeek           int        `json:"day_of_week" validate:"min=0,max=6"`
	StartTime           string     `json:"start_time" validate:"required,clock"`
	EndTime             string     `json:"end_time" validate:"required,clock"`
	EffectiveFrom       *time.Time `json:"effective_from"`
	EffectiveTo         *time.Time `json:"effective_to"`
	MinCapacity         int        `json:"min_capacity" validate:"min=0"`
	MaxCapacity         int        `json:"max_capacity" validate:"min=1"`
	PlannedSessions     int        `json:"planned_sessions" validate:"min=0"`
	SessionDurationMins int        `json:"session_duration_mins" validate:"min=0"`
	PricePerStudent     float64    `json:"price_per_student" validate:"min=0"`
	MinMarginPct        float64    `json:"min_margin_pct" validate:"min=0,max=100"`
	Currency            string     `json:"currency" validate:"required,currency"`
}

// Minutes returns the slot's [start, end) interval in minutes since midnight.
// Only meaningful on validated details.
func (d Details) Minutes() (start, end int) {
	start, _ = core.ParseClock(d.StartTime)
	end, _ = core.ParseClock(d.EndTime)
	return start, end
}

func (d Details) clean() Details {
	d.InstructorID = core.CleanString(d.InstructorID)
	d.RoomID = core.CleanString(d.RoomID)
	d.CourseLevelID = core.CleanString(d.CourseLevelID)
	d.StartTime = core.CleanString(d.StartTime)
	d.EndTime = core.CleanString(d.EndTime)
	d.Currency = strings.ToUpper(core.CleanString(d.Currency))
	return d
}

type TeachingSlot struct {
	ID string `json:"id"`
	Details
	Status         Status     `json:"status"`
	CurrentClassID string     `json:"current_class_id,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeleteReason   string     `json:"delete_reason,omitempty"`
}

func (s TeachingSlot) IsOccupied() bool { return s.Status == StatusOccupied }

// IsActive reports whether the slot takes part in the no-overlap invariant.
func (s TeachingSlot) IsActive() bool {
	return s.DeletedAt == nil && s.Status != StatusInactive
}

// NewSlot contains information needed to create a new TeachingSlot.
type NewSlot struct {
	Details
	CreatedBy string `json:"created_by" validate:"required"`
}

func (ns *NewSlot) Validate() error {
	ns.Details = ns.Details.clean()
	ns.CreatedBy = core.CleanString(ns.CreatedBy)
	return core.ValidateStruct(ns)
}

// UpdateSlot defines what information may be provided to modify an existing TeachingSlot.
// A nil field keeps the current value.
type UpdateSlot struct {
	InstructorID        *string    `json:"instructor_id"`
	RoomID              *string    `json:"room_id"`
	CourseLevelID       *string    `json:"course_level_id"`
	DayOfWeek           *int       `json:"day_of_week"`
	StartTime           *string    `json:"start_time"`
	EndTime             *string    `json:"end_time"`
	EffectiveFrom       *time.Time `json:"effective_from"`
	EffectiveTo         *time.Time `json:"effective_to"`
	ClearEffectiveDates bool       `json:"clear_effective_dates"` // drops both bounds before applying the above
	MinCapacity         *int       `json:"min_capacity"`
	MaxCapacity         *int       `json:"max_capacity"`
	PlannedSessions     *int       `json:"planned_sessions"`
	SessionDurationMins *int       `json:"session_duration_mins"`
	PricePerStudent     *float64   `json:"price_per_student"`
	MinMarginPct        *float64   `json:"min_margin_pct"`
	Currency            *string    `json:"currency"`
	UpdatedBy           string     `json:"updated_by"`
}

// Merge returns a new Details value with the patch applied onto orig. orig is left untouched.
func (u UpdateSlot) Merge(orig Details) Details {
	d := orig
	if u.InstructorID != nil {
		d.InstructorID = *u.InstructorID
	}
	if u.RoomID != nil {
		d.RoomID = *u.RoomID
	}
	if u.CourseLevelID != nil {
		d.CourseLevelID = *u.CourseLevelID
	}
	if u.DayOfWeek != nil {
		d.DayOfWeek = *u.DayOfWeek
	}
	if u.StartTime != nil {
		d.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		d.EndTime = *u.EndTime
	}
	if u.ClearEffectiveDates {
		d.EffectiveFrom, d.EffectiveTo = nil, nil
	}
	if u.EffectiveFrom != nil {
		t := *u.EffectiveFrom
		d.EffectiveFrom = &t
	}
	if u.EffectiveTo != nil {
		t := *u.EffectiveTo
		d.EffectiveTo = &t
	}
	if u.MinCapacity != nil {
		d.MinCapacity = *u.MinCapacity
	}
	if u.MaxCapacity != nil {
		d.MaxCapacity = *u.MaxCapacity
	}
	if u.PlannedSessions != nil {
		d.PlannedSessions = *u.PlannedSessions
	}
	if u.SessionDurationMins != nil {
		d.SessionDurationMins = *u.SessionDurationMins
	}
	if u.PricePerStudent != nil {
		d.PricePerStudent = *u.PricePerStudent
	}
	if u.MinMarginPct != nil {
		d.MinMarginPct = *u.MinMarginPct
	}
	if u.Currency != nil {
		d.Currency = *u.Currency
	}
	return d.clean()
}

// QueryFilter applies AND operation on the set fields. Tombstoned slots are never returned.
type QueryFilter struct {
	InstructorID string
	RoomID       string
	DayOfWeek    *int
	Statuses     []Status
}
