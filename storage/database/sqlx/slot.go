package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/slot"
)

type slotRow struct {
	ID                  string      `db:"id"`
	InstructorID        string      `db:"instructor_id"`
	RoomID              string      `db:"room_id"`
	CourseLevelID       string      `db:"course_level_id"`
	DayOfWeek           int         `db:"day_of_week"`
	StartTime           string      `db:"start_time"`
	EndTime             string      `db:"end_time"`
	StartMinute         int         `db:"start_minute"`
	EndMinute           int         `db:"end_minute"`
	EffectiveFrom       null.Time   `db:"effective_from"`
	EffectiveTo         null.Time   `db:"effective_to"`
	MinCapacity         int         `db:"min_capacity"`
	MaxCapacity         int         `db:"max_capacity"`
	PlannedSessions     int         `db:"planned_sessions"`
	SessionDurationMins int         `db:"session_duration_mins"`
	PricePerStudent     float64     `db:"price_per_student"`
	MinMarginPct        float64     `db:"min_margin_pct"`
	Currency            string      `db:"currency"`
	Status              string      `db:"status"`
	CurrentClassID      null.String `db:"current_class_id"`
	CreatedBy           string      `db:"created_by"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
	DeletedAt           null.Time   `db:"deleted_at"`
	DeleteReason        null.String `db:"delete_reason"`
}

func newSlotRow(s slot.TeachingSlot) slotRow {
	start, end := s.Minutes()
	return slotRow{
		ID:                  s.ID,
		InstructorID:        s.InstructorID,
		RoomID:              s.RoomID,
		CourseLevelID:       s.CourseLevelID,
		DayOfWeek:           s.DayOfWeek,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		StartMinute:         start,
		EndMinute:           end,
		EffectiveFrom:       null.TimeFromPtr(s.EffectiveFrom),
		EffectiveTo:         null.TimeFromPtr(s.EffectiveTo),
		MinCapacity:         s.MinCapacity,
		MaxCapacity:         s.MaxCapacity,
		PlannedSessions:     s.PlannedSessions,
		SessionDurationMins: s.SessionDurationMins,
		PricePerStudent:     s.PricePerStudent,
		MinMarginPct:        s.MinMarginPct,
		Currency:            s.Currency,
		Status:              string(s.Status),
		CurrentClassID:      null.NewString(s.CurrentClassID, s.CurrentClassID != ""),
		CreatedBy:           s.CreatedBy,
		CreatedAt:           s.CreatedAt.UTC(),
		UpdatedAt:           s.UpdatedAt.UTC(),
		DeletedAt:           null.TimeFromPtr(s.DeletedAt),
		DeleteReason:        null.NewString(s.DeleteReason, s.DeleteReason != ""),
	}
}

func (r slotRow) toSlot() slot.TeachingSlot {
	return slot.TeachingSlot{
		ID: r.ID,
		Details: slot.Details{
			InstructorID:        r.InstructorID,
			RoomID:              r.RoomID,
			CourseLevelID:       r.CourseLevelID,
			DayOfWeek:           r.DayOfWeek,
			StartTime:           r.StartTime,
			EndTime:             r.EndTime,
			EffectiveFrom:       r.EffectiveFrom.Ptr(),
			EffectiveTo:         r.EffectiveTo.Ptr(),
			MinCapacity:         r.MinCapacity,
			MaxCapacity:         r.MaxCapacity,
			PlannedSessions:     r.PlannedSessions,
			SessionDurationMins: r.SessionDurationMins,
			PricePerStudent:     r.PricePerStudent,
			MinMarginPct:        r.MinMarginPct,
			Currency:            r.Currency,
		},
		Status:         slot.Status(r.Status),
		CurrentClassID: r.CurrentClassID.String,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		DeletedAt:      r.DeletedAt.Ptr(),
		DeleteReason:   r.DeleteReason.String,
	}
}

func toSlots(rows []slotRow) []slot.TeachingSlot {
	slots := make([]slot.TeachingSlot, 0, len(rows))
	for _, r := range rows {
		slots = append(slots, r.toSlot())
	}
	return slots
}

const (
	slotColumns = `id, instructor_id, room_id, course_level_id, day_of_week, start_time, end_time,
start_minute, end_minute, effective_from, effective_to, min_capacity, max_capacity, planned_sessions,
session_duration_mins, price_per_student, min_margin_pct, currency, status, current_class_id,
created_by, created_at, updated_at, deleted_at, delete_reason`

	slotOrdering = " ORDER BY day_of_week, start_minute, id"

	insertSlotQuery = `INSERT INTO teaching_slots (` + slotColumns + `) VALUES (
:id, :instructor_id, :room_id, :course_level_id, :day_of_week, :start_time, :end_time,
:start_minute, :end_minute, :effective_from, :effective_to, :min_capacity, :max_capacity, :planned_sessions,
:session_duration_mins, :price_per_student, :min_margin_pct, :currency, :status, :current_class_id,
:created_by, :created_at, :updated_at, :deleted_at, :delete_reason)`

	updateSlotQuery = `UPDATE teaching_slots SET
instructor_id = :instructor_id, room_id = :room_id, course_level_id = :course_level_id,
day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
start_minute = :start_minute, end_minute = :end_minute,
effective_from = :effective_from, effective_to = :effective_to,
min_capacity = :min_capacity, max_capacity = :max_capacity, planned_sessions = :planned_sessions,
session_duration_mins = :session_duration_mins, price_per_student = :price_per_student,
min_margin_pct = :min_margin_pct, currency = :currency, status = :status,
current_class_id = :current_class_id, updated_at = :updated_at,
deleted_at = :deleted_at, delete_reason = :delete_reason
WHERE id = :id AND deleted_at IS NULL`
)

type slotRepository struct {
	db *DB
}

var _ slot.Repository = (*slotRepository)(nil) // interface compliance check

func NewSlotRepository(db *DB) slot.Repository {
	return &slotRepository{db: db}
}

func (repo *slotRepository) CreateSlot(ctx context.Context, s slot.TeachingSlot) (slot.TeachingSlot, error) {
	s.ID = newID()
	if _, err := sqlx.NamedExecContext(ctx, repo.db.exec(ctx), insertSlotQuery, newSlotRow(s)); err != nil {
		return slot.TeachingSlot{}, mapErr(err, "inserting teaching slot")
	}
	return s, nil
}

func (repo *slotRepository) GetSlot(ctx context.Context, id string) (slot.TeachingSlot, error) {
	if !validID(id) {
		return slot.TeachingSlot{}, core.NewNotFoundError("teaching slot", id)
	}
	w := liveWhere().add("id = ?", id)
	q := "SELECT " + slotColumns + " FROM teaching_slots " + w.String()
	if _, ok := txFrom(ctx); ok {
		q += " FOR UPDATE"
	}

	var row slotRow
	if err := sqlx.GetContext(ctx, repo.db.exec(ctx), &row, q, w.args...); err != nil {
		return slot.TeachingSlot{}, trapNoRowsErr(err, "teaching slot", id, "getting teaching slot")
	}
	return row.toSlot(), nil
}

func (repo *slotRepository) QuerySlots(ctx context.Context, filter slot.QueryFilter) ([]slot.TeachingSlot, error) {
	w := liveWhere()
	if filter.InstructorID != "" {
		if !validID(filter.InstructorID) {
			return nil, nil
		}
		w.add("instructor_id = ?", filter.InstructorID)
	}
	if filter.RoomID != "" {
		w.add("room_id = ?", filter.RoomID)
	}
	if filter.DayOfWeek != nil {
		w.add("day_of_week = ?", *filter.DayOfWeek)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		w.add("status = ANY(?)", pq.Array(statuses))
	}

	var rows []slotRow
	q := "SELECT " + slotColumns + " FROM teaching_slots " + w.String() + slotOrdering
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, q, w.args...); err != nil {
		return nil, mapErr(err, "querying teaching slots")
	}
	return toSlots(rows), nil
}

func (repo *slotRepository) QueryDaySlots(ctx context.Context, dayOfWeek int, instructorID, roomID string) ([]slot.TeachingSlot, error) {
	w := liveWhere().add("day_of_week = ?", dayOfWeek)
	if validID(instructorID) {
		w.add("(instructor_id = ? OR room_id = ?)", instructorID, roomID)
	} else {
		w.add("room_id = ?", roomID)
	}

	var rows []slotRow
	q := "SELECT " + slotColumns + " FROM teaching_slots " + w.String() + slotOrdering
	if err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, q, w.args...); err != nil {
		return nil, mapErr(err, "querying day slots")
	}
	return toSlots(rows), nil
}

func (repo *slotRepository) UpdateSlot(ctx context.Context, s slot.TeachingSlot) (slot.TeachingSlot, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.db.exec(ctx), updateSlotQuery, newSlotRow(s))
	if err != nil {
		return slot.TeachingSlot{}, mapErr(err, "updating teaching slot")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return slot.TeachingSlot{}, core.NewNotFoundError("teaching slot", s.ID)
	}
	return s, nil
}
