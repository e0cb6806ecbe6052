// Package session describes the delivered class sessions that payroll reads.
// Sessions and their attendance are produced by scheduling; nothing here writes them.
package session

import (
	"context"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Session struct {
	ID              string    `json:"id"`
	ClassID         string    `json:"class_id"`
	InstructorID    string    `json:"instructor_id"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          Status    `json:"status"`
	AttendanceCount int       `json:"attendance_count"`
}

// DurationMinutes is the session length rounded to the nearest minute.
func (s Session) DurationMinutes() int {
	d := s.EndTime.Sub(s.StartTime).Round(time.Minute)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func (s Session) HasAttendance() bool { return s.AttendanceCount > 0 }

type AttendanceRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	StudentID  string    `json:"student_id"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Repository interface {
	// QueryCompletedSessions returns the instructor's completed sessions scheduled in [from, to),
	// each with its attendance count, ordered by start time.
	QueryCompletedSessions(ctx context.Context, instructorID string, from, to time.Time) ([]Session, error)
}
