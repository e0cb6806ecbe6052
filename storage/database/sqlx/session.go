package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/backoffice/core/session"
)

type sessionRow struct {
	ID              string    `db:"id"`
	ClassID         string    `db:"class_id"`
	InstructorID    string    `db:"instructor_id"`
	ScheduledDate   time.Time `db:"scheduled_date"`
	StartTime       time.Time `db:"start_time"`
	EndTime         time.Time `db:"end_time"`
	Status          string    `db:"status"`
	AttendanceCount int       `db:"attendance_count"`
}

func (r sessionRow) toSession() session.Session {
	return session.Session{
		ID:              r.ID,
		ClassID:         r.ClassID,
		InstructorID:    r.InstructorID,
		ScheduledDate:   r.ScheduledDate.UTC(),
		StartTime:       r.StartTime.UTC(),
		EndTime:         r.EndTime.UTC(),
		Status:          session.Status(r.Status),
		AttendanceCount: r.AttendanceCount,
	}
}

const completedSessionsQuery = `
SELECT s.id, s.class_id, s.instructor_id, s.scheduled_date, s.start_time, s.end_time, s.status,
       COUNT(a.id) AS attendance_count
FROM class_sessions s
LEFT JOIN attendance_records a ON a.session_id = s.id
WHERE s.instructor_id = $1 AND s.status = $2 AND s.scheduled_date >= $3 AND s.scheduled_date < $4
GROUP BY s.id
ORDER BY s.start_time, s.id`

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) QueryCompletedSessions(ctx context.Context, instructorID string, from, to time.Time) ([]session.Session, error) {
	if !validID(instructorID) {
		return nil, nil
	}

	var rows []sessionRow
	err := sqlx.SelectContext(ctx, repo.db.exec(ctx), &rows, completedSessionsQuery,
		instructorID, string(session.StatusCompleted), from.UTC(), to.UTC())
	if err != nil {
		return nil, mapErr(err, "querying completed sessions")
	}
	sessions := make([]session.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toSession())
	}
	return sessions, nil
}
