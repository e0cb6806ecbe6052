package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/backoffice/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) QueryCompletedSessions(ctx context.Context, instructorID string, from, to time.Time) ([]session.Session, error) {
	defer repo.db.lock(ctx)()

	var sessions []session.Session
	for _, s := range repo.db.t.sessions {
		if s.InstructorID != instructorID || s.Status != session.StatusCompleted {
			continue
		}
		if s.ScheduledDate.Before(from) || !s.ScheduledDate.Before(to) {
			continue
		}
		s.AttendanceCount = len(repo.db.t.attendance[s.ID])
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// SaveSession inserts or replaces a session. Sessions are produced by scheduling; this feeds tests and tooling.
func (db *DB) SaveSession(s session.Session) session.Session {
	db.mu.Lock()
	defer db.mu.Unlock()

	if s.ID == "" {
		s.ID = newID()
	}
	s.AttendanceCount = 0
	db.t.sessions[s.ID] = s
	return s
}

// AddAttendance records attendance against a session.
func (db *DB) AddAttendance(rec session.AttendanceRecord) session.AttendanceRecord {
	db.mu.Lock()
	defer db.mu.Unlock()

	if rec.ID == "" {
		rec.ID = newID()
	}
	db.t.attendance[rec.SessionID] = append(db.t.attendance[rec.SessionID], rec)
	return rec
}
