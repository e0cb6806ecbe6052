package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/backoffice/core"
	"github.com/trezcool/backoffice/core/slot"
)

type slotRepository struct {
	db *DB
}

var _ slot.Repository = (*slotRepository)(nil) // interface compliance check

func NewSlotRepository(db *DB) slot.Repository {
	return &slotRepository{db: db}
}

// live returns the non-tombstoned slots matching keep, ordered by day and start time.
func (repo *slotRepository) live(keep func(slot.TeachingSlot) bool) []slot.TeachingSlot {
	var slots []slot.TeachingSlot
	for _, s := range repo.db.t.slots {
		if s.DeletedAt == nil && keep(s) {
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].ID < slots[j].ID
	})
	return slots
}

func (repo *slotRepository) CreateSlot(ctx context.Context, s slot.TeachingSlot) (slot.TeachingSlot, error) {
	defer repo.db.lock(ctx)()

	s.ID = newID()
	repo.db.t.slots[s.ID] = s
	return s, nil
}

func (repo *slotRepository) GetSlot(ctx context.Context, id string) (slot.TeachingSlot, error) {
	defer repo.db.lock(ctx)()

	if s, ok := repo.db.t.slots[id]; ok && s.DeletedAt == nil {
		return s, nil
	}
	return slot.TeachingSlot{}, core.NewNotFoundError("teaching slot", id)
}

func (repo *slotRepository) QuerySlots(ctx context.Context, filter slot.QueryFilter) ([]slot.TeachingSlot, error) {
	defer repo.db.lock(ctx)()

	return repo.live(func(s slot.TeachingSlot) bool {
		if filter.InstructorID != "" && s.InstructorID != filter.InstructorID {
			return false
		}
		if filter.RoomID != "" && s.RoomID != filter.RoomID {
			return false
		}
		if filter.DayOfWeek != nil && s.DayOfWeek != *filter.DayOfWeek {
			return false
		}
		if len(filter.Statuses) > 0 {
			for _, st := range filter.Statuses {
				if s.Status == st {
					return true
				}
			}
			return false
		}
		return true
	}), nil
}

func (repo *slotRepository) QueryDaySlots(ctx context.Context, dayOfWeek int, instructorID, roomID string) ([]slot.TeachingSlot, error) {
	defer repo.db.lock(ctx)()

	return repo.live(func(s slot.TeachingSlot) bool {
		return s.DayOfWeek == dayOfWeek && (s.InstructorID == instructorID || s.RoomID == roomID)
	}), nil
}

func (repo *slotRepository) UpdateSlot(ctx context.Context, s slot.TeachingSlot) (slot.TeachingSlot, error) {
	defer repo.db.lock(ctx)()

	if orig, ok := repo.db.t.slots[s.ID]; !ok || orig.DeletedAt != nil {
		return slot.TeachingSlot{}, core.NewNotFoundError("teaching slot", s.ID)
	}
	repo.db.t.slots[s.ID] = s
	return s, nil
}
