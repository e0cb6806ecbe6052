package slot

import "github.com/trezcool/backoffice/core"

// Overlaps is the half-open interval test: [s0,e0) and [s1,e1) intersect iff s0 < e1 && s1 < e0.
// Intervals that only touch do not overlap.
func Overlaps(s0, e0, s1, e1 int) bool {
	return s0 < e1 && s1 < e0
}

// findConflicts checks the candidate against existing slots of the same day.
// The instructor and room dimensions are checked independently; at most one conflict is reported per dimension.
func findConflicts(d Details, existing []TeachingSlot, excludeID string) []core.Conflict {
	start, end := d.Minutes()

	var instructorHit, roomHit *TeachingSlot
	for i := range existing {
		other := existing[i]
		if other.ID == excludeID || !other.IsActive() || other.DayOfWeek != d.DayOfWeek {
			continue
		}
		oStart, oEnd := other.Minutes()
		if !Overlaps(start, end, oStart, oEnd) {
			continue
		}
		if instructorHit == nil && other.InstructorID == d.InstructorID {
			instructorHit = &existing[i]
		}
		if roomHit == nil && other.RoomID == d.RoomID {
			roomHit = &existing[i]
		}
	}

	var conflicts []core.Conflict
	if instructorHit != nil {
		conflicts = append(conflicts, core.Conflict{Dimension: core.DimensionInstructor, SlotID: instructorHit.ID})
	}
	if roomHit != nil {
		conflicts = append(conflicts, core.Conflict{Dimension: core.DimensionRoom, SlotID: roomHit.ID})
	}
	return conflicts
}
