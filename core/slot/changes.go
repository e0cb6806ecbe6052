package slot

import "time"

func detailsMap(d Details) map[string]interface{} {
	return map[string]interface{}{
		"instructor_id":         d.InstructorID,
		"room_id":               d.RoomID,
		"course_level_id":       d.CourseLevelID,
		"day_of_week":           d.DayOfWeek,
		"start_time":            d.StartTime,
		"end_time":              d.EndTime,
		"effective_from":        d.EffectiveFrom,
		"effective_to":          d.EffectiveTo,
		"min_capacity":          d.MinCapacity,
		"max_capacity":          d.MaxCapacity,
		"planned_sessions":      d.PlannedSessions,
		"session_duration_mins": d.SessionDurationMins,
		"price_per_student":     d.PricePerStudent,
		"min_margin_pct":        d.MinMarginPct,
		"currency":              d.Currency,
	}
}

// diffDetails returns {field: {"from": old, "to": new}} for every field that changed.
func diffDetails(old, upd Details) map[string]interface{} {
	before, after := detailsMap(old), detailsMap(upd)
	changes := make(map[string]interface{})
	for k, v := range after {
		if !sameValue(before[k], v) {
			changes[k] = map[string]interface{}{"from": before[k], "to": v}
		}
	}
	return changes
}

func sameValue(a, b interface{}) bool {
	ta, aok := a.(*time.Time)
	tb, bok := b.(*time.Time)
	if aok || bok {
		if ta == nil || tb == nil {
			return ta == nil && tb == nil
		}
		return ta.Equal(*tb)
	}
	return a == b
}
