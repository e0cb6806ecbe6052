package payroll

import (
	"time"

	"github.com/trezcool/backoffice/core/costmodel"
)

// Snapshot is the immutable record of every input used to compute a payroll total.
// It is sufficient to reproduce or audit the amount without re-querying.
type Snapshot struct {
	Period       Period                `json:"period"`
	InstructorID string                `json:"instructor_id"`
	GeneratedAt  time.Time             `json:"generated_at"`
	GeneratedBy  string                `json:"generated_by"`
	Currency     string                `json:"currency"`
	TotalAmount  float64               `json:"total_amount"`
	Sessions     []SnapshotSession     `json:"sessions"`
	Calculations []SnapshotCalculation `json:"calculations"`
	MonthlyModel *costmodel.CostModel  `json:"monthly_model,omitempty"`
}

type SnapshotSession struct {
	SessionID       string    `json:"session_id"`
	ClassID         string    `json:"class_id"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	AttendanceCount int       `json:"attendance_count"`
}

type SnapshotCalculation struct {
	SessionID       string         `json:"session_id"`
	CostModelID     string         `json:"cost_model_id,omitempty"`
	CostModelType   costmodel.Type `json:"cost_model_type,omitempty"`
	Rate            float64        `json:"rate"`
	DurationMinutes int            `json:"duration_minutes"`
	CostAmount      float64        `json:"cost_amount"`
	Currency        string         `json:"currency"`
}

func buildSnapshot(
	period Period,
	instructorID, generatedBy string,
	generatedAt time.Time,
	items []LineItem,
	monthly *costmodel.CostModel,
	currency string,
	total float64,
) Snapshot {
	snap := Snapshot{
		Period:       period,
		InstructorID: instructorID,
		GeneratedAt:  generatedAt,
		GeneratedBy:  generatedBy,
		Currency:     currency,
		TotalAmount:  total,
		Sessions:     make([]SnapshotSession, 0, len(items)),
		Calculations: make([]SnapshotCalculation, 0, len(items)),
	}
	if monthly != nil {
		m := *monthly
		snap.MonthlyModel = &m
	}
	for _, it := range items {
		snap.Sessions = append(snap.Sessions, SnapshotSession{
			SessionID:       it.Session.ID,
			ClassID:         it.Session.ClassID,
			ScheduledDate:   it.Session.ScheduledDate,
			StartTime:       it.Session.StartTime,
			EndTime:         it.Session.EndTime,
			AttendanceCount: it.Session.AttendanceCount,
		})
		calc := SnapshotCalculation{
			SessionID:       it.Session.ID,
			DurationMinutes: it.DurationMinutes,
			CostAmount:      it.CostAmount,
			Currency:        it.Currency,
		}
		if it.CostModel != nil {
			calc.CostModelID = it.CostModel.ID
			calc.CostModelType = it.CostModel.Type
			calc.Rate = it.CostModel.Amount
		}
		snap.Calculations = append(snap.Calculations, calc)
	}
	return snap
}
