package slot

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/backoffice/core"
)

var (
	timeRangeTag  = "timerange"
	timeRangeText = "end_time must be later than start_time"

	capacityTag  = "capacity"
	capacityText = "max_capacity must be greater than or equal to min_capacity"

	effectiveRangeTag  = "effectiverange"
	effectiveRangeText = "effective_to must not be before effective_from"
)

// register custom validators
func init() {
	core.Validate.RegisterStructValidation(detailsStructValidation, Details{})
	core.RegisterCustomTranslation(timeRangeTag, timeRangeText)
	core.RegisterCustomTranslation(capacityTag, capacityText)
	core.RegisterCustomTranslation(effectiveRangeTag, effectiveRangeText)
}

// detailsStructValidation checks the cross-field invariants of a slot.
func detailsStructValidation(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(Details)
	if !ok {
		return
	}

	// malformed times are reported by the field-level "clock" tag
	start, sErr := core.ParseClock(d.StartTime)
	end, eErr := core.ParseClock(d.EndTime)
	if sErr == nil && eErr == nil && start >= end {
		sl.ReportError(d.EndTime, "end_time", "EndTime", timeRangeTag, "")
	}

	if d.MinCapacity > d.MaxCapacity {
		sl.ReportError(d.MaxCapacity, "max_capacity", "MaxCapacity", capacityTag, "")
	}

	if d.EffectiveFrom != nil && d.EffectiveTo != nil && d.EffectiveTo.Before(*d.EffectiveFrom) {
		sl.ReportError(d.EffectiveTo, "effective_to", "EffectiveTo", effectiveRangeTag, "")
	}
}

func validateDetails(d Details) error {
	return core.ValidateStruct(d)
}
