package costmodel

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/backoffice/core"
)

var (
	typeTag  = "costmodeltype"
	typeText = "type must be one of hourly, per_session or monthly"

	windowTag  = "costmodelwindow"
	windowText = "effective_to must not be before effective_from"
)

func init() {
	_ = core.Validate.RegisterValidation(typeTag, typeValidation)
	core.RegisterCustomTranslation(typeTag, typeText)

	core.Validate.RegisterStructValidation(newCostModelStructValidation, NewCostModel{})
	core.RegisterCustomTranslation(windowTag, windowText)
}

func typeValidation(fl validator.FieldLevel) bool {
	t := Type(fl.Field().String())
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

func newCostModelStructValidation(sl validator.StructLevel) {
	if nm, ok := sl.Current().Interface().(NewCostModel); ok {
		if nm.EffectiveTo != nil && nm.EffectiveTo.Before(nm.EffectiveFrom) {
			sl.ReportError(nm.EffectiveTo, "effective_to", "EffectiveTo", windowTag, "")
		}
	}
}
