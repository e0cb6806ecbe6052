package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	clockTag  = "clock"
	clockText = "must be a time formatted as HH:mm"

	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	currencyTag   = "currency"
	currencyText  = "must be a 3-letter ISO currency code"
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

	requiredTag  = "required"
	requiredText = "this field is required"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(clockTag, clockValidation)
	RegisterCustomTranslation(clockTag, clockText)

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(notBlankTag, notBlankText)

	_ = Validate.RegisterValidation(currencyTag, currencyValidation)
	RegisterCustomTranslation(currencyTag, currencyText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct runs the struct validations on s and returns a *ValidationError on failure.
func ValidateStruct(s interface{}) error {
	return ValidationErrorFrom(Validate.Struct(s))
}

// Custom Global Validators

// clockValidation only allows "HH:mm" times of day.
func clockValidation(fl validator.FieldLevel) bool {
	return IsClock(fl.Field().String())
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func currencyValidation(fl validator.FieldLevel) bool {
	return currencyRegex.MatchString(fl.Field().String())
}
