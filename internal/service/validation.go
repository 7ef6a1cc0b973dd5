package service

import (
	"reflect"
	"strings"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

var (
	sharedValidator *validator.Validate
	validatorOnce   sync.Once
)

// NewValidator returns the process-wide validator with the domain tags and
// their English messages registered.
func NewValidator() *validator.Validate {
	validatorOnce.Do(func() {
		sharedValidator = withDomainRules(validator.New(), appErrors.Translator())
	})
	return sharedValidator
}

type domainRule struct {
	tag     string
	message string
	check   validator.Func
}

var domainRules = []domainRule{
	{"weekday", "{0} must be a weekday name such as Monday", func(fl validator.FieldLevel) bool {
		_, err := attendance.ParseWeekday(fl.Field().String())
		return err == nil
	}},
	{"hhmm", "{0} must be a 24h time formatted HH:MM", func(fl validator.FieldLevel) bool {
		_, err := attendance.ParseClock(fl.Field().String())
		return err == nil
	}},
	{"official_status", "{0} must be not_taken, present, absent or no_class", func(fl validator.FieldLevel) bool {
		return models.OfficialStatus(fl.Field().String()).Valid()
	}},
	{"personal_status", "{0} must be present or absent", func(fl validator.FieldLevel) bool {
		return models.PersonalStatus(fl.Field().String()).Valid()
	}},
	{"test_status", "{0} must be Pending, Completed or Cancelled", func(fl validator.FieldLevel) bool {
		switch models.TestStatus(fl.Field().String()) {
		case models.TestPending, models.TestCompleted, models.TestCancelled:
			return true
		}
		return false
	}},
	{"assignment_status", "{0} must be Pending, Submitted or Cancelled", func(fl validator.FieldLevel) bool {
		switch models.AssignmentStatus(fl.Field().String()) {
		case models.AssignmentPending, models.AssignmentSubmitted, models.AssignmentCancelled:
			return true
		}
		return false
	}},
	{"report_format", "{0} must be one of pdf, csv, xlsx or ics", func(fl validator.FieldLevel) bool {
		switch models.ReportFormat(fl.Field().String()) {
		case models.ReportFormatCSV, models.ReportFormatPDF, models.ReportFormatXLSX, models.ReportFormatICS:
			return true
		}
		return false
	}},
}

func withDomainRules(validate *validator.Validate, trans ut.Translator) *validator.Validate {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = entranslations.RegisterDefaultTranslations(validate, trans)
	for _, rule := range domainRules {
		rule := rule
		_ = validate.RegisterValidation(rule.tag, rule.check)
		_ = validate.RegisterTranslation(rule.tag, trans,
			func(t ut.Translator) error { return t.Add(rule.tag, rule.message, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(rule.tag, fe.Field())
				return msg
			},
		)
	}
	return validate
}
