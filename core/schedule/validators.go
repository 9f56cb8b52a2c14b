package schedule

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Ismat-Samadov/educy/core"
)

var (
	hhmmTag   = "hhmm"
	hhmmText  = "must be a 24h wall-clock time formatted as HH:MM"
	hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	timeOrderTag  = "timeorder"
	timeOrderText = "end time must be after start time"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(hhmmTag, hhmmValidation)
	core.RegisterCustomTranslation(hhmmTag, hhmmText)

	core.Validate.RegisterStructValidation(lessonStructValidation, NewLesson{})
	core.Validate.RegisterStructValidation(lessonStructValidation, UpdateLesson{})
	core.RegisterCustomTranslation(timeOrderTag, timeOrderText)
}

// Custom Validators

// hhmmValidation only allows fixed-width zero-padded 24h "HH:MM" times.
func hhmmValidation(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

// lessonStructValidation checks start < end on NewLesson and UpdateLesson.
// UpdateLesson fields have already been merged over the stored lesson by the
// time this runs, so the check always sees the effective slot.
func lessonStructValidation(sl validator.StructLevel) {
	switch lsn := sl.Current().Interface().(type) {
	case NewLesson:
		validateTimeOrder(lsn.StartTime, lsn.EndTime, sl)
	case UpdateLesson:
		validateTimeOrder(lsn.StartTime, lsn.EndTime, sl)
	}
}

func validateTimeOrder(start, end string, sl validator.StructLevel) {
	if !hhmmRegex.MatchString(start) || !hhmmRegex.MatchString(end) {
		return // field-level hhmm validation reports these
	}
	if start >= end {
		sl.ReportError(end, "end_time", "EndTime", timeOrderTag, "")
	}
}
