package course

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Ismat-Samadov/educy/core"
)

var (
	courseCodeTag  = "coursecode"
	courseCodeText = "must contain only letters, numbers and underscores"
	// unlike the generic alphanum_ tag, codes never contain whitespace
	courseCodeRegex = regexp.MustCompile(`^\w+$`)
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(courseCodeTag, courseCodeValidation)
	core.RegisterCustomTranslation(courseCodeTag, courseCodeText)
}

// Custom Validators

func courseCodeValidation(fl validator.FieldLevel) bool {
	return courseCodeRegex.MatchString(fl.Field().String())
}
