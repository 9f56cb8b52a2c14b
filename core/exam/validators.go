package exam

import (
	"github.com/go-playground/validator/v10"

	"github.com/Ismat-Samadov/educy/core"
)

var (
	answerKeyTag  = "answerkey"
	answerKeyText = "auto-graded questions require a correct answer"

	optionsTag  = "options"
	optionsText = "multiple choice questions need at least 2 options"
)

func init() {
	// register validators
	core.Validate.RegisterStructValidation(questionStructValidation, NewQuestion{})
	core.RegisterCustomTranslation(answerKeyTag, answerKeyText)
	core.RegisterCustomTranslation(optionsTag, optionsText)
}

// Custom Validators

func questionStructValidation(sl validator.StructLevel) {
	nq := sl.Current().Interface().(NewQuestion)

	if AutoGradable(nq.Type) && nq.CorrectAnswer == "" {
		sl.ReportError(nq.CorrectAnswer, "correct_answer", "CorrectAnswer", answerKeyTag, "")
	}
	if nq.Type == QuestionMultipleChoice && len(nq.Options) < 2 {
		sl.ReportError(nq.Options, "options", "Options", optionsTag, "")
	}
}
