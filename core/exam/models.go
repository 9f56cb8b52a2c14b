package exam

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core"
)

// Question types
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
	QuestionEssay          = "essay"
)

var AllQuestionTypes = []string{QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer, QuestionEssay}

// AutoGradable reports whether answers of this question type can be scored
// by key comparison. Short answers and essays go through manual grading.
func AutoGradable(questionType string) bool {
	return questionType == QuestionMultipleChoice || questionType == QuestionTrueFalse
}

// Attempt statuses. Completed is terminal; there is no expired status, an
// attempt that ran out of time stays in progress until a submit rejects it.
const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
)

type Exam struct {
	ID              string      `json:"id"`
	SectionID       string      `json:"section_id"`
	Title           string      `json:"title"`
	Description     null.String `json:"description,omitempty"`
	DurationMinutes int         `json:"duration_minutes"`
	StartTime       time.Time   `json:"start_time"` // UTC; opening of the availability window
	EndTime         time.Time   `json:"end_time"`   // UTC; close of the availability window
	CreatedBy       string      `json:"created_by"`
	Questions       []Question  `json:"questions,omitempty"` // resolved association
	CreatedAt       time.Time   `json:"created_at"`          // UTC
	UpdatedAt       time.Time   `json:"updated_at"`          // UTC
}

// IsOpenAt reports whether attempts may start at t; the window is [StartTime, EndTime).
func (e Exam) IsOpenAt(t time.Time) bool {
	return !t.Before(e.StartTime) && t.Before(e.EndTime)
}

func (e Exam) DurationSeconds() int { return e.DurationMinutes * 60 }

type Question struct {
	ID            string      `json:"id"`
	ExamID        string      `json:"exam_id"`
	Type          string      `json:"type"`
	Prompt        string      `json:"prompt"`
	Options       []string    `json:"options,omitempty"`
	CorrectAnswer null.String `json:"-"` // answer key; never serialized to clients
	Points        float64     `json:"points"`
	OrderIndex    int         `json:"order_index"`
}

func (q Question) AutoGradable() bool { return AutoGradable(q.Type) }

type Attempt struct {
	ID            string       `json:"id"`
	ExamID        string       `json:"exam_id"`
	StudentID     string       `json:"student_id"`
	Status        string       `json:"status"`
	StartedAt     time.Time    `json:"started_at"`             // UTC
	SubmittedAt   null.Time    `json:"submitted_at,omitempty"` // set exactly once, on completion
	Score         null.Float64 `json:"score,omitempty"`        // percentage
	TimeRemaining int          `json:"time_remaining"`         // seconds; authoritative only once completed
	CreatedAt     time.Time    `json:"created_at"`             // UTC
	UpdatedAt     time.Time    `json:"updated_at"`             // UTC
}

func (a Attempt) IsCompleted() bool { return a.Status == AttemptCompleted }

type Answer struct {
	ID         string       `json:"id"`
	AttemptID  string       `json:"attempt_id"`
	QuestionID string       `json:"question_id"`
	Value      string       `json:"value"`
	IsCorrect  null.Bool    `json:"is_correct,omitempty"` // null until manually graded for non-auto types
	Points     null.Float64 `json:"points,omitempty"`
	CreatedAt  time.Time    `json:"created_at"` // UTC
	UpdatedAt  time.Time    `json:"updated_at"` // UTC
}

// NewExam contains information needed to create a new Exam with its questions.
type NewExam struct {
	SectionID       string        `json:"section_id" validate:"required,uuid4"`
	Title           string        `json:"title" validate:"required"`
	Description     string        `json:"description"`
	DurationMinutes int           `json:"duration_minutes" validate:"required,min=1"`
	StartTime       time.Time     `json:"start_time" validate:"required"`
	EndTime         time.Time     `json:"end_time" validate:"required,gtfield=StartTime"`
	Questions       []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (ne *NewExam) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	for i := range ne.Questions {
		ne.Questions[i].clean()
	}
	return core.Validate.Struct(ne)
}

type NewQuestion struct {
	Type          string   `json:"type" validate:"required,oneof=multiple_choice true_false short_answer essay"`
	Prompt        string   `json:"prompt" validate:"required"`
	Options       []string `json:"options" validate:"omitempty,dive,required"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        float64  `json:"points" validate:"min=0"`
}

func (nq *NewQuestion) clean() {
	nq.Prompt = core.CleanString(nq.Prompt)
	nq.CorrectAnswer = core.CleanString(nq.CorrectAnswer)
	for i, opt := range nq.Options {
		nq.Options[i] = core.CleanString(opt)
	}
}

// NewAnswer is one submitted answer. Repeated answers for the same question
// in a single submission are collapsed, last one wins.
type NewAnswer struct {
	QuestionID string `json:"question_id" validate:"required,uuid4"`
	Value      string `json:"value"`
}

// SubmitAttempt is the submission payload. An empty answer list is a valid,
// zero-score submission.
type SubmitAttempt struct {
	Answers []NewAnswer `json:"answers" validate:"omitempty,dive"`
}

func (sa *SubmitAttempt) Validate() error { return core.Validate.Struct(sa) }
