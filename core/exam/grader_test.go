package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func mcQuestion(id, key string, points float64) Question {
	return Question{
		ID:            id,
		Type:          QuestionMultipleChoice,
		Prompt:        "pick one",
		Options:       []string{"A", "B", "C"},
		CorrectAnswer: null.StringFrom(key),
		Points:        points,
	}
}

func TestGradeScoreDeterminism(t *testing.T) {
	questions := []Question{
		mcQuestion("q1", "A", 1),
		mcQuestion("q2", "B", 2),
		mcQuestion("q3", "C", 3),
	}
	answers := []NewAnswer{
		{QuestionID: "q1", Value: "A"},
		{QuestionID: "q2", Value: "C"},
		{QuestionID: "q3", Value: "A"},
	}

	res := Grade(questions, answers)
	assert.Equal(t, 1.0, res.EarnedPoints)
	assert.Equal(t, 6.0, res.TotalPoints)
	assert.InDelta(t, 100.0/6.0, res.ScorePercent, 1e-9)

	require.Len(t, res.Answers, 3)
	assert.True(t, res.Answers[0].IsCorrect.Bool)
	assert.Equal(t, 1.0, res.Answers[0].Points.Float64)
	assert.False(t, res.Answers[1].IsCorrect.Bool)
	assert.Equal(t, 0.0, res.Answers[1].Points.Float64)
}

func TestGradeSkippedQuestionsExcluded(t *testing.T) {
	questions := []Question{
		mcQuestion("q1", "A", 1),
		mcQuestion("q2", "B", 2),
		mcQuestion("q3", "C", 3),
	}

	// only q1 answered: q2 and q3 never enter the denominator
	res := Grade(questions, []NewAnswer{{QuestionID: "q1", Value: "A"}})
	assert.Equal(t, 1.0, res.TotalPoints)
	assert.Equal(t, 1.0, res.EarnedPoints)
	assert.InDelta(t, 100.0, res.ScorePercent, 1e-9)

	require.Len(t, res.Answers, 1)
	assert.Equal(t, "q1", res.Answers[0].QuestionID)
}

func TestGradeManualTypesNotScored(t *testing.T) {
	questions := []Question{
		{ID: "q1", Type: QuestionEssay, Prompt: "discuss", Points: 10},
		{ID: "q2", Type: QuestionShortAnswer, Prompt: "name it", Points: 5},
	}
	answers := []NewAnswer{
		{QuestionID: "q1", Value: "a long essay"},
		{QuestionID: "q2", Value: "photosynthesis"},
	}

	res := Grade(questions, answers)
	// nothing auto-gradable: zero percent, never NaN
	assert.Equal(t, 0.0, res.EarnedPoints)
	assert.Equal(t, 15.0, res.TotalPoints)
	assert.Equal(t, 0.0, res.ScorePercent)

	require.Len(t, res.Answers, 2)
	for _, ans := range res.Answers {
		assert.False(t, ans.IsCorrect.Valid)
		assert.False(t, ans.Points.Valid)
	}
}

func TestGradeMatchingIsCaseAndSpaceInsensitive(t *testing.T) {
	questions := []Question{{
		ID:            "q1",
		Type:          QuestionTrueFalse,
		Prompt:        "the sky is blue",
		CorrectAnswer: null.StringFrom("True"),
		Points:        1,
	}}

	res := Grade(questions, []NewAnswer{{QuestionID: "q1", Value: "  true "}})
	require.Len(t, res.Answers, 1)
	assert.True(t, res.Answers[0].IsCorrect.Bool)
	assert.Equal(t, 100.0, res.ScorePercent)
}

func TestGradeUnmatchedAnswersIgnored(t *testing.T) {
	questions := []Question{mcQuestion("q1", "A", 2)}
	answers := []NewAnswer{
		{QuestionID: "q1", Value: "A"},
		{QuestionID: "nope", Value: "A"},
	}

	res := Grade(questions, answers)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "q1", res.Answers[0].QuestionID)
	assert.Equal(t, 2.0, res.TotalPoints)
	assert.Equal(t, 100.0, res.ScorePercent)
}

func TestGradeLastAnswerWins(t *testing.T) {
	questions := []Question{mcQuestion("q1", "A", 1)}
	answers := []NewAnswer{
		{QuestionID: "q1", Value: "B"},
		{QuestionID: "q1", Value: "A"},
	}

	res := Grade(questions, answers)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "A", res.Answers[0].Value)
	assert.True(t, res.Answers[0].IsCorrect.Bool)
	assert.Equal(t, 1.0, res.TotalPoints)
}

func TestGradeEmptySubmission(t *testing.T) {
	res := Grade([]Question{mcQuestion("q1", "A", 1)}, nil)
	assert.Empty(t, res.Answers)
	assert.Equal(t, 0.0, res.TotalPoints)
	assert.Equal(t, 0.0, res.ScorePercent)
}
