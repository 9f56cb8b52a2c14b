package exam

import (
	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core"
)

// GradeResult is the outcome of scoring one submission.
type GradeResult struct {
	Answers      []Answer
	TotalPoints  float64
	EarnedPoints float64
	ScorePercent float64
}

// Grade scores a submission against the exam's questions. Pure function, no
// clock and no storage.
//
// Answers whose question id is not on the exam are silently dropped. Every
// matched question's points count toward the total, whatever its type, but
// only auto-gradable questions are scored here: the submitted value is
// compared to the answer key after trimming and lowercasing, full points on a
// match, zero otherwise. Manually graded types keep null correctness and
// points. A total of zero yields a zero percentage rather than dividing.
func Grade(questions []Question, answers []NewAnswer) GradeResult {
	questionsByID := make(map[string]Question, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	// last answer wins per question; first-seen order is kept for persistence
	latest := make(map[string]NewAnswer, len(answers))
	var order []string
	for _, ans := range answers {
		if _, ok := questionsByID[ans.QuestionID]; !ok {
			continue
		}
		if _, seen := latest[ans.QuestionID]; !seen {
			order = append(order, ans.QuestionID)
		}
		latest[ans.QuestionID] = ans
	}

	res := GradeResult{Answers: make([]Answer, 0, len(order))}
	for _, qid := range order {
		q := questionsByID[qid]
		graded := Answer{QuestionID: qid, Value: latest[qid].Value}

		res.TotalPoints += q.Points
		if q.AutoGradable() {
			correct := core.CleanString(graded.Value, true) == core.CleanString(q.CorrectAnswer.String, true)
			graded.IsCorrect = null.BoolFrom(correct)
			if correct {
				graded.Points = null.Float64From(q.Points)
				res.EarnedPoints += q.Points
			} else {
				graded.Points = null.Float64From(0)
			}
		}
		res.Answers = append(res.Answers, graded)
	}

	if res.TotalPoints > 0 {
		res.ScorePercent = res.EarnedPoints / res.TotalPoints * 100
	}
	return res
}
