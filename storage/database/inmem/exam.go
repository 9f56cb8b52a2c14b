package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Ismat-Samadov/educy/core/exam"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(ctx context.Context, exm exam.Exam, questions []exam.Question) (exam.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	exm.ID = uuid.New().String()
	for i := range questions {
		questions[i].ID = uuid.New().String()
		questions[i].ExamID = exm.ID
	}
	repo.db.exams[exm.ID] = &exm
	repo.db.questions[exm.ID] = questions

	created := exm
	created.Questions = questions
	return created, nil
}

func (repo *examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	exm, ok := repo.db.exams[id]
	if !ok {
		return exam.Exam{}, exam.ErrExamNotFound
	}
	res := *exm
	res.Questions = repo.db.questions[id]
	return res, nil
}

func (repo *examRepository) QueryExamsBySection(ctx context.Context, sectionID string) ([]exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var exams []exam.Exam
	for _, exm := range repo.db.exams {
		if exm.SectionID == sectionID {
			exams = append(exams, *exm)
		}
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].StartTime.Before(exams[j].StartTime) })
	return exams, nil
}

func (repo *examRepository) QueryQuestionsByExam(ctx context.Context, examID string) ([]exam.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.questions[examID], nil
}

func (repo *examRepository) CreateAttempt(ctx context.Context, att exam.Attempt) (exam.Attempt, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := att.ExamID + "|" + att.StudentID
	if _, ok := repo.db.attempts[key]; ok {
		return exam.Attempt{}, exam.ErrAttemptExists
	}
	att.ID = uuid.New().String()
	repo.db.attempts[key] = &att
	return att, nil
}

func (repo *examRepository) GetAttempt(ctx context.Context, examID, studentID string) (exam.Attempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if att, ok := repo.db.attempts[examID+"|"+studentID]; ok {
		return *att, nil
	}
	return exam.Attempt{}, exam.ErrAttemptNotFound
}

func (repo *examRepository) CompleteAttempt(ctx context.Context, att exam.Attempt, answers []exam.Answer) (exam.Attempt, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := att.ExamID + "|" + att.StudentID
	if _, ok := repo.db.attempts[key]; !ok {
		return exam.Attempt{}, exam.ErrAttemptNotFound
	}
	repo.db.attempts[key] = &att

	for _, ans := range answers {
		ansKey := ans.AttemptID + "|" + ans.QuestionID
		if existing, ok := repo.db.answers[ansKey]; ok {
			ans.ID = existing.ID
			ans.CreatedAt = existing.CreatedAt
		} else {
			ans.ID = uuid.New().String()
		}
		stored := ans
		repo.db.answers[ansKey] = &stored
	}
	return att, nil
}

func (repo *examRepository) QueryAnswersByAttempt(ctx context.Context, attemptID string) ([]exam.Answer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var answers []exam.Answer
	for _, ans := range repo.db.answers {
		if ans.AttemptID == attemptID {
			answers = append(answers, *ans)
		}
	}
	return answers, nil
}
