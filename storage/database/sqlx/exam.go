package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core/exam"
)

type dbExam struct {
	ID              string      `db:"id"`
	SectionID       string      `db:"section_id"`
	Title           string      `db:"title"`
	Description     null.String `db:"description"`
	DurationMinutes int         `db:"duration_minutes"`
	StartTime       time.Time   `db:"start_time"`
	EndTime         time.Time   `db:"end_time"`
	CreatedBy       string      `db:"created_by"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (e dbExam) toCore() exam.Exam {
	return exam.Exam{
		ID:              e.ID,
		SectionID:       e.SectionID,
		Title:           e.Title,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		StartTime:       e.StartTime.UTC(),
		EndTime:         e.EndTime.UTC(),
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt.UTC(),
		UpdatedAt:       e.UpdatedAt.UTC(),
	}
}

type dbQuestion struct {
	ID            string         `db:"id"`
	ExamID        string         `db:"exam_id"`
	Type          string         `db:"type"`
	Prompt        string         `db:"prompt"`
	Options       pq.StringArray `db:"options"`
	CorrectAnswer null.String    `db:"correct_answer"`
	Points        float64        `db:"points"`
	OrderIndex    int            `db:"order_index"`
}

func (q dbQuestion) toCore() exam.Question {
	return exam.Question{
		ID:            q.ID,
		ExamID:        q.ExamID,
		Type:          q.Type,
		Prompt:        q.Prompt,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Points:        q.Points,
		OrderIndex:    q.OrderIndex,
	}
}

type dbAttempt struct {
	ID            string       `db:"id"`
	ExamID        string       `db:"exam_id"`
	StudentID     string       `db:"student_id"`
	Status        string       `db:"status"`
	StartedAt     time.Time    `db:"started_at"`
	SubmittedAt   null.Time    `db:"submitted_at"`
	Score         null.Float64 `db:"score"`
	TimeRemaining int          `db:"time_remaining"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (a dbAttempt) toCore() exam.Attempt {
	return exam.Attempt{
		ID:            a.ID,
		ExamID:        a.ExamID,
		StudentID:     a.StudentID,
		Status:        a.Status,
		StartedAt:     a.StartedAt.UTC(),
		SubmittedAt:   a.SubmittedAt,
		Score:         a.Score,
		TimeRemaining: a.TimeRemaining,
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}
}

type dbAnswer struct {
	ID         string       `db:"id"`
	AttemptID  string       `db:"attempt_id"`
	QuestionID string       `db:"question_id"`
	Value      string       `db:"value"`
	IsCorrect  null.Bool    `db:"is_correct"`
	Points     null.Float64 `db:"points"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func (a dbAnswer) toCore() exam.Answer {
	return exam.Answer{
		ID:         a.ID,
		AttemptID:  a.AttemptID,
		QuestionID: a.QuestionID,
		Value:      a.Value,
		IsCorrect:  a.IsCorrect,
		Points:     a.Points,
		CreatedAt:  a.CreatedAt.UTC(),
		UpdatedAt:  a.UpdatedAt.UTC(),
	}
}

const (
	examColumns     = `id, section_id, title, description, duration_minutes, start_time, end_time, created_by, created_at, updated_at`
	questionColumns = `id, exam_id, type, prompt, options, correct_answer, points, order_index`
	attemptColumns  = `id, exam_id, student_id, status, started_at, submitted_at, score, time_remaining, created_at, updated_at`
	answerColumns   = `id, attempt_id, question_id, value, is_correct, points, created_at, updated_at`
)

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

func (repo examRepository) CreateExam(ctx context.Context, exm exam.Exam, questions []exam.Question) (exam.Exam, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "creating exam")
	}
	defer func() { _ = tx.Rollback() }()

	var row dbExam
	err = tx.GetContext(ctx, &row,
		`INSERT INTO exam (section_id, title, description, duration_minutes, start_time, end_time, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+examColumns,
		exm.SectionID, exm.Title, exm.Description, exm.DurationMinutes, exm.StartTime, exm.EndTime,
		exm.CreatedBy, exm.CreatedAt, exm.UpdatedAt,
	)
	if err != nil {
		return exam.Exam{}, errors.Wrap(err, "creating exam")
	}

	created := row.toCore()
	created.Questions = make([]exam.Question, 0, len(questions))
	for _, q := range questions {
		var qRow dbQuestion
		err = tx.GetContext(ctx, &qRow,
			`INSERT INTO question (exam_id, type, prompt, options, correct_answer, points, order_index)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+questionColumns,
			created.ID, q.Type, q.Prompt, pq.StringArray(q.Options), q.CorrectAnswer, q.Points, q.OrderIndex,
		)
		if err != nil {
			return exam.Exam{}, errors.Wrap(err, "creating question")
		}
		created.Questions = append(created.Questions, qRow.toCore())
	}

	if err = tx.Commit(); err != nil {
		return exam.Exam{}, errors.Wrap(err, "creating exam")
	}
	return created, nil
}

func (repo examRepository) GetExamByID(ctx context.Context, id string) (exam.Exam, error) {
	var row dbExam
	err := repo.db.GetContext(ctx, &row, `SELECT `+examColumns+` FROM exam WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return exam.Exam{}, exam.ErrExamNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "getting exam")
	}

	exm := row.toCore()
	exm.Questions, err = repo.QueryQuestionsByExam(ctx, exm.ID)
	if err != nil {
		return exam.Exam{}, err
	}
	return exm, nil
}

func (repo examRepository) QueryExamsBySection(ctx context.Context, sectionID string) ([]exam.Exam, error) {
	var rows []dbExam
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+examColumns+` FROM exam WHERE section_id = $1 ORDER BY start_time`, sectionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}

	exams := make([]exam.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.toCore())
	}
	return exams, nil
}

func (repo examRepository) QueryQuestionsByExam(ctx context.Context, examID string) ([]exam.Question, error) {
	var rows []dbQuestion
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+questionColumns+` FROM question WHERE exam_id = $1 ORDER BY order_index`, examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}

	questions := make([]exam.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toCore())
	}
	return questions, nil
}

func (repo examRepository) CreateAttempt(ctx context.Context, att exam.Attempt) (exam.Attempt, error) {
	var row dbAttempt
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO exam_attempt (exam_id, student_id, status, started_at, time_remaining, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+attemptColumns,
		att.ExamID, att.StudentID, att.Status, att.StartedAt, att.TimeRemaining, att.CreatedAt, att.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "exam_attempt_exam_id_student_id_key") {
			return exam.Attempt{}, exam.ErrAttemptExists
		}
		return exam.Attempt{}, errors.Wrap(err, "creating attempt")
	}
	return row.toCore(), nil
}

func (repo examRepository) GetAttempt(ctx context.Context, examID, studentID string) (exam.Attempt, error) {
	var row dbAttempt
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+attemptColumns+` FROM exam_attempt WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return exam.Attempt{}, exam.ErrAttemptNotFound
		}
		return exam.Attempt{}, errors.Wrap(err, "getting attempt")
	}
	return row.toCore(), nil
}

func (repo examRepository) CompleteAttempt(ctx context.Context, att exam.Attempt, answers []exam.Answer) (exam.Attempt, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return exam.Attempt{}, errors.Wrap(err, "completing attempt")
	}
	defer func() { _ = tx.Rollback() }()

	var row dbAttempt
	err = tx.GetContext(ctx, &row,
		`UPDATE exam_attempt SET status = $2, submitted_at = $3, score = $4, time_remaining = $5, updated_at = $6
		 WHERE id = $1
		 RETURNING `+attemptColumns,
		att.ID, att.Status, att.SubmittedAt, att.Score, att.TimeRemaining, att.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return exam.Attempt{}, exam.ErrAttemptNotFound
		}
		return exam.Attempt{}, errors.Wrap(err, "completing attempt")
	}

	for _, ans := range answers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exam_answer (attempt_id, question_id, value, is_correct, points, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (attempt_id, question_id) DO UPDATE SET
				value      = EXCLUDED.value,
				is_correct = EXCLUDED.is_correct,
				points     = EXCLUDED.points,
				updated_at = EXCLUDED.updated_at`,
			ans.AttemptID, ans.QuestionID, ans.Value, ans.IsCorrect, ans.Points, ans.CreatedAt, ans.UpdatedAt,
		)
		if err != nil {
			return exam.Attempt{}, errors.Wrap(err, "upserting answer")
		}
	}

	if err = tx.Commit(); err != nil {
		return exam.Attempt{}, errors.Wrap(err, "completing attempt")
	}
	return row.toCore(), nil
}

func (repo examRepository) QueryAnswersByAttempt(ctx context.Context, attemptID string) ([]exam.Answer, error) {
	var rows []dbAnswer
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+answerColumns+` FROM exam_answer WHERE attempt_id = $1 ORDER BY created_at`, attemptID)
	if err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}

	answers := make([]exam.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.toCore())
	}
	return answers, nil
}
