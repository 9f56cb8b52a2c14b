package exam

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core"
	"github.com/Ismat-Samadov/educy/core/user"
)

var (
	// errors
	ErrExamNotFound    = errors.New("exam not found")
	ErrAttemptNotFound = errors.New("exam attempt not found")
	ErrAttemptExists   = errors.New("an attempt for this exam already exists")

	errNotEnrolled   = "student is not enrolled in the exam's section"
	errNotInstructor = "only the section's instructor or an admin may manage its exams"

	errExamNotOpen      = "exam not currently available"
	errAlreadySubmitted = "already submitted"
	errTimeLimit        = "time limit exceeded"
)

type (
	Repository interface {
		// CreateExam persists the exam and its questions atomically.
		CreateExam(ctx context.Context, exm Exam, questions []Question) (Exam, error)
		GetExamByID(ctx context.Context, id string) (Exam, error)
		QueryExamsBySection(ctx context.Context, sectionID string) ([]Exam, error)
		QueryQuestionsByExam(ctx context.Context, examID string) ([]Question, error)

		// CreateAttempt returns ErrAttemptExists when the (exam, student)
		// pair already has one; uniqueness is enforced by the store, not
		// by a prior read.
		CreateAttempt(ctx context.Context, att Attempt) (Attempt, error)
		GetAttempt(ctx context.Context, examID, studentID string) (Attempt, error)
		// CompleteAttempt persists the completed attempt and upserts its
		// answers by (attempt, question) in one transaction.
		CompleteAttempt(ctx context.Context, att Attempt, answers []Answer) (Attempt, error)
		QueryAnswersByAttempt(ctx context.Context, attemptID string) ([]Answer, error)
	}

	// EnrollmentChecker is implemented by the course service.
	EnrollmentChecker interface {
		IsEnrolled(ctx context.Context, sectionID, studentID string) (bool, error)
	}

	// InstructorChecker is implemented by the course service.
	InstructorChecker interface {
		IsInstructorOf(ctx context.Context, sectionID, userID string) (bool, error)
	}

	// StudentDirectory resolves a student's contact details for score
	// receipts. Implemented by the user service.
	StudentDirectory interface {
		GetStudentEmail(ctx context.Context, studentID string) (mail.Address, error)
	}

	Service struct {
		repo        Repository
		enrollments EnrollmentChecker
		instructors InstructorChecker
		students    StudentDirectory
		clock       core.Clock
		audit       core.AuditRecorder
		mailSvc     core.EmailService
	}
)

func NewService(
	repo Repository,
	enrollments EnrollmentChecker,
	instructors InstructorChecker,
	students StudentDirectory,
	clock core.Clock,
	audit core.AuditRecorder,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:        repo,
		enrollments: enrollments,
		instructors: instructors,
		students:    students,
		clock:       clock,
		audit:       audit,
		mailSvc:     mailSvc,
	}
}

func (svc *Service) Create(ctx context.Context, actor user.User, ne NewExam) (Exam, error) {
	if err := ne.Validate(); err != nil {
		return Exam{}, err
	}
	if err := svc.checkCanManage(ctx, actor, ne.SectionID); err != nil {
		return Exam{}, err
	}

	now := svc.clock.Now()
	exm := Exam{
		SectionID:       ne.SectionID,
		Title:           ne.Title,
		Description:     null.NewString(ne.Description, ne.Description != ""),
		DurationMinutes: ne.DurationMinutes,
		StartTime:       ne.StartTime.UTC(),
		EndTime:         ne.EndTime.UTC(),
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	questions := make([]Question, 0, len(ne.Questions))
	for i, nq := range ne.Questions {
		questions = append(questions, Question{
			Type:          nq.Type,
			Prompt:        nq.Prompt,
			Options:       nq.Options,
			CorrectAnswer: null.NewString(nq.CorrectAnswer, nq.CorrectAnswer != ""),
			Points:        nq.Points,
			OrderIndex:    i,
		})
	}

	exm, err := svc.repo.CreateExam(ctx, exm, questions)
	if err != nil {
		return Exam{}, err
	}

	svc.audit.Record(ctx, core.AuditEvent{
		Action:     core.AuditExamCreated,
		ActorID:    actor.ID,
		TargetType: "exam",
		TargetID:   exm.ID,
		Details:    fmt.Sprintf("%s (%d min, %d questions)", exm.Title, exm.DurationMinutes, len(questions)),
	})
	return exm, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExamByID(ctx, id)
}

func (svc *Service) QueryBySection(ctx context.Context, sectionID string) ([]Exam, error) {
	return svc.repo.QueryExamsBySection(ctx, sectionID)
}

// Start opens the student's one attempt at the exam. The exam must be inside
// its availability window and the student enrolled in its section. Starting
// twice surfaces the surviving attempt in the ConflictError instead of
// silently failing, so clients can resume it.
func (svc *Service) Start(ctx context.Context, examID, studentID string) (Attempt, error) {
	exm, err := svc.repo.GetExamByID(ctx, examID)
	if err != nil {
		return Attempt{}, err
	}

	enrolled, err := svc.enrollments.IsEnrolled(ctx, exm.SectionID, studentID)
	if err != nil {
		return Attempt{}, err
	}
	if !enrolled {
		return Attempt{}, core.NewForbiddenError(errNotEnrolled)
	}

	now := svc.clock.Now()
	if !exm.IsOpenAt(now) {
		return Attempt{}, core.NewInvalidStateError(errExamNotOpen)
	}

	if att, err := svc.repo.GetAttempt(ctx, exm.ID, studentID); err == nil {
		return Attempt{}, core.NewConflictError(ErrAttemptExists, att)
	} else if err != ErrAttemptNotFound {
		return Attempt{}, err
	}

	att, err := svc.repo.CreateAttempt(ctx, Attempt{
		ExamID:        exm.ID,
		StudentID:     studentID,
		Status:        AttemptInProgress,
		StartedAt:     now,
		TimeRemaining: exm.DurationSeconds(),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		// lost a concurrent race to the unique (exam, student) index
		if err == ErrAttemptExists {
			if existing, gerr := svc.repo.GetAttempt(ctx, exm.ID, studentID); gerr == nil {
				return Attempt{}, core.NewConflictError(ErrAttemptExists, existing)
			}
		}
		return Attempt{}, err
	}

	svc.audit.Record(ctx, core.AuditEvent{
		Action:     core.AuditExamStarted,
		ActorID:    studentID,
		TargetType: "exam",
		TargetID:   exm.ID,
		Details:    fmt.Sprintf("attempt %s started", att.ID),
	})
	return att, nil
}

// Submit grades and completes the student's attempt. Completion is write-once
// and the whole submission is rejected past the time limit; the limit itself
// is inclusive, elapsed == duration is still in time.
func (svc *Service) Submit(ctx context.Context, examID, studentID string, sub SubmitAttempt) (Attempt, error) {
	if err := sub.Validate(); err != nil {
		return Attempt{}, err
	}

	att, err := svc.repo.GetAttempt(ctx, examID, studentID)
	if err != nil {
		return Attempt{}, err
	}
	if att.IsCompleted() {
		return Attempt{}, core.NewInvalidStateError(errAlreadySubmitted)
	}

	exm, err := svc.repo.GetExamByID(ctx, att.ExamID)
	if err != nil {
		return Attempt{}, err
	}

	now := svc.clock.Now()
	elapsed := int(now.Sub(att.StartedAt).Seconds())
	if elapsed > exm.DurationSeconds() {
		return Attempt{}, core.NewInvalidStateError(errTimeLimit)
	}

	questions, err := svc.repo.QueryQuestionsByExam(ctx, exm.ID)
	if err != nil {
		return Attempt{}, err
	}
	res := Grade(questions, sub.Answers)

	att.Status = AttemptCompleted
	att.SubmittedAt = null.TimeFrom(now)
	att.Score = null.Float64From(res.ScorePercent)
	att.TimeRemaining = exm.DurationSeconds() - elapsed
	att.UpdatedAt = now

	answers := res.Answers
	for i := range answers {
		answers[i].AttemptID = att.ID
		answers[i].CreatedAt = now
		answers[i].UpdatedAt = now
	}

	att, err = svc.repo.CompleteAttempt(ctx, att, answers)
	if err != nil {
		return Attempt{}, err
	}

	svc.audit.Record(ctx, core.AuditEvent{
		Action:     core.AuditExamSubmitted,
		ActorID:    studentID,
		TargetType: "exam",
		TargetID:   exm.ID,
		Details:    fmt.Sprintf("attempt %s scored %.2f%%", att.ID, res.ScorePercent),
	})
	svc.sendScoreMail(ctx, exm, att)
	return att, nil
}

func (svc *Service) GetAttempt(ctx context.Context, examID, studentID string) (Attempt, error) {
	return svc.repo.GetAttempt(ctx, examID, studentID)
}

func (svc *Service) QueryAnswersByAttempt(ctx context.Context, attemptID string) ([]Answer, error) {
	return svc.repo.QueryAnswersByAttempt(ctx, attemptID)
}

// RemainingSeconds reports how much time the attempt has left, computed from
// the wall clock on demand. Completed attempts keep their stored value.
func (svc *Service) RemainingSeconds(exm Exam, att Attempt) int {
	if att.IsCompleted() {
		return att.TimeRemaining
	}
	elapsed := int(svc.clock.Now().Sub(att.StartedAt).Seconds())
	if rem := exm.DurationSeconds() - elapsed; rem > 0 {
		return rem
	}
	return 0
}

func (svc *Service) checkCanManage(ctx context.Context, actor user.User, sectionID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.IsTeacher() {
		ok, err := svc.instructors.IsInstructorOf(ctx, sectionID, actor.ID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return core.NewForbiddenError(errNotInstructor)
}

func (svc *Service) sendScoreMail(ctx context.Context, exm Exam, att Attempt) {
	addr, err := svc.students.GetStudentEmail(ctx, att.StudentID)
	if err != nil || addr.Address == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{addr},
		Subject: fmt.Sprintf("Your score for %s", exm.Title),
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYour submission for %s has been received. Auto-graded score: %.2f%%.\n",
			addr.Name, exm.Title, att.Score.Float64,
		),
	})
}
