package exam

import (
	"context"
	"errors"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core"
	"github.com/Ismat-Samadov/educy/core/user"
)

// in-memory fakes

type fakeRepo struct {
	exams     map[string]Exam
	questions map[string][]Question
	attempts  map[string]Attempt // examID + "|" + studentID
	answers   map[string]Answer  // attemptID + "|" + questionID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		exams:     make(map[string]Exam),
		questions: make(map[string][]Question),
		attempts:  make(map[string]Attempt),
		answers:   make(map[string]Answer),
	}
}

func (r *fakeRepo) CreateExam(ctx context.Context, exm Exam, questions []Question) (Exam, error) {
	exm.ID = uuid.New().String()
	for i := range questions {
		questions[i].ID = uuid.New().String()
		questions[i].ExamID = exm.ID
	}
	r.exams[exm.ID] = exm
	r.questions[exm.ID] = questions
	return exm, nil
}

func (r *fakeRepo) GetExamByID(ctx context.Context, id string) (Exam, error) {
	exm, ok := r.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	exm.Questions = r.questions[id]
	return exm, nil
}

func (r *fakeRepo) QueryExamsBySection(ctx context.Context, sectionID string) ([]Exam, error) {
	var exams []Exam
	for _, exm := range r.exams {
		if exm.SectionID == sectionID {
			exams = append(exams, exm)
		}
	}
	return exams, nil
}

func (r *fakeRepo) QueryQuestionsByExam(ctx context.Context, examID string) ([]Question, error) {
	return r.questions[examID], nil
}

func (r *fakeRepo) CreateAttempt(ctx context.Context, att Attempt) (Attempt, error) {
	key := att.ExamID + "|" + att.StudentID
	if _, ok := r.attempts[key]; ok {
		return Attempt{}, ErrAttemptExists
	}
	att.ID = uuid.New().String()
	r.attempts[key] = att
	return att, nil
}

func (r *fakeRepo) GetAttempt(ctx context.Context, examID, studentID string) (Attempt, error) {
	att, ok := r.attempts[examID+"|"+studentID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return att, nil
}

func (r *fakeRepo) CompleteAttempt(ctx context.Context, att Attempt, answers []Answer) (Attempt, error) {
	r.attempts[att.ExamID+"|"+att.StudentID] = att
	for _, ans := range answers {
		key := ans.AttemptID + "|" + ans.QuestionID
		if existing, ok := r.answers[key]; ok {
			ans.ID = existing.ID
		} else {
			ans.ID = uuid.New().String()
		}
		r.answers[key] = ans
	}
	return att, nil
}

func (r *fakeRepo) QueryAnswersByAttempt(ctx context.Context, attemptID string) ([]Answer, error) {
	var answers []Answer
	for _, ans := range r.answers {
		if ans.AttemptID == attemptID {
			answers = append(answers, ans)
		}
	}
	return answers, nil
}

// fakeEnrollments is the set of enrolled student ids.
type fakeEnrollments map[string]bool

func (f fakeEnrollments) IsEnrolled(ctx context.Context, sectionID, studentID string) (bool, error) {
	return f[studentID], nil
}

type fakeInstructors map[string]string

func (f fakeInstructors) IsInstructorOf(ctx context.Context, sectionID, userID string) (bool, error) {
	return f[sectionID] == userID, nil
}

type fakeDirectory struct{}

func (fakeDirectory) GetStudentEmail(ctx context.Context, studentID string) (mail.Address, error) {
	return mail.Address{Name: "Student", Address: "student@test.educy.cd"}, nil
}

type mailSpy struct {
	messages []*core.EmailMessage
}

func (m *mailSpy) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

type auditSpy struct {
	events []core.AuditEvent
}

func (a *auditSpy) Record(ctx context.Context, evt core.AuditEvent) {
	a.events = append(a.events, evt)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var (
	examOpen      = time.Date(2021, 11, 1, 9, 0, 0, 0, time.UTC)
	testSectionID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	teacherID = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	studentID = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
	adminUsr  = user.User{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Role: user.RoleAdmin}
	teachUsr  = user.User{ID: teacherID, Role: user.RoleTeacher}
)

type testEnv struct {
	svc   *Service
	repo  *fakeRepo
	clock *fakeClock
	audit *auditSpy
	mail  *mailSpy
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:  newFakeRepo(),
		clock: &fakeClock{now: examOpen},
		audit: &auditSpy{},
		mail:  &mailSpy{},
	}
	env.svc = NewService(
		env.repo,
		fakeEnrollments{studentID: true},
		fakeInstructors{testSectionID: teacherID},
		fakeDirectory{},
		env.clock,
		env.audit,
		env.mail,
	)
	return env
}

// seedExam stores a 60-minute exam open for [examOpen, examOpen+2h) with
// three multiple choice questions worth 1, 2 and 3 points.
func seedExam(t *testing.T, env *testEnv) Exam {
	t.Helper()
	exm, err := env.svc.Create(context.Background(), adminUsr, NewExam{
		SectionID:       testSectionID,
		Title:           "Midterm",
		DurationMinutes: 60,
		StartTime:       examOpen,
		EndTime:         examOpen.Add(2 * time.Hour),
		Questions: []NewQuestion{
			{Type: QuestionMultipleChoice, Prompt: "1+1?", Options: []string{"1", "2"}, CorrectAnswer: "2", Points: 1},
			{Type: QuestionMultipleChoice, Prompt: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Points: 2},
			{Type: QuestionMultipleChoice, Prompt: "3+3?", Options: []string{"5", "6"}, CorrectAnswer: "6", Points: 3},
		},
	})
	require.NoError(t, err)
	return exm
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	exm := seedExam(t, env)
	assert.NotEmpty(t, exm.ID)
	assert.Equal(t, adminUsr.ID, exm.CreatedBy)
	require.Len(t, env.audit.events, 1)
	assert.Equal(t, core.AuditExamCreated, env.audit.events[0].Action)

	questions, err := env.repo.QueryQuestionsByExam(ctx, exm.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{questions[0].OrderIndex, questions[1].OrderIndex, questions[2].OrderIndex})

	// the section's instructor may create exams too
	_, err = env.svc.Create(ctx, teachUsr, NewExam{
		SectionID:       testSectionID,
		Title:           "Final",
		DurationMinutes: 90,
		StartTime:       examOpen,
		EndTime:         examOpen.Add(3 * time.Hour),
		Questions:       []NewQuestion{{Type: QuestionEssay, Prompt: "discuss", Points: 10}},
	})
	require.NoError(t, err)

	// other teachers may not
	var ferr *core.ForbiddenError
	_, err = env.svc.Create(ctx, user.User{ID: uuid.New().String(), Role: user.RoleTeacher}, NewExam{
		SectionID:       testSectionID,
		Title:           "Rogue",
		DurationMinutes: 30,
		StartTime:       examOpen,
		EndTime:         examOpen.Add(time.Hour),
		Questions:       []NewQuestion{{Type: QuestionEssay, Prompt: "discuss", Points: 10}},
	})
	require.True(t, errors.As(err, &ferr))
}

func TestServiceCreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	base := NewExam{
		SectionID:       testSectionID,
		Title:           "Midterm",
		DurationMinutes: 60,
		StartTime:       examOpen,
		EndTime:         examOpen.Add(time.Hour),
	}

	// questions are required
	ne := base
	_, err := env.svc.Create(ctx, adminUsr, ne)
	require.Error(t, err)

	// auto-gradable questions need an answer key
	ne = base
	ne.Questions = []NewQuestion{{Type: QuestionTrueFalse, Prompt: "sky is blue", Points: 1}}
	_, err = env.svc.Create(ctx, adminUsr, ne)
	require.Error(t, err)

	// multiple choice needs at least two options
	ne = base
	ne.Questions = []NewQuestion{{Type: QuestionMultipleChoice, Prompt: "pick", Options: []string{"A"}, CorrectAnswer: "A", Points: 1}}
	_, err = env.svc.Create(ctx, adminUsr, ne)
	require.Error(t, err)

	// window must close after it opens
	ne = base
	ne.EndTime = examOpen
	ne.Questions = []NewQuestion{{Type: QuestionEssay, Prompt: "discuss", Points: 10}}
	_, err = env.svc.Create(ctx, adminUsr, ne)
	require.Error(t, err)
}

func TestServiceStart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	exm := seedExam(t, env)

	// not enrolled
	var ferr *core.ForbiddenError
	_, err := env.svc.Start(ctx, exm.ID, uuid.New().String())
	require.True(t, errors.As(err, &ferr))

	// before the window opens
	env.clock.now = examOpen.Add(-time.Minute)
	var serr *core.InvalidStateError
	_, err = env.svc.Start(ctx, exm.ID, studentID)
	require.True(t, errors.As(err, &serr))
	assert.EqualError(t, err, "exam not currently available")

	// in the window
	env.clock.now = examOpen.Add(10 * time.Minute)
	att, err := env.svc.Start(ctx, exm.ID, studentID)
	require.NoError(t, err)
	assert.Equal(t, AttemptInProgress, att.Status)
	assert.Equal(t, env.clock.now, att.StartedAt)
	assert.Equal(t, 3600, att.TimeRemaining)
	assert.False(t, att.SubmittedAt.Valid)

	// starting again surfaces the surviving attempt
	var cerr *core.ConflictError
	_, err = env.svc.Start(ctx, exm.ID, studentID)
	require.True(t, errors.As(err, &cerr))
	existing, ok := cerr.Conflicts.(Attempt)
	require.True(t, ok)
	assert.Equal(t, att.ID, existing.ID)
	assert.Len(t, env.repo.attempts, 1)

	// after the window closes
	env.clock.now = examOpen.Add(2*time.Hour + 5*time.Minute)
	_, err = env.svc.Start(ctx, exm.ID, uuid.New().String())
	require.True(t, errors.As(err, &ferr)) // still gated on enrollment first

	env.svc.enrollments = fakeEnrollments{studentID: true, "late": true}
	_, err = env.svc.Start(ctx, exm.ID, "late")
	require.True(t, errors.As(err, &serr))
}

// racingRepo simulates losing the insert race on the unique (exam, student)
// index: GetAttempt misses until the colliding insert has happened, then
// returns the surviving row.
type racingRepo struct {
	*fakeRepo
	surviving Attempt
	misses    int
}

func (r *racingRepo) GetAttempt(ctx context.Context, examID, studentID string) (Attempt, error) {
	if r.misses > 0 {
		r.misses--
		return Attempt{}, ErrAttemptNotFound
	}
	return r.surviving, nil
}

func (r *racingRepo) CreateAttempt(ctx context.Context, att Attempt) (Attempt, error) {
	return Attempt{}, ErrAttemptExists
}

func TestServiceStartInsertRace(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	exm := seedExam(t, env)

	// a concurrent request inserted the attempt between the existence check
	// and the insert
	surviving := Attempt{
		ID:            uuid.New().String(),
		ExamID:        exm.ID,
		StudentID:     studentID,
		Status:        AttemptInProgress,
		StartedAt:     examOpen,
		TimeRemaining: 3600,
	}
	env.svc.repo = &racingRepo{fakeRepo: env.repo, surviving: surviving, misses: 1}

	var cerr *core.ConflictError
	_, err := env.svc.Start(ctx, exm.ID, studentID)
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrAttemptExists, cerr.Err)
	existing, ok := cerr.Conflicts.(Attempt)
	require.True(t, ok)
	assert.Equal(t, surviving.ID, existing.ID)

	// no audit event and no second attempt for the losing request
	assert.Equal(t, core.AuditExamCreated, env.audit.events[len(env.audit.events)-1].Action)
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	exm := seedExam(t, env)
	questions, err := env.repo.QueryQuestionsByExam(ctx, exm.ID)
	require.NoError(t, err)

	env.clock.now = examOpen.Add(10 * time.Minute)
	att, err := env.svc.Start(ctx, exm.ID, studentID)
	require.NoError(t, err)

	// 55 minutes elapsed, within the 60 minute limit
	env.clock.now = att.StartedAt.Add(55 * time.Minute)
	got, err := env.svc.Submit(ctx, exm.ID, studentID, SubmitAttempt{Answers: []NewAnswer{
		{QuestionID: questions[0].ID, Value: "2"},
		{QuestionID: questions[1].ID, Value: "3"},
		{QuestionID: questions[2].ID, Value: "5"},
	}})
	require.NoError(t, err)
	assert.Equal(t, AttemptCompleted, got.Status)
	assert.True(t, got.IsCompleted())
	assert.Equal(t, env.clock.now, got.SubmittedAt.Time)
	assert.InDelta(t, 100.0/6.0, got.Score.Float64, 1e-9)
	assert.Equal(t, 300, got.TimeRemaining) // 5 minutes left

	answers, err := env.repo.QueryAnswersByAttempt(ctx, got.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)

	require.Len(t, env.mail.messages, 1)
	assert.Contains(t, env.mail.messages[0].Subject, exm.Title)
	assert.Equal(t, core.AuditExamSubmitted, env.audit.events[len(env.audit.events)-1].Action)

	// write-once: resubmission fails and the stored score stands
	var serr *core.InvalidStateError
	_, err = env.svc.Submit(ctx, exm.ID, studentID, SubmitAttempt{})
	require.True(t, errors.As(err, &serr))
	assert.EqualError(t, err, "already submitted")
	stored, err := env.repo.GetAttempt(ctx, exm.ID, studentID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/6.0, stored.Score.Float64, 1e-9)
}

func TestServiceSubmitTimeBoundary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	exm := seedExam(t, env)

	env.svc.enrollments = fakeEnrollments{"ontime": true, "late": true}

	env.clock.now = examOpen
	onTime, err := env.svc.Start(ctx, exm.ID, "ontime")
	require.NoError(t, err)
	late, err := env.svc.Start(ctx, exm.ID, "late")
	require.NoError(t, err)

	// elapsed == duration is inclusive and still accepted
	env.clock.now = onTime.StartedAt.Add(60 * time.Minute)
	got, err := env.svc.Submit(ctx, exm.ID, "ontime", SubmitAttempt{})
	require.NoError(t, err)
	assert.Equal(t, 0, got.TimeRemaining)
	assert.Equal(t, 0.0, got.Score.Float64)

	// one second over rejects the whole submission
	env.clock.now = late.StartedAt.Add(60*time.Minute + time.Second)
	var serr *core.InvalidStateError
	_, err = env.svc.Submit(ctx, exm.ID, "late", SubmitAttempt{})
	require.True(t, errors.As(err, &serr))
	assert.EqualError(t, err, "time limit exceeded")

	// the attempt stays in progress; there is no expired state
	stored, err := env.repo.GetAttempt(ctx, exm.ID, "late")
	require.NoError(t, err)
	assert.Equal(t, AttemptInProgress, stored.Status)
}

func TestServiceSubmitRequiresAttempt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	exm := seedExam(t, env)

	_, err := env.svc.Submit(ctx, exm.ID, studentID, SubmitAttempt{})
	assert.Equal(t, ErrAttemptNotFound, err)
}

func TestServiceRemainingSeconds(t *testing.T) {
	env := newTestEnv(t)
	exm := Exam{DurationMinutes: 60}
	att := Attempt{Status: AttemptInProgress, StartedAt: examOpen}

	env.clock.now = examOpen.Add(15 * time.Minute)
	assert.Equal(t, 45*60, env.svc.RemainingSeconds(exm, att))

	// never negative once the limit has passed
	env.clock.now = examOpen.Add(2 * time.Hour)
	assert.Equal(t, 0, env.svc.RemainingSeconds(exm, att))

	// completed attempts keep their stored value
	att.Status = AttemptCompleted
	att.TimeRemaining = 300
	att.SubmittedAt = null.TimeFrom(examOpen.Add(55 * time.Minute))
	assert.Equal(t, 300, env.svc.RemainingSeconds(exm, att))
}
