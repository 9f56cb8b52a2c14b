package course

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ismat-Samadov/educy/core"
)

// in-memory fakes

type fakeRepo struct {
	courses     map[string]Course
	sections    map[string]Section
	enrollments map[string]Enrollment // sectionID + "|" + studentID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		courses:     make(map[string]Course),
		sections:    make(map[string]Section),
		enrollments: make(map[string]Enrollment),
	}
}

func (r *fakeRepo) CreateCourse(ctx context.Context, crs Course) (Course, error) {
	for _, existing := range r.courses {
		if existing.Code == crs.Code {
			return Course{}, ErrCodeExists
		}
	}
	crs.ID = uuid.New().String()
	r.courses[crs.ID] = crs
	return crs, nil
}

func (r *fakeRepo) GetCourseByID(ctx context.Context, id string) (Course, error) {
	crs, ok := r.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return crs, nil
}

func (r *fakeRepo) QueryAllCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	for _, crs := range r.courses {
		courses = append(courses, crs)
	}
	return courses, nil
}

func (r *fakeRepo) CreateSection(ctx context.Context, sec Section) (Section, error) {
	sec.ID = uuid.New().String()
	r.sections[sec.ID] = sec
	return sec, nil
}

func (r *fakeRepo) GetSectionByID(ctx context.Context, id string) (Section, error) {
	sec, ok := r.sections[id]
	if !ok {
		return Section{}, ErrSectionNotFound
	}
	return sec, nil
}

func (r *fakeRepo) QuerySectionsByCourse(ctx context.Context, courseID string) ([]Section, error) {
	var sections []Section
	for _, sec := range r.sections {
		if sec.CourseID == courseID {
			sections = append(sections, sec)
		}
	}
	return sections, nil
}

func (r *fakeRepo) CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error) {
	key := enr.SectionID + "|" + enr.StudentID
	if _, ok := r.enrollments[key]; ok {
		return Enrollment{}, ErrAlreadyEnrolled
	}
	enr.ID = uuid.New().String()
	r.enrollments[key] = enr
	return enr, nil
}

func (r *fakeRepo) GetEnrollment(ctx context.Context, sectionID, studentID string) (Enrollment, error) {
	enr, ok := r.enrollments[sectionID+"|"+studentID]
	if !ok {
		return Enrollment{}, ErrEnrollmentNotFound
	}
	return enr, nil
}

func (r *fakeRepo) UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error) {
	key := enr.SectionID + "|" + enr.StudentID
	if _, ok := r.enrollments[key]; !ok {
		return Enrollment{}, ErrEnrollmentNotFound
	}
	r.enrollments[key] = enr
	return enr, nil
}

type fakeDirectory map[string]mail.Address

func (f fakeDirectory) GetStudentEmail(ctx context.Context, studentID string) (mail.Address, error) {
	return f[studentID], nil
}

type auditSpy struct {
	events []core.AuditEvent
}

func (a *auditSpy) Record(ctx context.Context, evt core.AuditEvent) {
	a.events = append(a.events, evt)
}

type mailSpy struct {
	messages []core.EmailMessage
}

func (m *mailSpy) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		m.messages = append(m.messages, *msg)
	}
}

var (
	testInstructorID = "b4c1d2e3-0f9a-4b8c-a7d6-e5f4a3b2c1d0"
	testStudentID    = "3e8c0a9b-7d6e-4f5a-b4c3-d2e1f0a9b8c7"
)

type testEnv struct {
	svc   *Service
	repo  *fakeRepo
	audit *auditSpy
	mail  *mailSpy
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	audit := &auditSpy{}
	mailer := &mailSpy{}
	directory := fakeDirectory{testStudentID: {Name: "Sam", Address: "sam@test.cd"}}
	clock := core.FixedClock{Time: time.Date(2021, 11, 1, 8, 0, 0, 0, time.UTC)}
	return &testEnv{
		svc:   NewService(repo, directory, clock, audit, mailer),
		repo:  repo,
		audit: audit,
		mail:  mailer,
	}
}

func (env *testEnv) seedSection(t *testing.T) Section {
	t.Helper()
	ctx := context.Background()
	crs, err := env.svc.CreateCourse(ctx, NewCourse{Code: "cs101", Title: "Intro to CS"})
	require.NoError(t, err)
	sec, err := env.svc.CreateSection(ctx, NewSection{
		CourseID:     crs.ID,
		InstructorID: testInstructorID,
		Term:         "2021-fall",
	})
	require.NoError(t, err)
	return sec
}

func TestServiceCreateCourse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	crs, err := env.svc.CreateCourse(ctx, NewCourse{Code: " CS101 ", Title: "Intro to CS"})
	require.NoError(t, err)
	assert.Equal(t, "cs101", crs.Code) // cleaned and lowercased

	// duplicate code
	_, err = env.svc.CreateCourse(ctx, NewCourse{Code: "cs101", Title: "Other"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "code", verr.Fields[0].Field)

	// missing title
	_, err = env.svc.CreateCourse(ctx, NewCourse{Code: "cs102"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "title", verrs[0].Field())

	// interior whitespace never reaches storage
	_, err = env.svc.CreateCourse(ctx, NewCourse{Code: "CS 101", Title: "Intro to CS"})
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "code", verrs[0].Field())
}

func TestServiceCreateSection(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	crs, err := env.svc.CreateCourse(ctx, NewCourse{Code: "cs101", Title: "Intro to CS"})
	require.NoError(t, err)

	sec, err := env.svc.CreateSection(ctx, NewSection{
		CourseID:     crs.ID,
		InstructorID: testInstructorID,
		Term:         "2021-fall",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs101", sec.CourseCode)

	// unknown course
	_, err = env.svc.CreateSection(ctx, NewSection{
		CourseID:     uuid.New().String(),
		InstructorID: testInstructorID,
		Term:         "2021-fall",
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "course_id", verr.Fields[0].Field)
}

func TestServiceEnroll(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sec := env.seedSection(t)

	enr, err := env.svc.Enroll(ctx, sec.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, EnrollmentEnrolled, enr.Status)

	enrolled, err := env.svc.IsEnrolled(ctx, sec.ID, testStudentID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	require.Len(t, env.audit.events, 1)
	assert.Equal(t, core.AuditEnrolled, env.audit.events[0].Action)
	require.Len(t, env.mail.messages, 1)
	assert.Equal(t, "sam@test.cd", env.mail.messages[0].To[0].Address)

	// enrolling twice surfaces the existing enrollment
	_, err = env.svc.Enroll(ctx, sec.ID, testStudentID)
	var cerr *core.ConflictError
	require.ErrorAs(t, err, &cerr)
	existing, ok := cerr.Conflicts.(Enrollment)
	require.True(t, ok)
	assert.Equal(t, enr.ID, existing.ID)

	// unknown section
	_, err = env.svc.Enroll(ctx, uuid.New().String(), testStudentID)
	assert.Equal(t, ErrSectionNotFound, err)
}

func TestServiceDropAndReEnroll(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sec := env.seedSection(t)

	enr, err := env.svc.Enroll(ctx, sec.ID, testStudentID)
	require.NoError(t, err)

	dropped, err := env.svc.Drop(ctx, sec.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, EnrollmentDropped, dropped.Status)

	enrolled, err := env.svc.IsEnrolled(ctx, sec.ID, testStudentID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	// dropping again is rejected
	_, err = env.svc.Drop(ctx, sec.ID, testStudentID)
	var serr *core.InvalidStateError
	require.ErrorAs(t, err, &serr)

	// re-enrolling reactivates the same enrollment
	reEnr, err := env.svc.Enroll(ctx, sec.ID, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, enr.ID, reEnr.ID)
	assert.Equal(t, EnrollmentEnrolled, reEnr.Status)
}

func TestServiceIsInstructorOf(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sec := env.seedSection(t)

	ok, err := env.svc.IsInstructorOf(ctx, sec.ID, testInstructorID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.svc.IsInstructorOf(ctx, sec.ID, testStudentID)
	require.NoError(t, err)
	assert.False(t, ok)
}
