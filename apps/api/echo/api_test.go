package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ismat-Samadov/educy/core/course"
	"github.com/Ismat-Samadov/educy/core/exam"
	"github.com/Ismat-Samadov/educy/core/schedule"
	"github.com/Ismat-Samadov/educy/core/user"
	auditsvc "github.com/Ismat-Samadov/educy/services/audit"
	emailsvc "github.com/Ismat-Samadov/educy/services/email"
	logsvc "github.com/Ismat-Samadov/educy/services/logger"
	inmemdb "github.com/Ismat-Samadov/educy/storage/database/inmem"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type testApp struct {
	server Server
	clock  *fakeClock

	userSvc *user.Service

	adminToken   string
	teacherToken string
	studentToken string

	teacher user.User
	student user.User
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	clock := &fakeClock{now: time.Date(2021, 11, 1, 8, 0, 0, 0, time.UTC)}
	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewTestLogger(t)
	audit := auditsvc.NewServiceMock(inmemdb.NewAuditRepository(db), clock, logger)

	userSvc := user.NewService(inmemdb.NewUserRepository(db), clock, mailSvc)
	courseSvc := course.NewService(inmemdb.NewCourseRepository(db), userSvc, clock, audit, mailSvc)
	scheduleSvc := schedule.NewService(inmemdb.NewLessonRepository(db), inmemdb.NewRoomRepository(db), courseSvc, clock, audit)
	examSvc := exam.NewService(inmemdb.NewExamRepository(db), courseSvc, courseSvc, userSvc, clock, audit, mailSvc)

	app := &testApp{
		clock:   clock,
		userSvc: userSvc,
		server: NewServer(&Options{
			Address:        "localhost:8000",
			DisableReqLogs: true,
			Logger:         logger,
			UserSvc:        userSvc,
			CourseSvc:      courseSvc,
			ScheduleSvc:    scheduleSvc,
			ExamSvc:        examSvc,
		}),
	}

	admin := app.createUser(t, "Ada Admin", "adaadmin", user.RoleAdmin)
	app.teacher = app.createUser(t, "Tina Teacher", "tinateacher", user.RoleTeacher)
	app.student = app.createUser(t, "Sam Student", "samstudent", user.RoleStudent)
	app.adminToken = tokenFor(t, admin)
	app.teacherToken = tokenFor(t, app.teacher)
	app.studentToken = tokenFor(t, app.student)
	return app
}

func (app *testApp) createUser(t *testing.T, name, uname, role string) user.User {
	t.Helper()
	usr, err := app.userSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    uname + "@test.local",
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return usr
}

func tokenFor(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// createSection seeds a course and one section taught by the app teacher.
func (app *testApp) createSection(t *testing.T, code string) course.Section {
	t.Helper()

	rec := app.request(t, http.MethodPost, "/v1/courses", app.adminToken, echo.Map{
		"code": code, "title": "Course " + code,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	decode(t, rec, &crs)

	rec = app.request(t, http.MethodPost, "/v1/sections", app.adminToken, echo.Map{
		"course_id": crs.ID, "instructor_id": app.teacher.ID, "term": "2021-fall",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sec course.Section
	decode(t, rec, &sec)
	return sec
}

func TestAPIAuthRequired(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodGet, "/v1/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request(t, http.MethodPost, "/v1/users/register", app.studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPILogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.request(t, http.MethodPost, "/v1/users/login", "", echo.Map{
		"username": "samstudent", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	rec = app.request(t, http.MethodPost, "/v1/users/login", "", echo.Map{
		"username": "samstudent", "password": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPILessonConflicts(t *testing.T) {
	app := newTestApp(t)
	sec := app.createSection(t, "cs101")

	rec := app.request(t, http.MethodPost, "/v1/rooms", app.adminToken, echo.Map{
		"name": "R101", "capacity": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var room schedule.Room
	decode(t, rec, &room)

	// first booking of the room on Monday morning
	rec = app.request(t, http.MethodPost, "/v1/lessons", app.teacherToken, echo.Map{
		"section_id": sec.ID, "title": "Lecture", "day_of_week": 1,
		"start_time": "09:00", "end_time": "10:30", "room_id": room.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var lsn schedule.Lesson
	decode(t, rec, &lsn)

	// overlapping slot is rejected and names the offending lesson
	rec = app.request(t, http.MethodPost, "/v1/lessons", app.teacherToken, echo.Map{
		"section_id": sec.ID, "title": "Lab", "day_of_week": 1,
		"start_time": "10:00", "end_time": "11:00", "room_id": room.ID,
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var conflictResp struct {
		Error     string              `json:"error"`
		Conflicts []schedule.Conflict `json:"conflicts"`
	}
	decode(t, rec, &conflictResp)
	require.Len(t, conflictResp.Conflicts, 1)
	assert.Equal(t, lsn.ID, conflictResp.Conflicts[0].LessonID)
	assert.Equal(t, "09:00-10:30", conflictResp.Conflicts[0].TimeRange)

	// back-to-back is fine
	rec = app.request(t, http.MethodPost, "/v1/lessons", app.teacherToken, echo.Map{
		"section_id": sec.ID, "title": "Lab", "day_of_week": 1,
		"start_time": "10:30", "end_time": "11:30", "room_id": room.ID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// students cannot manage lessons
	rec = app.request(t, http.MethodPost, "/v1/lessons", app.studentToken, echo.Map{
		"section_id": sec.ID, "title": "Rogue", "day_of_week": 2,
		"start_time": "09:00", "end_time": "10:00",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPIExamFlow(t *testing.T) {
	app := newTestApp(t)
	sec := app.createSection(t, "cs102")

	rec := app.request(t, http.MethodPost, fmt.Sprintf("/v1/sections/%s/enroll", sec.ID), app.studentToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	opens := app.clock.Now().Add(time.Hour)
	rec = app.request(t, http.MethodPost, "/v1/exams", app.teacherToken, echo.Map{
		"section_id":       sec.ID,
		"title":            "Midterm",
		"duration_minutes": 30,
		"start_time":       opens,
		"end_time":         opens.Add(2 * time.Hour),
		"questions": []echo.Map{
			{"type": "multiple_choice", "prompt": "2+2?", "options": []string{"3", "4"}, "correct_answer": "4", "points": 1},
			{"type": "true_false", "prompt": "Go has generics.", "correct_answer": "true", "points": 1},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var exm exam.Exam
	decode(t, rec, &exm)
	require.Len(t, exm.Questions, 2)

	startPath := fmt.Sprintf("/v1/exams/%s/start", exm.ID)
	submitPath := fmt.Sprintf("/v1/exams/%s/submit", exm.ID)

	// before the window opens
	rec = app.request(t, http.MethodPost, startPath, app.studentToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// unenrolled users never get in, open window or not
	rec = app.request(t, http.MethodPost, startPath, app.teacherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	app.clock.now = opens.Add(10 * time.Minute)
	rec = app.request(t, http.MethodPost, startPath, app.studentToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var att exam.Attempt
	decode(t, rec, &att)
	assert.Equal(t, exam.AttemptInProgress, att.Status)
	assert.Equal(t, 30*60, att.TimeRemaining)

	// a second start surfaces the surviving attempt
	rec = app.request(t, http.MethodPost, startPath, app.studentToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var restartResp struct {
		Error     string       `json:"error"`
		Conflicts exam.Attempt `json:"conflicts"`
	}
	decode(t, rec, &restartResp)
	assert.Equal(t, att.ID, restartResp.Conflicts.ID)

	// the countdown on the attempt endpoint follows the clock
	app.clock.now = app.clock.now.Add(5 * time.Minute)
	rec = app.request(t, http.MethodGet, fmt.Sprintf("/v1/exams/%s/attempt", exm.ID), app.studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var attResp attemptResponse
	decode(t, rec, &attResp)
	assert.Equal(t, 25*60, attResp.TimeRemaining)

	app.clock.now = app.clock.now.Add(20 * time.Minute) // 25 min elapsed
	rec = app.request(t, http.MethodPatch, submitPath, app.studentToken, echo.Map{
		"answers": []echo.Map{
			{"question_id": exm.Questions[0].ID, "value": "4"},
			{"question_id": exm.Questions[1].ID, "value": "False"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &att)
	assert.Equal(t, exam.AttemptCompleted, att.Status)
	require.True(t, att.Score.Valid)
	assert.InDelta(t, 50.0, att.Score.Float64, 0.001)
	assert.Equal(t, 5*60, att.TimeRemaining)

	// completion is write-once
	rec = app.request(t, http.MethodPatch, submitPath, app.studentToken, echo.Map{})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}
