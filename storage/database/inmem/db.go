// Package inmemdb provides map-backed repositories for tests and local
// development. The same uniqueness rules as the SQL schema are enforced so
// services see identical error behavior.
package inmemdb

import (
	"sync"

	"github.com/Ismat-Samadov/educy/core"
	"github.com/Ismat-Samadov/educy/core/course"
	"github.com/Ismat-Samadov/educy/core/exam"
	"github.com/Ismat-Samadov/educy/core/schedule"
	"github.com/Ismat-Samadov/educy/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	sections    map[string]*course.Section
	enrollments map[string]*course.Enrollment // sectionID + "|" + studentID
	rooms       map[string]*schedule.Room
	lessons     map[string]*schedule.Lesson
	exams       map[string]*exam.Exam
	questions   map[string][]exam.Question // examID ->
	attempts    map[string]*exam.Attempt   // examID + "|" + studentID
	answers     map[string]*exam.Answer    // attemptID + "|" + questionID
	auditEvents []core.AuditEvent
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		sections:    make(map[string]*course.Section),
		enrollments: make(map[string]*course.Enrollment),
		rooms:       make(map[string]*schedule.Room),
		lessons:     make(map[string]*schedule.Lesson),
		exams:       make(map[string]*exam.Exam),
		questions:   make(map[string][]exam.Question),
		attempts:    make(map[string]*exam.Attempt),
		answers:     make(map[string]*exam.Answer),
	}
}
