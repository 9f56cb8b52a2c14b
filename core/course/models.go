package course

import (
	"time"

	"github.com/Ismat-Samadov/educy/core"
)

// Enrollment statuses
const (
	EnrollmentEnrolled = "enrolled"
	EnrollmentDropped  = "dropped"
)

type Course struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Section is one offering of a Course, taught by one instructor.
type Section struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	InstructorID string    `json:"instructor_id"`
	Term         string    `json:"term"`
	CourseCode   string    `json:"course_code,omitempty"` // resolved from Course
	CreatedAt    time.Time `json:"created_at"`            // UTC
	UpdatedAt    time.Time `json:"updated_at"`            // UTC
}

type Enrollment struct {
	ID        string    `json:"id"`
	SectionID string    `json:"section_id"`
	StudentID string    `json:"student_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (e Enrollment) IsActive() bool { return e.Status == EnrollmentEnrolled }

type NewCourse struct {
	Code  string `json:"code" validate:"required,coursecode"`
	Title string `json:"title" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	return core.Validate.Struct(nc)
}

type NewSection struct {
	CourseID     string `json:"course_id" validate:"required,uuid4"`
	InstructorID string `json:"instructor_id" validate:"required,uuid4"`
	Term         string `json:"term" validate:"required"`
}

func (ns *NewSection) Validate() error {
	ns.Term = core.CleanString(ns.Term)
	return core.Validate.Struct(ns)
}
