package course

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/Ismat-Samadov/educy/core"
)

var (
	// errors
	ErrCourseNotFound     = errors.New("course not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrCodeExists         = errors.New("a course with this code already exists")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this section")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)

		CreateSection(ctx context.Context, sec Section) (Section, error)
		GetSectionByID(ctx context.Context, id string) (Section, error)
		QuerySectionsByCourse(ctx context.Context, courseID string) ([]Section, error)

		// CreateEnrollment returns ErrAlreadyEnrolled when the
		// (section, student) pair already exists.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, sectionID, studentID string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	}

	// StudentDirectory resolves a student's contact details for
	// notification glue. Implemented by the user service.
	StudentDirectory interface {
		GetStudentEmail(ctx context.Context, studentID string) (mail.Address, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		clock    core.Clock
		audit    core.AuditRecorder
		mailSvc  core.EmailService
	}
)

func NewService(repo Repository, students StudentDirectory, clock core.Clock, audit core.AuditRecorder, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, students: students, clock: clock, audit: audit, mailSvc: mailSvc}
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}
	now := svc.clock.Now()
	crs, err := svc.repo.CreateCourse(ctx, Course{
		Code:      nc.Code,
		Title:     nc.Title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if err == ErrCodeExists {
			return Course{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
		}
		return Course{}, err
	}
	return crs, nil
}

func (svc *Service) GetCourseByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) QueryAllCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) CreateSection(ctx context.Context, ns NewSection) (Section, error) {
	if err := ns.Validate(); err != nil {
		return Section{}, err
	}
	crs, err := svc.repo.GetCourseByID(ctx, ns.CourseID)
	if err != nil {
		if err == ErrCourseNotFound {
			return Section{}, core.NewValidationError(ErrCourseNotFound, core.FieldError{Field: "course_id", Error: ErrCourseNotFound.Error()})
		}
		return Section{}, err
	}
	now := svc.clock.Now()
	sec, err := svc.repo.CreateSection(ctx, Section{
		CourseID:     crs.ID,
		InstructorID: ns.InstructorID,
		Term:         ns.Term,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Section{}, err
	}
	sec.CourseCode = crs.Code
	return sec, nil
}

func (svc *Service) GetSectionByID(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSectionByID(ctx, id)
}

func (svc *Service) QuerySectionsByCourse(ctx context.Context, courseID string) ([]Section, error) {
	return svc.repo.QuerySectionsByCourse(ctx, courseID)
}

// Enroll adds a student to a section. Re-enrolling after a drop reactivates
// the existing enrollment; enrolling twice surfaces the existing enrollment
// as a ConflictError.
func (svc *Service) Enroll(ctx context.Context, sectionID, studentID string) (Enrollment, error) {
	sec, err := svc.repo.GetSectionByID(ctx, sectionID)
	if err != nil {
		return Enrollment{}, err
	}

	now := svc.clock.Now()
	if enr, err := svc.repo.GetEnrollment(ctx, sec.ID, studentID); err == nil {
		if enr.IsActive() {
			return Enrollment{}, core.NewConflictError(ErrAlreadyEnrolled, enr)
		}
		enr.Status = EnrollmentEnrolled
		enr.UpdatedAt = now
		return svc.repo.UpdateEnrollment(ctx, enr)
	} else if err != ErrEnrollmentNotFound {
		return Enrollment{}, err
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		SectionID: sec.ID,
		StudentID: studentID,
		Status:    EnrollmentEnrolled,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// lost a concurrent race to the unique (section, student) index
		if err == ErrAlreadyEnrolled {
			if existing, gerr := svc.repo.GetEnrollment(ctx, sec.ID, studentID); gerr == nil {
				return Enrollment{}, core.NewConflictError(ErrAlreadyEnrolled, existing)
			}
		}
		return Enrollment{}, err
	}

	svc.audit.Record(ctx, core.AuditEvent{
		Action:     core.AuditEnrolled,
		ActorID:    studentID,
		TargetType: "section",
		TargetID:   sec.ID,
		Details:    fmt.Sprintf("student %s enrolled in section %s", studentID, sec.ID),
	})
	svc.sendEnrollmentMail(ctx, sec, studentID)
	return enr, nil
}

func (svc *Service) Drop(ctx context.Context, sectionID, studentID string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, sectionID, studentID)
	if err != nil {
		return Enrollment{}, err
	}
	if !enr.IsActive() {
		return Enrollment{}, core.NewInvalidStateError("enrollment is not active")
	}
	enr.Status = EnrollmentDropped
	enr.UpdatedAt = svc.clock.Now()
	return svc.repo.UpdateEnrollment(ctx, enr)
}

// IsEnrolled reports whether the student has an active enrollment in the section.
func (svc *Service) IsEnrolled(ctx context.Context, sectionID, studentID string) (bool, error) {
	enr, err := svc.repo.GetEnrollment(ctx, sectionID, studentID)
	if err != nil {
		if err == ErrEnrollmentNotFound {
			return false, nil
		}
		return false, err
	}
	return enr.IsActive(), nil
}

// IsInstructorOf reports whether the user teaches the section.
func (svc *Service) IsInstructorOf(ctx context.Context, sectionID, userID string) (bool, error) {
	sec, err := svc.repo.GetSectionByID(ctx, sectionID)
	if err != nil {
		return false, err
	}
	return sec.InstructorID == userID, nil
}

func (svc *Service) sendEnrollmentMail(ctx context.Context, sec Section, studentID string) {
	addr, err := svc.students.GetStudentEmail(ctx, studentID)
	if err != nil || addr.Address == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{addr},
		Subject: "Enrollment confirmed",
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYou are now enrolled in %s (%s).\n",
			addr.Name, sec.CourseCode, sec.Term,
		),
	})
}
