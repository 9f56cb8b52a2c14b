package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Ismat-Samadov/educy/core/course"
)

type dbCourse struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (c dbCourse) toCore() course.Course {
	return course.Course{
		ID:        c.ID,
		Code:      c.Code,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

type dbSection struct {
	ID           string    `db:"id"`
	CourseID     string    `db:"course_id"`
	InstructorID string    `db:"instructor_id"`
	Term         string    `db:"term"`
	CourseCode   string    `db:"course_code"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s dbSection) toCore() course.Section {
	return course.Section{
		ID:           s.ID,
		CourseID:     s.CourseID,
		InstructorID: s.InstructorID,
		Term:         s.Term,
		CourseCode:   s.CourseCode,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
}

type dbEnrollment struct {
	ID        string    `db:"id"`
	SectionID string    `db:"section_id"`
	StudentID string    `db:"student_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (e dbEnrollment) toCore() course.Enrollment {
	return course.Enrollment{
		ID:        e.ID,
		SectionID: e.SectionID,
		StudentID: e.StudentID,
		Status:    e.Status,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

const sectionQuery = `
SELECT s.id, s.course_id, s.instructor_id, s.term, s.created_at, s.updated_at,
       c.code AS course_code
FROM section s
JOIN course c ON c.id = s.course_id`

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	var row dbCourse
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO course (code, title, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, code, title, created_at, updated_at`,
		crs.Code, crs.Title, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "course_code_key") {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return row.toCore(), nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row dbCourse
	err := repo.db.GetContext(ctx, &row, `SELECT id, code, title, created_at, updated_at FROM course WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCore(), nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []dbCourse
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, code, title, created_at, updated_at FROM course ORDER BY code`)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCore())
	}
	return courses, nil
}

func (repo courseRepository) CreateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	var id string
	err := repo.db.GetContext(ctx, &id,
		`INSERT INTO section (course_id, instructor_id, term, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		sec.CourseID, sec.InstructorID, sec.Term, sec.CreatedAt, sec.UpdatedAt,
	)
	if err != nil {
		return course.Section{}, errors.Wrap(err, "creating section")
	}
	return repo.GetSectionByID(ctx, id)
}

func (repo courseRepository) GetSectionByID(ctx context.Context, id string) (course.Section, error) {
	var row dbSection
	err := repo.db.GetContext(ctx, &row, sectionQuery+` WHERE s.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Section{}, course.ErrSectionNotFound
		}
		return course.Section{}, errors.Wrap(err, "getting section")
	}
	return row.toCore(), nil
}

func (repo courseRepository) QuerySectionsByCourse(ctx context.Context, courseID string) ([]course.Section, error) {
	var rows []dbSection
	err := repo.db.SelectContext(ctx, &rows, sectionQuery+` WHERE s.course_id = $1 ORDER BY s.term`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}

	sections := make([]course.Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, row.toCore())
	}
	return sections, nil
}

func (repo courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	var row dbEnrollment
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO enrollment (section_id, student_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, section_id, student_id, status, created_at, updated_at`,
		enr.SectionID, enr.StudentID, enr.Status, enr.CreatedAt, enr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "enrollment_section_id_student_id_key") {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return row.toCore(), nil
}

func (repo courseRepository) GetEnrollment(ctx context.Context, sectionID, studentID string) (course.Enrollment, error) {
	var row dbEnrollment
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, section_id, student_id, status, created_at, updated_at
		 FROM enrollment WHERE section_id = $1 AND student_id = $2`,
		sectionID, studentID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toCore(), nil
}

func (repo courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	var row dbEnrollment
	err := repo.db.GetContext(ctx, &row,
		`UPDATE enrollment SET status = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING id, section_id, student_id, status, created_at, updated_at`,
		enr.ID, enr.Status, enr.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return row.toCore(), nil
}
