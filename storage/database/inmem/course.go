package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ismat-Samadov/educy/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.courses {
		if existing.Code == crs.Code {
			return course.Course{}, course.ErrCodeExists
		}
	}
	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	return courses, nil
}

func (repo *courseRepository) CreateSection(ctx context.Context, sec course.Section) (course.Section, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sec.ID = uuid.New().String()
	if crs, ok := repo.db.courses[sec.CourseID]; ok {
		sec.CourseCode = crs.Code
	}
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *courseRepository) GetSectionByID(ctx context.Context, id string) (course.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return *sec, nil
	}
	return course.Section{}, course.ErrSectionNotFound
}

func (repo *courseRepository) QuerySectionsByCourse(ctx context.Context, courseID string) ([]course.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var sections []course.Section
	for _, sec := range repo.db.sections {
		if sec.CourseID == courseID {
			sections = append(sections, *sec)
		}
	}
	return sections, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enr.SectionID + "|" + enr.StudentID
	if _, ok := repo.db.enrollments[key]; ok {
		return course.Enrollment{}, course.ErrAlreadyEnrolled
	}
	enr.ID = uuid.New().String()
	repo.db.enrollments[key] = &enr
	return enr, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, sectionID, studentID string) (course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enr, ok := repo.db.enrollments[sectionID+"|"+studentID]; ok {
		return *enr, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, enr course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := enr.SectionID + "|" + enr.StudentID
	if _, ok := repo.db.enrollments[key]; !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	repo.db.enrollments[key] = &enr
	return enr, nil
}
