package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core"
	"github.com/Ismat-Samadov/educy/core/user"
)

var (
	// errors
	ErrLessonNotFound = errors.New("lesson not found")
	ErrRoomNotFound   = errors.New("room not found")

	errRoomBooked    = errors.New("the room is already booked by overlapping lessons")
	errNotInstructor = "only the section's instructor or an admin may manage its lessons"
)

type (
	// LessonRepository persists lessons. Reads and writes resolve the Room
	// and CourseCode associations on the returned lessons.
	LessonRepository interface {
		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		QueryLessonsByRoomAndDay(ctx context.Context, roomID string, dayOfWeek int) ([]Lesson, error)
		QueryLessonsBySection(ctx context.Context, sectionID string) ([]Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
	}

	RoomRepository interface {
		CreateRoom(ctx context.Context, room Room) (Room, error)
		GetRoomByID(ctx context.Context, id string) (Room, error)
		QueryAllRooms(ctx context.Context) ([]Room, error)
	}

	// InstructorChecker is implemented by the course service.
	InstructorChecker interface {
		IsInstructorOf(ctx context.Context, sectionID, userID string) (bool, error)
	}

	Service struct {
		repo        LessonRepository
		roomRepo    RoomRepository
		instructors InstructorChecker
		clock       core.Clock
		audit       core.AuditRecorder
	}
)

func NewService(repo LessonRepository, roomRepo RoomRepository, instructors InstructorChecker, clock core.Clock, audit core.AuditRecorder) *Service {
	return &Service{repo: repo, roomRepo: roomRepo, instructors: instructors, clock: clock, audit: audit}
}

func (svc *Service) CreateRoom(ctx context.Context, nr NewRoom) (Room, error) {
	if err := nr.Validate(); err != nil {
		return Room{}, err
	}
	now := svc.clock.Now()
	return svc.roomRepo.CreateRoom(ctx, Room{
		Name:      nr.Name,
		Capacity:  nr.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetRoomByID(ctx context.Context, id string) (Room, error) {
	return svc.roomRepo.GetRoomByID(ctx, id)
}

func (svc *Service) QueryAllRooms(ctx context.Context) ([]Room, error) {
	return svc.roomRepo.QueryAllRooms(ctx)
}

// FindRoomConflicts returns every lesson in the room on the given day whose
// slot overlaps [start, end), excluding excludeLessonID (pass "" when
// creating). An empty roomID means "unassigned room" and never conflicts;
// the check is skipped entirely. Back-to-back lessons are legal.
func (svc *Service) FindRoomConflicts(ctx context.Context, roomID string, dayOfWeek int, start, end, excludeLessonID string) ([]Lesson, error) {
	if roomID == "" {
		return nil, nil
	}

	lessons, err := svc.repo.QueryLessonsByRoomAndDay(ctx, roomID, dayOfWeek)
	if err != nil {
		return nil, err
	}

	var conflicts []Lesson
	for _, lsn := range lessons {
		if lsn.ID == excludeLessonID {
			continue
		}
		if Overlaps(start, end, lsn.StartTime, lsn.EndTime) {
			conflicts = append(conflicts, lsn)
		}
	}
	return conflicts, nil
}

// CreateLesson schedules a new weekly lesson for a section. A requested room
// must be free of overlapping lessons on that day; colliding lessons are
// returned in the ConflictError so callers can report exactly what is in
// the way.
func (svc *Service) CreateLesson(ctx context.Context, actor user.User, nl NewLesson) (Lesson, error) {
	if err := nl.Validate(); err != nil {
		return Lesson{}, err
	}
	if err := svc.checkCanManage(ctx, actor, nl.SectionID); err != nil {
		return Lesson{}, err
	}

	var roomID null.String
	if nl.RoomID != "" {
		room, err := svc.roomRepo.GetRoomByID(ctx, nl.RoomID)
		if err != nil {
			if err == ErrRoomNotFound {
				return Lesson{}, core.NewValidationError(ErrRoomNotFound, core.FieldError{Field: "room_id", Error: ErrRoomNotFound.Error()})
			}
			return Lesson{}, err
		}
		roomID = null.StringFrom(room.ID)

		conflicts, err := svc.FindRoomConflicts(ctx, room.ID, nl.DayOfWeek, nl.StartTime, nl.EndTime, "")
		if err != nil {
			return Lesson{}, err
		}
		if len(conflicts) > 0 {
			return Lesson{}, core.NewConflictError(errRoomBooked, newConflicts(conflicts))
		}
	}

	now := svc.clock.Now()
	lsn, err := svc.repo.CreateLesson(ctx, Lesson{
		SectionID: nl.SectionID,
		Title:     nl.Title,
		DayOfWeek: nl.DayOfWeek,
		StartTime: nl.StartTime,
		EndTime:   nl.EndTime,
		RoomID:    roomID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Lesson{}, err
	}

	svc.recordAudit(ctx, core.AuditLessonCreated, actor.ID, lsn)
	return lsn, nil
}

func (svc *Service) GetLessonByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *Service) QueryLessonsBySection(ctx context.Context, sectionID string) ([]Lesson, error) {
	return svc.repo.QueryLessonsBySection(ctx, sectionID)
}

// UpdateLesson applies a partial update. The supplied fields are merged over
// the stored lesson first, then start<end and room conflicts are re-checked
// against the merged effective slot, excluding the lesson's own id.
func (svc *Service) UpdateLesson(ctx context.Context, actor user.User, id string, ul UpdateLesson) (Lesson, error) {
	origLsn, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if err := svc.checkCanManage(ctx, actor, origLsn.SectionID); err != nil {
		return Lesson{}, err
	}
	if err := ul.Validate(origLsn); err != nil {
		return Lesson{}, err
	}

	roomID := ul.EffectiveRoomID(origLsn)
	if roomID.Valid {
		if _, err := svc.roomRepo.GetRoomByID(ctx, roomID.String); err != nil {
			if err == ErrRoomNotFound {
				return Lesson{}, core.NewValidationError(ErrRoomNotFound, core.FieldError{Field: "room_id", Error: ErrRoomNotFound.Error()})
			}
			return Lesson{}, err
		}

		conflicts, err := svc.FindRoomConflicts(ctx, roomID.String, ul.DayOfWeek, ul.StartTime, ul.EndTime, origLsn.ID)
		if err != nil {
			return Lesson{}, err
		}
		if len(conflicts) > 0 {
			return Lesson{}, core.NewConflictError(errRoomBooked, newConflicts(conflicts))
		}
	}

	lsn := origLsn
	lsn.Title = ul.Title
	lsn.DayOfWeek = ul.DayOfWeek
	lsn.StartTime = ul.StartTime
	lsn.EndTime = ul.EndTime
	lsn.RoomID = roomID
	lsn.UpdatedAt = svc.clock.Now()

	lsn, err = svc.repo.UpdateLesson(ctx, lsn)
	if err != nil {
		return Lesson{}, err
	}

	svc.recordAudit(ctx, core.AuditLessonUpdated, actor.ID, lsn)
	return lsn, nil
}

func (svc *Service) DeleteLesson(ctx context.Context, actor user.User, id string) error {
	lsn, err := svc.repo.GetLessonByID(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.checkCanManage(ctx, actor, lsn.SectionID); err != nil {
		return err
	}
	if err := svc.repo.DeleteLesson(ctx, lsn.ID); err != nil {
		return err
	}
	svc.recordAudit(ctx, core.AuditLessonDeleted, actor.ID, lsn)
	return nil
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

func (svc *Service) recordAudit(ctx context.Context, action, actorID string, lsn Lesson) {
	svc.audit.Record(ctx, core.AuditEvent{
		Action:     action,
		ActorID:    actorID,
		TargetType: "lesson",
		TargetID:   lsn.ID,
		Details:    fmt.Sprintf("%s day %d %s", lsn.Title, lsn.DayOfWeek, lsn.TimeRange()),
	})
}
