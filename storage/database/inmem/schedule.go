package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Ismat-Samadov/educy/core/schedule"
)

type roomRepository struct {
	db *DB
}

var _ schedule.RoomRepository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *DB) *roomRepository {
	return &roomRepository{db: db}
}

func (repo *roomRepository) CreateRoom(ctx context.Context, room schedule.Room) (schedule.Room, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	room.ID = uuid.New().String()
	repo.db.rooms[room.ID] = &room
	return room, nil
}

func (repo *roomRepository) GetRoomByID(ctx context.Context, id string) (schedule.Room, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if room, ok := repo.db.rooms[id]; ok {
		return *room, nil
	}
	return schedule.Room{}, schedule.ErrRoomNotFound
}

func (repo *roomRepository) QueryAllRooms(ctx context.Context) ([]schedule.Room, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rooms := make([]schedule.Room, 0, len(repo.db.rooms))
	for _, room := range repo.db.rooms {
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

type lessonRepository struct {
	db *DB
}

var _ schedule.LessonRepository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) *lessonRepository {
	return &lessonRepository{db: db}
}

// resolve fills in the Room and CourseCode associations.
func (repo *lessonRepository) resolve(lsn schedule.Lesson) schedule.Lesson {
	if lsn.RoomID.Valid {
		if room, ok := repo.db.rooms[lsn.RoomID.String]; ok {
			r := *room
			lsn.Room = &r
		}
	}
	if sec, ok := repo.db.sections[lsn.SectionID]; ok {
		lsn.CourseCode = sec.CourseCode
	}
	return lsn
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, lsn schedule.Lesson) (schedule.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lsn.ID = uuid.New().String()
	repo.db.lessons[lsn.ID] = &lsn
	return repo.resolve(lsn), nil
}

func (repo *lessonRepository) GetLessonByID(ctx context.Context, id string) (schedule.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if lsn, ok := repo.db.lessons[id]; ok {
		return repo.resolve(*lsn), nil
	}
	return schedule.Lesson{}, schedule.ErrLessonNotFound
}

func (repo *lessonRepository) QueryLessonsByRoomAndDay(ctx context.Context, roomID string, dayOfWeek int) ([]schedule.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var lessons []schedule.Lesson
	for _, lsn := range repo.db.lessons {
		if lsn.RoomID.Valid && lsn.RoomID.String == roomID && lsn.DayOfWeek == dayOfWeek {
			lessons = append(lessons, repo.resolve(*lsn))
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].StartTime < lessons[j].StartTime })
	return lessons, nil
}

func (repo *lessonRepository) QueryLessonsBySection(ctx context.Context, sectionID string) ([]schedule.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var lessons []schedule.Lesson
	for _, lsn := range repo.db.lessons {
		if lsn.SectionID == sectionID {
			lessons = append(lessons, repo.resolve(*lsn))
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].DayOfWeek != lessons[j].DayOfWeek {
			return lessons[i].DayOfWeek < lessons[j].DayOfWeek
		}
		return lessons[i].StartTime < lessons[j].StartTime
	})
	return lessons, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, lsn schedule.Lesson) (schedule.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[lsn.ID]; !ok {
		return schedule.Lesson{}, schedule.ErrLessonNotFound
	}
	lsn.Room = nil
	repo.db.lessons[lsn.ID] = &lsn
	return repo.resolve(lsn), nil
}

func (repo *lessonRepository) DeleteLesson(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lessons[id]; !ok {
		return schedule.ErrLessonNotFound
	}
	delete(repo.db.lessons, id)
	return nil
}
