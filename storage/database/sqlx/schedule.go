package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core/schedule"
)

type dbRoom struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Capacity  int       `db:"capacity"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r dbRoom) toCore() schedule.Room {
	return schedule.Room{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type dbLesson struct {
	ID        string      `db:"id"`
	SectionID string      `db:"section_id"`
	Title     string      `db:"title"`
	DayOfWeek int         `db:"day_of_week"`
	StartTime string      `db:"start_time"`
	EndTime   string      `db:"end_time"`
	RoomID    null.String `db:"room_id"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`

	RoomName     null.String `db:"room_name"`
	RoomCapacity null.Int    `db:"room_capacity"`
	CourseCode   string      `db:"course_code"`
}

func (l dbLesson) toCore() schedule.Lesson {
	lsn := schedule.Lesson{
		ID:         l.ID,
		SectionID:  l.SectionID,
		Title:      l.Title,
		DayOfWeek:  l.DayOfWeek,
		StartTime:  l.StartTime,
		EndTime:    l.EndTime,
		RoomID:     l.RoomID,
		CourseCode: l.CourseCode,
		CreatedAt:  l.CreatedAt.UTC(),
		UpdatedAt:  l.UpdatedAt.UTC(),
	}
	if l.RoomID.Valid {
		lsn.Room = &schedule.Room{
			ID:       l.RoomID.String,
			Name:     l.RoomName.String,
			Capacity: l.RoomCapacity.Int,
		}
	}
	return lsn
}

const lessonQuery = `
SELECT l.id, l.section_id, l.title, l.day_of_week, l.start_time, l.end_time, l.room_id,
       l.created_at, l.updated_at,
       r.name AS room_name, r.capacity AS room_capacity,
       c.code AS course_code
FROM lesson l
LEFT JOIN room r ON r.id = l.room_id
JOIN section s ON s.id = l.section_id
JOIN course c ON c.id = s.course_id`

type roomRepository struct {
	db *sqlx.DB
}

var _ schedule.RoomRepository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *sqlx.DB) *roomRepository {
	return &roomRepository{db: db}
}

func (repo roomRepository) CreateRoom(ctx context.Context, room schedule.Room) (schedule.Room, error) {
	var row dbRoom
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO room (name, capacity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, capacity, created_at, updated_at`,
		room.Name, room.Capacity, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return schedule.Room{}, errors.Wrap(err, "creating room")
	}
	return row.toCore(), nil
}

func (repo roomRepository) GetRoomByID(ctx context.Context, id string) (schedule.Room, error) {
	var row dbRoom
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, capacity, created_at, updated_at FROM room WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Room{}, schedule.ErrRoomNotFound
		}
		return schedule.Room{}, errors.Wrap(err, "getting room")
	}
	return row.toCore(), nil
}

func (repo roomRepository) QueryAllRooms(ctx context.Context) ([]schedule.Room, error) {
	var rows []dbRoom
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, capacity, created_at, updated_at FROM room ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying rooms")
	}

	rooms := make([]schedule.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toCore())
	}
	return rooms, nil
}

type lessonRepository struct {
	db *sqlx.DB
}

var _ schedule.LessonRepository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo lessonRepository) CreateLesson(ctx context.Context, lsn schedule.Lesson) (schedule.Lesson, error) {
	var id string
	err := repo.db.GetContext(ctx, &id,
		`INSERT INTO lesson (section_id, title, day_of_week, start_time, end_time, room_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		lsn.SectionID, lsn.Title, lsn.DayOfWeek, lsn.StartTime, lsn.EndTime, lsn.RoomID, lsn.CreatedAt, lsn.UpdatedAt,
	)
	if err != nil {
		return schedule.Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return repo.GetLessonByID(ctx, id)
}

func (repo lessonRepository) GetLessonByID(ctx context.Context, id string) (schedule.Lesson, error) {
	var row dbLesson
	err := repo.db.GetContext(ctx, &row, lessonQuery+` WHERE l.id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Lesson{}, schedule.ErrLessonNotFound
		}
		return schedule.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return row.toCore(), nil
}

func (repo lessonRepository) QueryLessonsByRoomAndDay(ctx context.Context, roomID string, dayOfWeek int) ([]schedule.Lesson, error) {
	var rows []dbLesson
	err := repo.db.SelectContext(ctx, &rows,
		lessonQuery+` WHERE l.room_id = $1 AND l.day_of_week = $2 ORDER BY l.start_time`,
		roomID, dayOfWeek,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons by room and day")
	}
	return toCoreLessons(rows), nil
}

func (repo lessonRepository) QueryLessonsBySection(ctx context.Context, sectionID string) ([]schedule.Lesson, error) {
	var rows []dbLesson
	err := repo.db.SelectContext(ctx, &rows,
		lessonQuery+` WHERE l.section_id = $1 ORDER BY l.day_of_week, l.start_time`,
		sectionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons by section")
	}
	return toCoreLessons(rows), nil
}

func (repo lessonRepository) UpdateLesson(ctx context.Context, lsn schedule.Lesson) (schedule.Lesson, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE lesson SET title = $2, day_of_week = $3, start_time = $4, end_time = $5, room_id = $6, updated_at = $7
		 WHERE id = $1`,
		lsn.ID, lsn.Title, lsn.DayOfWeek, lsn.StartTime, lsn.EndTime, lsn.RoomID, lsn.UpdatedAt,
	)
	if err != nil {
		return schedule.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Lesson{}, schedule.ErrLessonNotFound
	}
	return repo.GetLessonByID(ctx, lsn.ID)
}

func (repo lessonRepository) DeleteLesson(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM lesson WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrLessonNotFound
	}
	return nil
}

func toCoreLessons(rows []dbLesson) []schedule.Lesson {
	lessons := make([]schedule.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.toCore())
	}
	return lessons
}
