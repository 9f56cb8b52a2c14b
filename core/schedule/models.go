package schedule

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Ismat-Samadov/educy/core"
)

// Days of week (ISO-8601: Monday = 1 .. Sunday = 7)
const (
	Monday = 1 + iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Lesson is one weekly slot of a section, optionally held in a Room. A
// lesson with no room never takes part in conflict checking.
type Lesson struct {
	ID         string      `json:"id"`
	SectionID  string      `json:"section_id"`
	Title      string      `json:"title"`
	DayOfWeek  int         `json:"day_of_week"` // Monday..Sunday
	StartTime  string      `json:"start_time"`  // "HH:MM"
	EndTime    string      `json:"end_time"`    // "HH:MM"
	RoomID     null.String `json:"room_id,omitempty"`
	Room       *Room       `json:"room,omitempty"`        // resolved association
	CourseCode string      `json:"course_code,omitempty"` // resolved via Section
	CreatedAt  time.Time   `json:"created_at"`            // UTC
	UpdatedAt  time.Time   `json:"updated_at"`            // UTC
}

// TimeRange renders the slot for user-facing conflict messages.
func (l Lesson) TimeRange() string {
	return fmt.Sprintf("%s-%s", l.StartTime, l.EndTime)
}

type NewRoom struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"omitempty,min=1"`
}

func (nr *NewRoom) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	return core.Validate.Struct(nr)
}

// NewLesson contains information needed to schedule a new Lesson.
type NewLesson struct {
	SectionID string `json:"section_id" validate:"required,uuid4"`
	Title     string `json:"title" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	RoomID    string `json:"room_id" validate:"omitempty,uuid4"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	return core.Validate.Struct(nl)
}

// UpdateLesson defines what information may be provided to modify an
// existing Lesson. Absent fields are filled in from the stored record
// before validation runs, so start<end is always checked against the
// effective merged slot, not just the fields present in the request.
// RoomID semantics: nil leaves the room unchanged, "" clears it, any other
// value re-assigns it.
type UpdateLesson struct {
	Title     string  `json:"title"`
	DayOfWeek int     `json:"day_of_week" validate:"omitempty,min=1,max=7"`
	StartTime string  `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   string  `json:"end_time" validate:"omitempty,hhmm"`
	RoomID    *string `json:"room_id" validate:"omitempty,uuid4"`
}

func (ul *UpdateLesson) Validate(origLsn Lesson) error {
	if title := core.CleanString(ul.Title); title != "" {
		ul.Title = title
	} else {
		ul.Title = origLsn.Title
	}
	if ul.DayOfWeek == 0 {
		ul.DayOfWeek = origLsn.DayOfWeek
	}
	if ul.StartTime == "" {
		ul.StartTime = origLsn.StartTime
	}
	if ul.EndTime == "" {
		ul.EndTime = origLsn.EndTime
	}
	return core.Validate.Struct(ul)
}

// EffectiveRoomID resolves the room the lesson will occupy after the update.
func (ul *UpdateLesson) EffectiveRoomID(origLsn Lesson) null.String {
	if ul.RoomID == nil {
		return origLsn.RoomID
	}
	if *ul.RoomID == "" {
		return null.String{}
	}
	return null.StringFrom(*ul.RoomID)
}

// Conflict describes one colliding lesson for user-facing error payloads.
type Conflict struct {
	LessonID   string `json:"lesson_id"`
	Title      string `json:"title"`
	CourseCode string `json:"course_code"`
	DayOfWeek  int    `json:"day_of_week"`
	TimeRange  string `json:"time_range"`
}

func newConflicts(lessons []Lesson) []Conflict {
	conflicts := make([]Conflict, 0, len(lessons))
	for _, l := range lessons {
		conflicts = append(conflicts, Conflict{
			LessonID:   l.ID,
			Title:      l.Title,
			CourseCode: l.CourseCode,
			DayOfWeek:  l.DayOfWeek,
			TimeRange:  l.TimeRange(),
		})
	}
	return conflicts
}
