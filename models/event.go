package models

import "time"

type EventType string

const (
	EventTypeTraining EventType = "TRAINING"
	EventTypeMeeting  EventType = "MEETING"
	EventTypeOther    EventType = "OTHER"
)

type Event struct {
	ID          int       `json:"id" db:"id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	Title       string    `json:"title" db:"title"`
	Type        EventType `json:"event_type" db:"event_type"`
	EventDate   time.Time `json:"event_date" db:"event_date"`
	Location    *string   `json:"location,omitempty" db:"location"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
