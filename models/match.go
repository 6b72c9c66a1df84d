package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusCompleted MatchStatus = "COMPLETED"
	MatchStatusCancelled MatchStatus = "CANCELLED"
)

// ReminderKind определяет одно из однократных напоминаний по матчу.
type ReminderKind string

const (
	Reminder24h   ReminderKind = "24h"
	ReminderStats ReminderKind = "stats"
	Reminder3h    ReminderKind = "3h"
	ReminderAfter ReminderKind = "after"
)

type Match struct {
	ID            int         `json:"id" db:"id"`
	TeamID        int         `json:"team_id" db:"team_id"`
	Opponent      string      `json:"opponent" db:"opponent"`
	Date          time.Time   `json:"date" db:"match_date"`
	OurScore      *int        `json:"our_score,omitempty" db:"our_score"`
	OpponentScore *int        `json:"opponent_score,omitempty" db:"opponent_score"`
	Location      *string     `json:"location,omitempty" db:"location"`
	Status        MatchStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`

	// Флаги напоминаний меняются только false -> true.
	Reminder24hSent   bool       `json:"reminder_24h_sent" db:"reminder_24h_sent"`
	Reminder24hSentAt *time.Time `json:"reminder_24h_sent_at,omitempty" db:"reminder_24h_sent_at"`
	ReminderStatsSent bool       `json:"reminder_stats_sent" db:"reminder_stats_sent"`
	Reminder3hSent    bool       `json:"reminder_3h_sent" db:"reminder_3h_sent"`
	ReminderAfterSent bool       `json:"reminder_after_sent" db:"reminder_after_sent"`

	CardKey *string `json:"-" db:"card_key"`
	CardURL *string `json:"card_url,omitempty" db:"-"`

	Team *Team `json:"team,omitempty" db:"-"`
}

func (m *Match) ReminderSent(kind ReminderKind) bool {
	switch kind {
	case Reminder24h:
		return m.Reminder24hSent
	case ReminderStats:
		return m.ReminderStatsSent
	case Reminder3h:
		return m.Reminder3hSent
	case ReminderAfter:
		return m.ReminderAfterSent
	}
	return false
}

func (m *Match) HasResult() bool {
	return m.OurScore != nil && m.OpponentScore != nil
}
