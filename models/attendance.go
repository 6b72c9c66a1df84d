package models

import (
	"strings"
	"time"
)

type AttendanceStatus string

const (
	AttendanceComing    AttendanceStatus = "COMING"
	AttendanceLate      AttendanceStatus = "LATE"
	AttendanceNotComing AttendanceStatus = "NOT_COMING"
)

func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	status := AttendanceStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case AttendanceComing, AttendanceLate, AttendanceNotComing:
		return status, true
	}
	return "", false
}

func (s AttendanceStatus) Label() string {
	switch s {
	case AttendanceComing:
		return "Буду"
	case AttendanceLate:
		return "Опоздаю"
	case AttendanceNotComing:
		return "Не смогу"
	}
	return ""
}

type EventAttendance struct {
	ID             int              `json:"id" db:"id"`
	MatchID        int              `json:"match_id" db:"match_id"`
	TelegramUserID string           `json:"telegram_user_id" db:"telegram_user_id"`
	Status         AttendanceStatus `json:"status" db:"status"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

type AttendanceCounts struct {
	Coming     int `json:"coming"`
	Late       int `json:"late"`
	NotComing  int `json:"not_coming"`
	NoResponse int `json:"no_response"`
}

type AttendanceRow struct {
	TelegramUserID   string           `json:"telegram_user_id"`
	DisplayName      string           `json:"display_name"`
	TelegramUsername string           `json:"telegram_username"`
	Status           AttendanceStatus `json:"status,omitempty"`
}

type MatchAttendance struct {
	MatchID    int              `json:"match_id"`
	Responded  []AttendanceRow  `json:"responded"`
	NoResponse []AttendanceRow  `json:"no_response"`
	Counts     AttendanceCounts `json:"counts"`
}

type MemberAttendance struct {
	MatchID  int              `json:"match_id"`
	Opponent string           `json:"opponent"`
	Date     time.Time        `json:"date"`
	Status   AttendanceStatus `json:"status,omitempty"`
}
