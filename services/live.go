package services

// Типы событий, которые получает админка по websocket.
const (
	LiveAttendanceUpdated = "ATTENDANCE_UPDATED"
	LiveMatchUpdated      = "MATCH_UPDATED"
	LiveRosterUpdated     = "ROSTER_UPDATED"
)

// LivePublisher рассылает изменения подписчикам команды.
type LivePublisher interface {
	Publish(teamID int, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(int, string, interface{}) {}

func publisherOrNoop(p LivePublisher) LivePublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
