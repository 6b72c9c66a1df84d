package models

import (
	"regexp"
	"strings"
)

var bareSupergroupID = regexp.MustCompile(`^\d{9,15}$`)

// NormalizeGroupChatID приводит id группы/канала к виду, который принимает Bot API.
// Идентификаторы, скопированные без префикса (например, 1234567890), получают "-100".
func NormalizeGroupChatID(chatID string) string {
	id := strings.TrimSpace(chatID)
	if id == "" || strings.HasPrefix(id, "-") {
		return id
	}
	if bareSupergroupID.MatchString(id) {
		return "-100" + id
	}
	return id
}
