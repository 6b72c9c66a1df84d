package models

// InlineButton - кнопка под сообщением; Data возвращается боту в callback.
type InlineButton struct {
	Text string
	Data string
}

type OutgoingMessage struct {
	ChatID  string
	Text    string
	Buttons [][]InlineButton
	// Keyboard - обычная клавиатура бота (кнопки-команды).
	Keyboard [][]string
}

type OutgoingPhoto struct {
	ChatID   string
	FileName string
	Data     []byte
	Caption  string
}

type OutgoingPoll struct {
	ChatID    string
	Question  string
	Options   []string
	Anonymous bool
}
