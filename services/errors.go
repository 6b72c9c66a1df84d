package services

import "errors"

// Общие ошибки, используемые в разных сервисах, маппинге HTTP и ответах бота.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrOpponentRequired     = errors.New("opponent is required")
	ErrMatchDateRequired    = errors.New("match date is required")
	ErrInvalidScore         = errors.New("scores must be non-negative")
	ErrMatchNotScheduled    = errors.New("match is not scheduled")
	ErrInvalidPlayerStatus  = errors.New("invalid player status")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidAttendance    = errors.New("invalid attendance status")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrTeamNotSelected      = errors.New("select a team")
	ErrChatNotConfigured    = errors.New("team chat is not configured")
	ErrChannelNotConfigured = errors.New("team channel is not configured")
	ErrStorageDisabled      = errors.New("file storage is not configured")
	ErrEmailDisabled        = errors.New("email sending is not configured")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrNotifierDisabled     = errors.New("telegram bot is not configured")

	// Ошибки конфликтов
	ErrTeamChatConflict       = errors.New("this chat is already bound to a team")
	ErrPlayerTelegramConflict = errors.New("player with this telegram id already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInsufficientRole     = errors.New("insufficient role for this action")
	ErrMemberInactive       = errors.New("member is deactivated in the team")
	ErrNotTeamMember        = errors.New("user is not a member of the team")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrTeamNotFound         = errors.New("team not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrMemberNotFound       = errors.New("team member not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrFinanceEntryNotFound = errors.New("finance entry not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrAdminNotFound        = errors.New("admin not found")
)
