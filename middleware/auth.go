package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/golang-jwt/jwt/v4"
)

const SessionCookieName = "manager_session"

var ErrNoSession = errors.New("session cookie is missing or invalid")

// TeamLister - источник команд для автоматического выбора команды сессии.
type TeamLister interface {
	List(ctx context.Context) ([]*models.Team, error)
}

// Sessions выпускает и проверяет cookie сессии админки (HS256 JWT).
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	logger *slog.Logger
}

func NewSessions(secret string, ttl time.Duration, secure bool, logger *slog.Logger) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
		logger: logger,
	}
}

// Issue подписывает сессию и записывает cookie в ответ.
func (s *Sessions) Issue(w http.ResponseWriter, session Session) error {
	now := s.now()
	claims := jwt.MapClaims{
		jwtClaimSubject: session.Username,
		jwtClaimTeamID:  session.TeamID,
		"iat":           now.Unix(),
		"exp":           now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse читает и проверяет cookie сессии.
func (s *Sessions) Parse(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrNoSession
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := jwt.MapClaims{}
	_, err = parser.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return sessionFromClaims(claims)
}

// Authenticate пропускает только запросы с действующей сессией.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Parse(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireTeam требует выбранную команду. Без выбора берется первая команда и cookie перевыпускается.
func (s *Sessions) RequireTeam(teams TeamLister) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if session.TeamID > 0 {
				next.ServeHTTP(w, r)
				return
			}

			list, err := teams.List(r.Context())
			if err != nil {
				s.logger.ErrorContext(r.Context(), "failed to list teams for session", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}
			if len(list) == 0 {
				writeError(w, http.StatusBadRequest, "select a team")
				return
			}

			session.TeamID = list[0].ID
			if err := s.Issue(w, session); err != nil {
				s.logger.ErrorContext(r.Context(), "failed to reissue session", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
