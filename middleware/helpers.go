package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Имена claims в токене сессии
const (
	jwtClaimSubject = "sub"
	jwtClaimTeamID  = "team_id"
)

// Session - администратор и выбранная им команда.
type Session struct {
	Username string
	TeamID   int
}

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// TeamIDFromContext возвращает выбранную команду; 0 - команда не выбрана.
func TeamIDFromContext(ctx context.Context) int {
	session, _ := SessionFromContext(ctx)
	return session.TeamID
}

func sessionFromClaims(claims jwt.MapClaims) (Session, error) {
	username, ok := claims[jwtClaimSubject].(string)
	if !ok || username == "" {
		return Session{}, fmt.Errorf("%w: missing '%s' claim", ErrNoSession, jwtClaimSubject)
	}

	var teamID int
	switch v := claims[jwtClaimTeamID].(type) {
	case nil:
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return Session{}, fmt.Errorf("%w: invalid '%s' claim: %v", ErrNoSession, jwtClaimTeamID, v)
		}
		teamID = int(v)
	default:
		return Session{}, fmt.Errorf("%w: invalid type for '%s' claim: %T", ErrNoSession, jwtClaimTeamID, v)
	}
	return Session{Username: username, TeamID: teamID}, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
