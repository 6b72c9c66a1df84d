package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Alex1231123112/manager/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestMatchRepository_MarkReminderSent(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		kind     models.ReminderKind
		query    string
		args     []driver.Value
		affected int64
		want     bool
	}{
		{
			name:     "24h sets timestamp",
			kind:     models.Reminder24h,
			query:    "UPDATE matches SET reminder_24h_sent = TRUE, reminder_24h_sent_at = $2 WHERE id = $1 AND NOT reminder_24h_sent",
			args:     []driver.Value{int64(7), at},
			affected: 1,
			want:     true,
		},
		{
			name:     "stats already sent",
			kind:     models.ReminderStats,
			query:    "UPDATE matches SET reminder_stats_sent = TRUE WHERE id = $1 AND NOT reminder_stats_sent",
			args:     []driver.Value{int64(7)},
			affected: 0,
			want:     false,
		},
		{
			name:     "3h",
			kind:     models.Reminder3h,
			query:    "UPDATE matches SET reminder_3h_sent = TRUE WHERE id = $1 AND NOT reminder_3h_sent",
			args:     []driver.Value{int64(7)},
			affected: 1,
			want:     true,
		},
		{
			name:     "after",
			kind:     models.ReminderAfter,
			query:    "UPDATE matches SET reminder_after_sent = TRUE WHERE id = $1 AND NOT reminder_after_sent",
			args:     []driver.Value{int64(7)},
			affected: 1,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(regexp.QuoteMeta(tt.query)).
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			changed, err := NewPostgresMatchRepository(db).MarkReminderSent(context.Background(), 7, tt.kind, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, changed)
		})
	}
}

func TestMatchRepository_MarkReminderSentUnknownKind(t *testing.T) {
	db, _ := newMockDB(t)

	_, err := NewPostgresMatchRepository(db).MarkReminderSent(context.Background(), 7, models.ReminderKind("1h"), time.Now())
	assert.ErrorIs(t, err, ErrUnknownReminderKind)
}

func TestMatchRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM matches m WHERE m.id = $1")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewPostgresMatchRepository(db).GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM matches WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewPostgresMatchRepository(db).Delete(context.Background(), 5)
	assert.True(t, errors.Is(err, ErrMatchNotFound))
}

func TestMatchRepository_ListDueFor24hScansTeam(t *testing.T) {
	db, mock := newMockDB(t)
	from := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	chat := "-100500"

	rows := sqlmock.NewRows([]string{
		"id", "team_id", "opponent", "match_date", "our_score", "opponent_score", "location", "status",
		"reminder_24h_sent", "reminder_24h_sent_at", "reminder_stats_sent", "reminder_3h_sent", "reminder_after_sent",
		"card_key", "created_at",
		"t_id", "t_name", "t_chat", "t_group", "t_channel", "t_logo", "t_created",
	}).AddRow(
		3, 1, "Ракета", from.Add(24*time.Hour), nil, nil, "Арена", "SCHEDULED",
		false, nil, false, false, false,
		nil, from,
		1, "Тигры", chat, nil, nil, nil, from,
	)
	mock.ExpectQuery(regexp.QuoteMeta("NOT m.reminder_24h_sent")).
		WithArgs(from, to).
		WillReturnRows(rows)

	matches, err := NewPostgresMatchRepository(db).ListDueFor24h(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Ракета", matches[0].Opponent)
	require.NotNil(t, matches[0].Team)
	assert.Equal(t, "Тигры", matches[0].Team.Name)
	assert.Equal(t, chat, matches[0].Team.NotificationChatID())
}
