package models

import "time"

type Invitation struct {
	ID        int       `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Role      Role      `json:"role" db:"role"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Link string `json:"link,omitempty" db:"-"`
}

// IsExpired - приглашение недействительно начиная с момента ExpiresAt.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
