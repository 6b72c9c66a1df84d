package models

type MatchPlayerStat struct {
	ID        int  `json:"id" db:"id"`
	MatchID   int  `json:"match_id" db:"match_id"`
	PlayerID  int  `json:"player_id" db:"player_id"`
	Minutes   *int `json:"minutes,omitempty" db:"minutes"`
	Points    int  `json:"points" db:"points"`
	Rebounds  int  `json:"rebounds" db:"rebounds"`
	Assists   int  `json:"assists" db:"assists"`
	Fouls     int  `json:"fouls" db:"fouls"`
	PlusMinus *int `json:"plus_minus,omitempty" db:"plus_minus"`
	MVP       bool `json:"mvp" db:"mvp"`

	PlayerName string `json:"player_name,omitempty" db:"-"`
}

type SeasonAverages struct {
	Games       int     `json:"games"`
	PointsAvg   float64 `json:"points_avg"`
	ReboundsAvg float64 `json:"rebounds_avg"`
	AssistsAvg  float64 `json:"assists_avg"`
	MinutesAvg  float64 `json:"minutes_avg"`
}
