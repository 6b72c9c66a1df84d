package models

// LeagueTableRow - строка турнирной таблицы лиги, в которой играет команда.
type LeagueTableRow struct {
	ID         int    `json:"id" db:"id"`
	TeamID     int    `json:"team_id" db:"team_id"`
	Position   int    `json:"position" db:"position"`
	TeamName   string `json:"team_name" db:"team_name"`
	Wins       int    `json:"wins" db:"wins"`
	Losses     int    `json:"losses" db:"losses"`
	PointsDiff int    `json:"points_diff" db:"points_diff"`
}
