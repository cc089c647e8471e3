package models

import "time"

type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameSummary is one qualifying game as shown in lists and detail pages.
type GameSummary struct {
	ID            int64        `json:"id"`
	GameID        *string      `json:"game_id"`
	MapName       *string      `json:"map_name"`
	Score         *int64       `json:"score"`
	RoundTime     *int64       `json:"round_time"`
	TotalDuration *int64       `json:"total_duration"`
	PlayedAt      time.Time    `json:"played_at"`
	Players       []PlayerInfo `json:"players"`
	CountryCodes  []string     `json:"country_codes"`
	RoundCount    int          `json:"round_count"`
	MaxScore      int          `json:"max_score"`
	IsFinished    bool         `json:"is_finished"`
}

type CountryStat struct {
	CountryCode string  `json:"country_code"`
	TotalScore  int64   `json:"total_score"`
	Count       int     `json:"count"`
	Average     float64 `json:"average"`
}

// GameStats is the global statistics view.
type GameStats struct {
	TotalGames           int64         `json:"total_games"`
	AverageScore         float64       `json:"average_score"`
	TotalDurationSeconds int64         `json:"total_duration_seconds"`
	BestCountryGuesses   []CountryStat `json:"best_country_guesses"`
}

// TeamStats is one row of the team leaderboard.
type TeamStats struct {
	TeamID        string       `json:"team_id"`
	TeamName      string       `json:"team_name"`
	Members       []PlayerInfo `json:"members"`
	GamesPlayed   int          `json:"games_played"`
	AverageScore  float64      `json:"average_score"`
	TotalScore    int64        `json:"total_score"`
	TotalDuration int64        `json:"total_duration"`
}

type TeamStatSimple struct {
	TeamID       string       `json:"team_id"`
	TeamName     string       `json:"team_name"`
	Members      []PlayerInfo `json:"members"`
	AverageScore float64      `json:"average_score"`
	GamesPlayed  int          `json:"games_played"`
}

type ScorePoint struct {
	Date    time.Time `json:"date"`
	Score   int       `json:"score"`
	MapName string    `json:"map_name"`
}

type PlayerStatsDetailed struct {
	PlayerID       string           `json:"player_id"`
	PlayerName     *string          `json:"player_name"`
	TotalGames     int              `json:"total_games"`
	AverageScore   float64          `json:"average_score"`
	TotalDuration  int64            `json:"total_duration"`
	BestCountries  []CountryStat    `json:"best_countries"`
	WorstCountries []CountryStat    `json:"worst_countries"`
	BestTeams      []TeamStatSimple `json:"best_teams"`
	ScoreHistory   []ScorePoint     `json:"score_history"`
	Games          []GameSummary    `json:"games"`
}

type TeamStatsDetailed struct {
	TeamID         string        `json:"team_id"`
	TeamName       string        `json:"team_name"`
	Members        []PlayerInfo  `json:"members"`
	TotalGames     int           `json:"total_games"`
	AverageScore   float64       `json:"average_score"`
	TotalDuration  int64         `json:"total_duration"`
	BestCountries  []CountryStat `json:"best_countries"`
	WorstCountries []CountryStat `json:"worst_countries"`
	ScoreHistory   []ScorePoint  `json:"score_history"`
	Games          []GameSummary `json:"games"`
}

// AdminPlayerInfo lists a directory entry with its alias relations.
type AdminPlayerInfo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	PrimaryID *string  `json:"primary_id"`
	Aliases   []string `json:"aliases"`
}

// IdentityInfo describes the identity group a raw id belongs to.
type IdentityInfo struct {
	ID        string   `json:"id"`
	PrimaryID string   `json:"primary_id"`
	Name      *string  `json:"name"`
	Aliases   []string `json:"aliases"`
}
