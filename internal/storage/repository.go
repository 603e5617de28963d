package storage

import (
	"time"
)

// GameRecord is the terminal snapshot of one completed session. It is
// what the trophy and play-limit collaborators read; live game state is
// never persisted.
type GameRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"uniqueIndex;size:64" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`

	Outcome     string `gorm:"size:32" json:"outcome"`
	Rounds      int    `json:"rounds"`
	Participant int    `json:"participant_count"`
	WinnerNames string `gorm:"size:256" json:"winner_names"`

	ForceEliminateCount  int `json:"force_eliminate_count"`
	OneVoteCount         int `json:"one_vote_count"`
	WatchCount           int `json:"watch_count"`
	InterventionCount    int `json:"intervention_count"`
	LastEliminationCount int `json:"last_elimination_count"`
	SelfSacrificeCount   int `json:"self_sacrifice_count"`
}

type Repository interface {
	SaveResult(rec *GameRecord) error
	GetResultBySessionID(sessionID string) (*GameRecord, error)
	ListResults(limit int) ([]GameRecord, error)
	// CountResultsSince counts finished games newer than t.
	CountResultsSince(t time.Time) (int64, error)
}
