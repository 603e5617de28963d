package storage

import (
	"strings"
	"time"

	"github.com/yami-inc/ai-death-game/internal/game"
)

// RecordFromState builds the terminal snapshot row for a finished
// session.
func RecordFromState(st *game.State, outcome string) *GameRecord {
	var winners []string
	for _, id := range st.WinnerIDs {
		if a := st.AgentByID(id); a != nil {
			winners = append(winners, a.Name)
		}
	}
	return &GameRecord{
		SessionID:            st.SessionID,
		CreatedAt:            time.Now(),
		Outcome:              outcome,
		Rounds:               st.Stats.TotalRounds,
		Participant:          len(st.Agents),
		WinnerNames:          strings.Join(winners, ", "),
		ForceEliminateCount:  st.Stats.ForceEliminateCount,
		OneVoteCount:         st.Stats.OneVoteCount,
		WatchCount:           st.Stats.WatchCount,
		InterventionCount:    st.Stats.InterventionCount,
		LastEliminationCount: st.Stats.LastEliminationCount,
		SelfSacrificeCount:   st.Stats.SelfSacrificeCount,
	}
}
