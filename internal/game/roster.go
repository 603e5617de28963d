package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// NewState builds a fresh session from the configured personality pool.
// count personalities are drawn at random without repetition; the seat
// order is shuffled so turn order differs between sessions.
func NewState(pool []Personality, count int) *State {
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}
	picked := make([]Personality, len(pool))
	copy(picked, pool)
	rand.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:count]

	agents := make([]*Agent, 0, count)
	for _, p := range picked {
		agents = append(agents, &Agent{
			ID:                uuid.NewString(),
			CharacterID:       p.CharacterID,
			Name:              p.Name,
			IsAlive:           true,
			Stats:             p.Stats,
			Tone:              p.Tone,
			CurrentExpression: ExpressionNeutral,
		})
	}

	return &State{
		SessionID: uuid.NewString(),
		CreatedAt: time.Now(),
		Phase:     PhaseIdle,
		Round:     1,
		Agents:    agents,
		Votes:     make(map[string]*VoteInfo),
		VoteTally: make(map[string]int),
	}
}
