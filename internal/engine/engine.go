// Package engine holds the pure game rules: turn rotation, vote
// tallying, tie resolution and win detection. Every function mutates
// only the state it is handed and performs no I/O.
package engine

import (
	"math/rand"

	"github.com/yami-inc/ai-death-game/internal/game"
)

// Outcome classifies the game's standing after an elimination pass.
type Outcome string

const (
	OutcomeContinue     Outcome = "CONTINUE"
	OutcomeSingleWinner Outcome = "SINGLE_WINNER"
	OutcomeDualWinner   Outcome = "DUAL_WINNER"
	OutcomeAnnihilation Outcome = "ANNIHILATION"
)

// TurnsPerLap returns the number of speaking turns in one full rotation
// through the living agents.
func TurnsPerLap(s *game.State) int {
	return len(s.AliveAgents())
}

// TotalTurns returns the number of speaking turns in a full discussion
// phase for the current living roster.
func TotalTurns(s *game.State, turnsPerRound int) int {
	return len(s.AliveAgents()) * turnsPerRound
}

// DiscussionComplete reports whether every living agent has spoken
// turnsPerRound times this round.
func DiscussionComplete(s *game.State, turnsPerRound int) bool {
	return s.TurnIndex >= TotalTurns(s, turnsPerRound)
}

// AtLapBoundary reports whether the turn index sits exactly on a full
// rotation through the living agents.
func AtLapBoundary(s *game.State) bool {
	n := TurnsPerLap(s)
	return n > 0 && s.TurnIndex%n == 0
}

// BeginDiscussion enters the discussion phase for the current round.
// The speaking order starts as the living-agent order rotated by the
// round number, so the opener changes between rounds.
func BeginDiscussion(s *game.State) {
	s.Phase = game.PhaseDiscussion
	s.TurnInRound = 1
	s.TurnIndex = 0
	s.BatchQueue = nil
	living := s.AliveAgents()
	order := make([]string, 0, len(living))
	for _, a := range living {
		order = append(order, a.ID)
	}
	if len(order) > 1 {
		k := (s.Round - 1) % len(order)
		order = append(order[k:], order[:k]...)
	}
	s.SpeakingOrder = order
}

// NextLap starts the next rotation: the turn-in-round counter advances
// and the speaking order is reshuffled. Generation for the new lap is
// never pre-fetched; the caller requests it explicitly.
func NextLap(s *game.State) {
	s.TurnInRound++
	order := make([]string, 0, len(s.AliveAgents()))
	for _, a := range s.AliveAgents() {
		order = append(order, a.ID)
	}
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	s.SpeakingOrder = order
}

// LapSpeakers resolves the current speaking order to agents, skipping
// ids that no longer refer to a living agent.
func LapSpeakers(s *game.State) []*game.Agent {
	out := make([]*game.Agent, 0, len(s.SpeakingOrder))
	for _, id := range s.SpeakingOrder {
		if a := s.AgentByID(id); a != nil && a.IsAlive {
			out = append(out, a)
		}
	}
	return out
}

// ConsumeTurn advances the turn counters after one speaker's turn has
// been revealed. It reports whether a lap boundary was crossed.
func ConsumeTurn(s *game.State) (lapDone bool) {
	s.TurnIndex++
	return AtLapBoundary(s)
}

// BeginVoting enters the voting phase, rebuilding all vote bookkeeping
// from scratch. Tallies never carry across rounds.
func BeginVoting(s *game.State) {
	s.Phase = game.PhaseVoting
	s.ResetVoting()
}

// RecordVotes caches the batch-collected votes in declared voter order.
// Reveal order follows this cache, never call-completion order.
func RecordVotes(s *game.State, votes []game.VoteResult) {
	s.CachedVotes = votes
}

// RevealNextVote moves one cached vote into the revealed list and
// updates the per-agent bookkeeping. It returns the revealed vote and
// whether any votes remain cached.
func RevealNextVote(s *game.State) (game.VoteResult, bool) {
	if len(s.VoteResults) >= len(s.CachedVotes) {
		return game.VoteResult{}, false
	}
	v := s.CachedVotes[len(s.VoteResults)]
	s.VoteResults = append(s.VoteResults, v)
	if info, ok := s.Votes[v.VoterID]; ok {
		info.VotedFor = v.TargetID
	}
	if info, ok := s.Votes[v.TargetID]; ok {
		info.ReceivedVotes++
	}
	return v, true
}

// Tally builds the weight tally from the cached agent votes plus the
// user's vote. Only voted targets appear in the tally; agents nobody
// voted for carry an implicit zero and are never part of the max set.
func Tally(s *game.State) map[string]int {
	tally := make(map[string]int)
	for _, v := range s.CachedVotes {
		tally[v.TargetID]++
	}
	if uv := s.UserVote; uv != nil {
		switch uv.Type {
		case game.UserVoteForceEliminate:
			tally[uv.TargetID] += game.ForceEliminateWeight
		case game.UserVoteOne:
			tally[uv.TargetID] += game.OneVoteWeight
		}
	}
	s.VoteTally = tally
	return tally
}

// MutualTrust reports whether the two-survivor trust ending applies:
// exactly two agents remain, both voted for themselves, and the user
// abstained. This must be checked before ordinary tie resolution.
func MutualTrust(s *game.State) bool {
	living := s.AliveAgents()
	if len(living) != 2 {
		return false
	}
	if s.UserVote != nil && s.UserVote.Type != game.UserVoteWatch {
		return false
	}
	self := 0
	for _, v := range s.CachedVotes {
		if v.VoterID == v.TargetID {
			self++
		}
	}
	return self == 2
}

// ResolveVotes applies tie resolution to the tally and fills the
// elimination queue in roster order. Queue membership is decided here;
// reactions are fetched later and aliveness flips only at reveal time.
// With the mutual-trust ending nobody is eliminated and both survivors
// become winners.
func ResolveVotes(s *game.State) {
	s.Phase = game.PhaseResolution
	s.EliminationQueue = nil

	if MutualTrust(s) {
		for _, a := range s.AliveAgents() {
			s.WinnerIDs = append(s.WinnerIDs, a.ID)
		}
		return
	}

	tally := Tally(s)
	max := 0
	for _, n := range tally {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return
	}
	for _, a := range s.Agents {
		if a.IsAlive && tally[a.ID] == max {
			s.EliminationQueue = append(s.EliminationQueue, game.EliminationQueueItem{
				AgentID:     a.ID,
				AgentName:   a.Name,
				CharacterID: a.CharacterID,
			})
		}
	}
}

// ConfirmElimination flips the queued agent's aliveness. Idempotent:
// confirming the same queue index twice is a no-op, which lets a manual
// advance and the backstop timer race safely.
func ConfirmElimination(s *game.State, queueIndex int) bool {
	if queueIndex < 0 || queueIndex >= len(s.EliminationQueue) {
		return false
	}
	a := s.AgentByID(s.EliminationQueue[queueIndex].AgentID)
	if a == nil || !a.IsAlive {
		return false
	}
	a.IsAlive = false
	a.CurrentExpression = game.ExpressionFainted
	a.IsSpeaking = false
	return true
}

// DetectOutcome runs win detection against the living roster. Dual
// winners only arise through the mutual-trust ending, which records the
// winner ids before eliminations are confirmed.
func DetectOutcome(s *game.State) Outcome {
	living := s.AliveAgents()
	switch {
	case len(s.WinnerIDs) == 2:
		return OutcomeDualWinner
	case len(living) == 0:
		return OutcomeAnnihilation
	case len(living) == 1:
		s.WinnerIDs = []string{living[0].ID}
		return OutcomeSingleWinner
	default:
		return OutcomeContinue
	}
}

// AdvanceRound moves to the next round's discussion phase.
func AdvanceRound(s *game.State) {
	s.Round++
	s.InterventionUsed = false
	BeginDiscussion(s)
}

// Winners resolves the recorded winner ids to agents.
func Winners(s *game.State) []*game.Agent {
	out := make([]*game.Agent, 0, len(s.WinnerIDs))
	for _, id := range s.WinnerIDs {
		if a := s.AgentByID(id); a != nil {
			out = append(out, a)
		}
	}
	return out
}
