package engine

import (
	"fmt"
	"strings"

	"github.com/yami-inc/ai-death-game/internal/game"
)

// Narrator lines appended as MASTER/SYSTEM log entries. Kept here with
// the rules so the announcement text always matches the transition that
// produced it.

func GameStartLine(s *game.State) string {
	names := make([]string, 0, len(s.Agents))
	for _, a := range s.Agents {
		names = append(names, a.Name)
	}
	return fmt.Sprintf("Welcome to the final game. %d participants remain: %s. Each round you will talk, then vote. The most voted is eliminated. Begin.",
		len(s.Agents), strings.Join(names, ", "))
}

func LapLine(s *game.State, turnsPerRound int) string {
	return fmt.Sprintf("Round %d, lap %d of %d. The discussion continues.", s.Round, s.TurnInRound, turnsPerRound)
}

func DiscussionCompleteLine(s *game.State) string {
	return fmt.Sprintf("Round %d discussion is over. It is time to vote.", s.Round)
}

func VoteRevealLine(v game.VoteResult) string {
	return fmt.Sprintf("%s votes for %s.", v.VoterName, v.TargetName)
}

func UserVoteLine(s *game.State) string {
	uv := s.UserVote
	if uv == nil || uv.Type == game.UserVoteWatch {
		return "The gamemaster watches in silence."
	}
	target := "someone"
	if a := s.AgentByID(uv.TargetID); a != nil {
		target = a.Name
	}
	if uv.Type == game.UserVoteForceEliminate {
		return fmt.Sprintf("The gamemaster's judgement falls on %s. There is no appeal.", target)
	}
	return fmt.Sprintf("The gamemaster adds one quiet vote against %s.", target)
}

func ResolutionLine(s *game.State) string {
	if len(s.WinnerIDs) == 2 {
		winners := Winners(s)
		return fmt.Sprintf("%s and %s chose themselves, and the gamemaster stayed silent. Trust is rewarded: both survive.",
			winners[0].Name, winners[1].Name)
	}
	if len(s.EliminationQueue) == 0 {
		return "No votes were cast. Nobody is eliminated this round."
	}
	names := make([]string, 0, len(s.EliminationQueue))
	for _, e := range s.EliminationQueue {
		names = append(names, e.AgentName)
	}
	if len(names) == 1 {
		return fmt.Sprintf("The votes are counted. %s is eliminated.", names[0])
	}
	return fmt.Sprintf("The votes are counted. A tie at the top: %s are all eliminated.", strings.Join(names, ", "))
}

func EliminationConfirmLine(item game.EliminationQueueItem) string {
	return fmt.Sprintf("%s has left the game.", item.AgentName)
}

func NextRoundLine(s *game.State) string {
	return fmt.Sprintf("Round %d begins. %d participants remain.", s.Round, len(s.AliveAgents()))
}

func GameOverLine(s *game.State, outcome Outcome) string {
	switch outcome {
	case OutcomeAnnihilation:
		return "Every participant has been eliminated. The game ends with no winner."
	case OutcomeDualWinner:
		winners := Winners(s)
		return fmt.Sprintf("The game is over. %s and %s walk out together.", winners[0].Name, winners[1].Name)
	default:
		winners := Winners(s)
		if len(winners) == 0 {
			return "The game is over."
		}
		return fmt.Sprintf("The game is over. %s is the sole survivor.", winners[0].Name)
	}
}

func VictoryIntroLine(winner *game.Agent) string {
	return fmt.Sprintf("%s, the floor is yours.", winner.Name)
}
