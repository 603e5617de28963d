// Package uistate defines the presentation state machine driving what
// the renderer shows and which inputs are accepted. Exactly one State
// is active per session at any time.
package uistate

import "strconv"

// Kind is the discriminant of the presentation state.
type Kind string

const (
	Idle Kind = "IDLE"

	GameStartTyping  Kind = "GAME_START_TYPING"
	GameStartTapWait Kind = "GAME_START_TAP_WAIT"

	InterventionWindow Kind = "INTERVENTION_WINDOW"

	DiscussionThinking        Kind = "DISCUSSION_THINKING"
	DiscussionTyping          Kind = "DISCUSSION_TYPING"
	DiscussionTapWait         Kind = "DISCUSSION_TAP_WAIT"
	DiscussionCompleteTyping  Kind = "DISCUSSION_COMPLETE_TYPING"
	DiscussionCompleteTapWait Kind = "DISCUSSION_COMPLETE_TAP_WAIT"

	VoteUserModal     Kind = "VOTE_USER_MODAL"
	VoteFetching      Kind = "VOTE_FETCHING"
	VoteRevealTyping  Kind = "VOTE_REVEAL_TYPING"
	VoteRevealTapWait Kind = "VOTE_REVEAL_TAP_WAIT"
	VoteGMAnimating   Kind = "VOTE_GM_ANIMATING"
	VoteGMTyping      Kind = "VOTE_GM_TYPING"
	VoteGMTapWait     Kind = "VOTE_GM_TAP_WAIT"

	ResolutionAnnounceTyping   Kind = "RESOLUTION_ANNOUNCE_TYPING"
	ResolutionAnnounceTapWait  Kind = "RESOLUTION_ANNOUNCE_TAP_WAIT"
	ResolutionFetching         Kind = "RESOLUTION_FETCHING"
	ResolutionReactionTyping   Kind = "RESOLUTION_REACTION_TYPING"
	ResolutionReactionTapWait  Kind = "RESOLUTION_REACTION_TAP_WAIT"
	ResolutionExecuting        Kind = "RESOLUTION_EXECUTING"
	ResolutionNextRoundTyping  Kind = "RESOLUTION_NEXT_ROUND_TYPING"
	ResolutionNextRoundTapWait Kind = "RESOLUTION_NEXT_ROUND_TAP_WAIT"

	GameOverAnnounceTyping  Kind = "GAME_OVER_ANNOUNCE_TYPING"
	GameOverAnnounceTapWait Kind = "GAME_OVER_ANNOUNCE_TAP_WAIT"
	GameOverFetching        Kind = "GAME_OVER_FETCHING"
	GameOverVictoryTyping   Kind = "GAME_OVER_VICTORY_TYPING"
	GameOverVictoryTapWait  Kind = "GAME_OVER_VICTORY_TAP_WAIT"
	GameOverComplete        Kind = "GAME_OVER_COMPLETE"
)

// State is one presentation state. Index pinpoints which agent turn,
// vote reveal, or queued elimination the state refers to; it is zero
// for variants without an index.
type State struct {
	Kind  Kind `json:"kind"`
	Index int  `json:"index"`
}

// At returns a state with an index payload.
func At(k Kind, i int) State { return State{Kind: k, Index: i} }

// Of returns a state without an index payload.
func Of(k Kind) State { return State{Kind: k} }

func (s State) String() string {
	switch s.Kind {
	case DiscussionThinking, DiscussionTyping, DiscussionTapWait,
		VoteRevealTyping, VoteRevealTapWait,
		ResolutionReactionTyping, ResolutionReactionTapWait, ResolutionExecuting,
		GameOverFetching, GameOverVictoryTyping, GameOverVictoryTapWait:
		return string(s.Kind) + "[" + strconv.Itoa(s.Index) + "]"
	}
	return string(s.Kind)
}

// IsTapWait reports whether advance input is accepted in this state.
func (s State) IsTapWait() bool {
	switch s.Kind {
	case GameStartTapWait, DiscussionTapWait, DiscussionCompleteTapWait,
		VoteRevealTapWait, VoteGMTapWait,
		ResolutionAnnounceTapWait, ResolutionReactionTapWait, ResolutionNextRoundTapWait,
		GameOverAnnounceTapWait, GameOverVictoryTapWait:
		return true
	}
	return false
}

// IsTyping reports whether a typewriter reveal is in progress.
func (s State) IsTyping() bool {
	switch s.Kind {
	case GameStartTyping, DiscussionTyping, DiscussionCompleteTyping,
		VoteRevealTyping, VoteGMTyping,
		ResolutionAnnounceTyping, ResolutionReactionTyping, ResolutionNextRoundTyping,
		GameOverAnnounceTyping, GameOverVictoryTyping:
		return true
	}
	return false
}

// IsThinking reports whether a generation call is outstanding and a
// thinking placeholder is shown.
func (s State) IsThinking() bool {
	switch s.Kind {
	case DiscussionThinking, VoteFetching, ResolutionFetching, GameOverFetching:
		return true
	}
	return false
}

// IsExecuting reports whether a timed animation is playing.
func (s State) IsExecuting() bool {
	return s.Kind == ResolutionExecuting || s.Kind == VoteGMAnimating
}

// IsVotingPhase reports whether the state belongs to the voting phase.
func (s State) IsVotingPhase() bool {
	switch s.Kind {
	case VoteUserModal, VoteFetching, VoteRevealTyping, VoteRevealTapWait,
		VoteGMAnimating, VoteGMTyping, VoteGMTapWait:
		return true
	}
	return false
}

// IsResolutionPhase reports whether the state belongs to the resolution phase.
func (s State) IsResolutionPhase() bool {
	switch s.Kind {
	case ResolutionAnnounceTyping, ResolutionAnnounceTapWait, ResolutionFetching,
		ResolutionReactionTyping, ResolutionReactionTapWait, ResolutionExecuting,
		ResolutionNextRoundTyping, ResolutionNextRoundTapWait:
		return true
	}
	return false
}

// IsGameOverPhase reports whether the state belongs to the game-over phase.
func (s State) IsGameOverPhase() bool {
	switch s.Kind {
	case GameOverAnnounceTyping, GameOverAnnounceTapWait, GameOverFetching,
		GameOverVictoryTyping, GameOverVictoryTapWait, GameOverComplete:
		return true
	}
	return false
}

// TypingComplete maps a typing state to its paired tap-wait state. The
// mapping is total over all typing variants; non-typing states map to
// themselves so a late typewriter callback cannot corrupt the machine.
func TypingComplete(s State) State {
	switch s.Kind {
	case GameStartTyping:
		return Of(GameStartTapWait)
	case DiscussionTyping:
		return At(DiscussionTapWait, s.Index)
	case DiscussionCompleteTyping:
		return Of(DiscussionCompleteTapWait)
	case VoteRevealTyping:
		return At(VoteRevealTapWait, s.Index)
	case VoteGMTyping:
		return Of(VoteGMTapWait)
	case ResolutionAnnounceTyping:
		return Of(ResolutionAnnounceTapWait)
	case ResolutionReactionTyping:
		return At(ResolutionReactionTapWait, s.Index)
	case ResolutionNextRoundTyping:
		return Of(ResolutionNextRoundTapWait)
	case GameOverAnnounceTyping:
		return Of(GameOverAnnounceTapWait)
	case GameOverVictoryTyping:
		return At(GameOverVictoryTapWait, s.Index)
	}
	return s
}
