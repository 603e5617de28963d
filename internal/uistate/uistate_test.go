package uistate

import "testing"

var allKinds = []Kind{
	Idle,
	GameStartTyping, GameStartTapWait,
	InterventionWindow,
	DiscussionThinking, DiscussionTyping, DiscussionTapWait,
	DiscussionCompleteTyping, DiscussionCompleteTapWait,
	VoteUserModal, VoteFetching, VoteRevealTyping, VoteRevealTapWait,
	VoteGMAnimating, VoteGMTyping, VoteGMTapWait,
	ResolutionAnnounceTyping, ResolutionAnnounceTapWait, ResolutionFetching,
	ResolutionReactionTyping, ResolutionReactionTapWait, ResolutionExecuting,
	ResolutionNextRoundTyping, ResolutionNextRoundTapWait,
	GameOverAnnounceTyping, GameOverAnnounceTapWait, GameOverFetching,
	GameOverVictoryTyping, GameOverVictoryTapWait, GameOverComplete,
}

func TestTypingCompleteTotal(t *testing.T) {
	for _, k := range allKinds {
		s := At(k, 3)
		next := TypingComplete(s)
		if s.IsTyping() {
			if !next.IsTapWait() {
				t.Fatalf("%s: typing completion must yield a tap-wait state, got %s", k, next.Kind)
			}
		} else if next != s {
			t.Fatalf("%s: non-typing state must be unchanged, got %s", k, next.Kind)
		}
	}
}

func TestTypingCompletePreservesIndex(t *testing.T) {
	cases := map[Kind]Kind{
		DiscussionTyping:         DiscussionTapWait,
		VoteRevealTyping:         VoteRevealTapWait,
		ResolutionReactionTyping: ResolutionReactionTapWait,
		GameOverVictoryTyping:    GameOverVictoryTapWait,
	}
	for from, to := range cases {
		got := TypingComplete(At(from, 4))
		if got.Kind != to || got.Index != 4 {
			t.Fatalf("TypingComplete(%s[4]) = %s[%d], want %s[4]", from, got.Kind, got.Index, to)
		}
	}
}

func TestPredicatesDisjoint(t *testing.T) {
	for _, k := range allKinds {
		s := Of(k)
		n := 0
		for _, p := range []bool{s.IsTapWait(), s.IsTyping(), s.IsThinking(), s.IsExecuting()} {
			if p {
				n++
			}
		}
		if n > 1 {
			t.Fatalf("%s matches %d input-gating predicates, want at most 1", k, n)
		}
	}
}

func TestPhasePredicatesPartition(t *testing.T) {
	for _, k := range allKinds {
		s := Of(k)
		n := 0
		for _, p := range []bool{s.IsVotingPhase(), s.IsResolutionPhase(), s.IsGameOverPhase()} {
			if p {
				n++
			}
		}
		if n > 1 {
			t.Fatalf("%s belongs to %d phase groups, want at most 1", k, n)
		}
	}
	if !Of(VoteGMAnimating).IsVotingPhase() {
		t.Fatal("GM animation must register as voting phase")
	}
	if !Of(ResolutionExecuting).IsResolutionPhase() {
		t.Fatal("elimination execution must register as resolution phase")
	}
	if !Of(GameOverComplete).IsGameOverPhase() {
		t.Fatal("terminal state must register as game-over phase")
	}
}

func TestStringIncludesIndexOnlyForIndexedKinds(t *testing.T) {
	if got := At(DiscussionTapWait, 2).String(); got != "DISCUSSION_TAP_WAIT[2]" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Of(VoteGMTapWait).String(); got != "VOTE_GM_TAP_WAIT" {
		t.Fatalf("unexpected: %s", got)
	}
}
