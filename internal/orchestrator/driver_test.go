package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yami-inc/ai-death-game/internal/engine"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/provider"
	"github.com/yami-inc/ai-death-game/internal/timers"
	"github.com/yami-inc/ai-death-game/internal/uistate"
)

type stubGen struct {
	mu         sync.Mutex
	batchGate  chan struct{}
	voteTarget func(voter *game.Agent, candidates []*game.Agent) *game.Agent
	batchCalls int
}

func (g *stubGen) GenerateTurnBatch(_ context.Context, _ string, req provider.BatchRequest) []game.PendingTurn {
	g.mu.Lock()
	gate := g.batchGate
	g.batchCalls++
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	out := make([]game.PendingTurn, 0, len(req.Speakers))
	for _, sp := range req.Speakers {
		out = append(out, game.PendingTurn{
			AgentID:           sp.ID,
			Thought:           "thinking",
			Speech:            "line from " + sp.Name,
			ThoughtExpression: game.ExpressionNeutral,
			SpeechExpression:  game.ExpressionNeutral,
		})
	}
	return out
}

func (g *stubGen) CollectVotes(_ context.Context, _ string, req provider.VoteRequest) []game.VoteResult {
	out := make([]game.VoteResult, 0, len(req.Voters))
	for _, v := range req.Voters {
		target := req.Candidates[0]
		if g.voteTarget != nil {
			target = g.voteTarget(v, req.Candidates)
		}
		out = append(out, game.VoteResult{
			VoterID: v.ID, VoterName: v.Name,
			TargetID: target.ID, TargetName: target.Name,
		})
	}
	return out
}

func (g *stubGen) GenerateReactions(_ context.Context, _ string, req provider.ReactionRequest) map[string]string {
	out := map[string]string{}
	for _, e := range req.Eliminated {
		out[e.AgentID] = "last words of " + e.AgentName
	}
	return out
}

func (g *stubGen) GenerateVictoryComment(_ context.Context, _ string, req provider.VictoryRequest) string {
	return "victory speech of " + req.Winner.Name
}

func (g *stubGen) ModerateIntervention(_ context.Context, _ string, text string) provider.Moderation {
	return provider.Moderation{
		Category:       provider.ModerationSafe,
		ResponseMode:   provider.ResponseModeBroadcast,
		MasterResponse: "The gamemaster speaks: " + text,
	}
}

func newTestState(n int) *game.State {
	s := &game.State{
		SessionID: uuid.NewString(),
		Round:     1,
		Votes:     map[string]*game.VoteInfo{},
		VoteTally: map[string]int{},
	}
	for i := 0; i < n; i++ {
		s.Agents = append(s.Agents, &game.Agent{
			ID:      fmt.Sprintf("a%d", i),
			Name:    fmt.Sprintf("Agent %d", i),
			IsAlive: true,
		})
	}
	return s
}

func newTestDriver(n int, gen Generator, persist PersistFunc) (*Driver, *game.State) {
	st := newTestState(n)
	cfg := Config{TurnsPerRound: 1, EliminationDelay: time.Hour, GMVoteDelay: time.Hour}
	d := New(st, gen, timers.NewRegistry(), cfg, persist)
	d.SetAPIKey("test-key")
	return d, st
}

func waitUI(t *testing.T, d *Driver, k uistate.Kind) uistate.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := d.UIState(); s.Kind == k {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s, stuck at %s", k, d.UIState())
	return uistate.State{}
}

func tapThrough(t *testing.T, d *Driver, k uistate.Kind) {
	t.Helper()
	waitUI(t, d, k)
	d.TypingComplete()
	d.Advance()
}

func TestStartThroughFirstDiscussion(t *testing.T) {
	d, st := newTestDriver(3, &stubGen{}, nil)
	d.Start()
	if d.UIState().Kind != uistate.GameStartTyping {
		t.Fatalf("expected opening narration, got %s", d.UIState())
	}
	if len(st.Logs) != 1 || st.Logs[0].Type != game.LogSystem {
		t.Fatalf("opening line missing: %+v", st.Logs)
	}

	d.TypingComplete()
	d.Advance()
	if d.UIState().Kind != uistate.InterventionWindow {
		t.Fatalf("first tap must open the intervention window, got %s", d.UIState())
	}
	if err := d.SkipIntervention(); err != nil {
		t.Fatalf("skip failed: %v", err)
	}

	s := waitUI(t, d, uistate.DiscussionTyping)
	if s.Index != 0 {
		t.Fatalf("first turn index = %d, want 0", s.Index)
	}
	if st.TurnIndex != 1 {
		t.Fatalf("turn index must advance at reveal, got %d", st.TurnIndex)
	}

	tapThrough(t, d, uistate.DiscussionTyping)
	s = waitUI(t, d, uistate.DiscussionTyping)
	if s.Index != 1 {
		t.Fatalf("second reveal index = %d, want 1", s.Index)
	}
	tapThrough(t, d, uistate.DiscussionTyping)
	waitUI(t, d, uistate.DiscussionTyping)

	// turnsPerRound=1 with 3 agents: discussion completes after turn 3.
	tapThrough(t, d, uistate.DiscussionTyping)
	if d.UIState().Kind != uistate.DiscussionCompleteTyping {
		t.Fatalf("expected discussion complete narration, got %s", d.UIState())
	}
	turnlogs := 0
	for _, e := range st.Logs {
		if e.Type == game.LogAgentTurn && !e.IsStreaming {
			turnlogs++
		}
	}
	if turnlogs != 3 {
		t.Fatalf("expected 3 revealed agent turns, got %d", turnlogs)
	}
}

func TestAdvanceWhileStreamingShowsThinking(t *testing.T) {
	d, st := newTestDriver(4, &stubGen{}, nil)
	st.Processing = true
	d.ui = uistate.At(uistate.DiscussionTapWait, 2)
	st.Phase = game.PhaseDiscussion
	st.SpeakingOrder = []string{"a0", "a1", "a2", "a3"}
	st.TurnIndex = 3

	d.Advance()
	got := d.UIState()
	if got.Kind != uistate.DiscussionThinking || got.Index != 3 {
		t.Fatalf("expected DISCUSSION_THINKING[3], got %s", got)
	}
}

func TestAdvanceIgnoredOutsideTapWait(t *testing.T) {
	d, _ := newTestDriver(3, &stubGen{}, nil)
	for _, k := range []uistate.Kind{uistate.Idle, uistate.DiscussionThinking, uistate.VoteFetching, uistate.VoteUserModal, uistate.GameOverComplete} {
		d.ui = uistate.Of(k)
		d.Advance()
		if d.UIState().Kind != k {
			t.Fatalf("advance must be a no-op in %s, moved to %s", k, d.UIState())
		}
	}
}

func TestVotingFlow(t *testing.T) {
	gen := &stubGen{voteTarget: func(_ *game.Agent, cands []*game.Agent) *game.Agent { return cands[0] }}
	d, st := newTestDriver(3, gen, nil)
	st.Phase = game.PhaseDiscussion
	d.ui = uistate.Of(uistate.DiscussionCompleteTapWait)

	d.Advance()
	if d.UIState().Kind != uistate.VoteUserModal {
		t.Fatalf("expected user vote modal, got %s", d.UIState())
	}
	if st.Phase != game.PhaseVoting {
		t.Fatalf("phase = %s, want voting", st.Phase)
	}

	if err := d.SubmitUserVote(game.UserVote{Type: game.UserVoteWatch}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	s := waitUI(t, d, uistate.VoteRevealTyping)
	if s.Index != 0 {
		t.Fatalf("first reveal index = %d", s.Index)
	}
	// Reveal remaining two votes in declared voter order.
	tapThrough(t, d, uistate.VoteRevealTyping)
	tapThrough(t, d, uistate.VoteRevealTyping)
	waitUI(t, d, uistate.VoteRevealTyping)
	d.TypingComplete()
	d.Advance()
	if d.UIState().Kind != uistate.VoteGMAnimating {
		t.Fatalf("expected GM animation after last reveal, got %s", d.UIState())
	}

	d.TimerElapsed("gmvote")
	if d.UIState().Kind != uistate.VoteGMTyping {
		t.Fatalf("expected GM line typing, got %s", d.UIState())
	}
	d.TypingComplete()
	d.Advance()
	if d.UIState().Kind != uistate.ResolutionAnnounceTyping {
		t.Fatalf("expected resolution announcement, got %s", d.UIState())
	}
	if len(st.EliminationQueue) != 1 || st.EliminationQueue[0].AgentID != "a0" {
		t.Fatalf("unexpected elimination queue: %+v", st.EliminationQueue)
	}
	if st.Stats.WatchCount != 1 {
		t.Fatalf("watch count = %d, want 1", st.Stats.WatchCount)
	}
}

func TestEliminationIdempotentAcrossTimerAndAdvance(t *testing.T) {
	d, st := newTestDriver(3, &stubGen{}, nil)
	st.Phase = game.PhaseResolution
	st.EliminationQueue = []game.EliminationQueueItem{{AgentID: "a0", AgentName: "Agent 0", Reaction: "so be it"}}
	d.ui = uistate.At(uistate.ResolutionReactionTapWait, 0)

	d.Advance()
	if d.UIState().Kind != uistate.ResolutionExecuting {
		t.Fatalf("expected executing animation, got %s", d.UIState())
	}
	d.Advance()
	if st.AgentByID("a0").IsAlive {
		t.Fatal("advance during execution must finalize the elimination")
	}
	if d.UIState().Kind != uistate.ResolutionNextRoundTyping {
		t.Fatalf("expected next round narration, got %s", d.UIState())
	}
	if st.Round != 2 {
		t.Fatalf("round = %d, want 2", st.Round)
	}

	confirms := 0
	for _, e := range st.Logs {
		if e.Type == game.LogSystem {
			confirms++
		}
	}
	d.TimerElapsed("elim-0")
	after := 0
	for _, e := range st.Logs {
		if e.Type == game.LogSystem {
			after++
		}
	}
	if after != confirms {
		t.Fatal("late backstop timer must be a no-op")
	}
}

func TestInterventionDiscardsPendingContent(t *testing.T) {
	gate := make(chan struct{})
	gen := &stubGen{batchGate: gate}
	d, st := newTestDriver(3, gen, nil)
	st.Phase = game.PhaseDiscussion
	engine.BeginDiscussion(st)

	d.mu.Lock()
	d.startLapBatchLocked(0)
	d.mu.Unlock()
	if d.UIState().Kind != uistate.DiscussionThinking {
		t.Fatalf("expected thinking while batch in flight, got %s", d.UIState())
	}
	if !st.Logs[len(st.Logs)-1].IsStreaming {
		t.Fatal("expected a streaming placeholder entry")
	}
	oldEpoch := st.Epoch

	// Placeholder is visible, so the driver accepts the intervention
	// from the tap-wait it would be sitting in.
	d.mu.Lock()
	d.ui = uistate.At(uistate.DiscussionTapWait, 0)
	d.mu.Unlock()
	if err := d.SubmitIntervention("speak only the truth"); err != nil {
		t.Fatalf("intervention failed: %v", err)
	}
	waitUI(t, d, uistate.GameStartTyping)
	if st.Epoch != oldEpoch+1 {
		t.Fatalf("epoch = %d, want %d", st.Epoch, oldEpoch+1)
	}
	for _, e := range st.Logs {
		if e.IsStreaming {
			t.Fatal("placeholder must be removed, not filled in")
		}
	}
	if st.GMInstruction != "speak only the truth" {
		t.Fatalf("directive not recorded: %q", st.GMInstruction)
	}

	close(gate)
	time.Sleep(50 * time.Millisecond)
	if len(st.BatchQueue) != 0 {
		t.Fatalf("stale batch must be discarded unread, queue=%d", len(st.BatchQueue))
	}

	// The lap regenerates with the directive once the narration is tapped.
	d.TypingComplete()
	d.Advance()
	waitUI(t, d, uistate.DiscussionTyping)
	if st.GMInstruction != "" {
		t.Fatal("directive must be consumed by the regenerated lap")
	}
}

func TestMutualTrustReachesDualVictory(t *testing.T) {
	gen := &stubGen{voteTarget: func(v *game.Agent, _ []*game.Agent) *game.Agent {
		return v // everyone votes for themselves
	}}
	var persisted []engine.Outcome
	d, st := newTestDriver(2, gen, func(_ *game.State, o engine.Outcome) { persisted = append(persisted, o) })
	st.Phase = game.PhaseVoting
	engine.BeginVoting(st)
	d.ui = uistate.Of(uistate.VoteUserModal)

	if err := d.SubmitUserVote(game.UserVote{Type: game.UserVoteWatch}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	tapThrough(t, d, uistate.VoteRevealTyping)
	waitUI(t, d, uistate.VoteRevealTyping)
	d.TypingComplete()
	d.Advance()
	d.TimerElapsed("gmvote")
	tapThrough(t, d, uistate.VoteGMTyping)

	if len(st.WinnerIDs) != 2 {
		t.Fatalf("winner ids = %v, want both survivors", st.WinnerIDs)
	}
	d.TypingComplete()
	d.Advance() // resolution announce tap: dual winner goes straight to game over
	if d.UIState().Kind != uistate.GameOverAnnounceTyping {
		t.Fatalf("expected game over announcement, got %s", d.UIState())
	}

	tapThrough(t, d, uistate.GameOverAnnounceTyping)
	tapThrough(t, d, uistate.GameOverVictoryTyping)
	tapThrough(t, d, uistate.GameOverVictoryTyping)
	if d.UIState().Kind != uistate.GameOverComplete {
		t.Fatalf("expected terminal state, got %s", d.UIState())
	}
	if !d.Done() {
		t.Fatal("driver must report done at terminal state")
	}
	if len(persisted) != 1 || persisted[0] != engine.OutcomeDualWinner {
		t.Fatalf("persist hook: %v", persisted)
	}
	intros := 0
	for _, e := range st.Logs {
		if e.Type == game.LogMaster && strings.Contains(e.Content, "the floor is yours") {
			intros++
		}
	}
	if intros != 2 {
		t.Fatalf("expected a victory intro line per winner, got %d", intros)
	}
	d.Advance()
	if len(persisted) != 1 {
		t.Fatal("terminal persist must run exactly once")
	}
}

func TestAnnihilationSkipsVictoryComments(t *testing.T) {
	var persisted []engine.Outcome
	d, st := newTestDriver(2, &stubGen{}, func(_ *game.State, o engine.Outcome) { persisted = append(persisted, o) })
	st.Phase = game.PhaseResolution
	st.EliminationQueue = []game.EliminationQueueItem{
		{AgentID: "a0", AgentName: "Agent 0", Reaction: "x"},
		{AgentID: "a1", AgentName: "Agent 1", Reaction: "y"},
	}
	d.ui = uistate.At(uistate.ResolutionReactionTapWait, 0)

	d.Advance()
	d.Advance() // finalize first, reveal second reaction
	if d.UIState().Kind != uistate.ResolutionReactionTyping || d.UIState().Index != 1 {
		t.Fatalf("expected second reaction, got %s", d.UIState())
	}
	tapThrough(t, d, uistate.ResolutionReactionTyping)
	d.Advance() // finalize second: nobody left
	if d.UIState().Kind != uistate.GameOverAnnounceTyping {
		t.Fatalf("expected annihilation announcement, got %s", d.UIState())
	}
	tapThrough(t, d, uistate.GameOverAnnounceTyping)
	if d.UIState().Kind != uistate.GameOverComplete {
		t.Fatalf("zero winners must complete without victory comments, got %s", d.UIState())
	}
	if len(persisted) != 1 || persisted[0] != engine.OutcomeAnnihilation {
		t.Fatalf("persist hook: %v", persisted)
	}
}

func TestSnapshotClearsTransientError(t *testing.T) {
	d, _ := newTestDriver(2, &stubGen{}, nil)
	d.NoteError("model *** unavailable")
	v := d.Snapshot()
	if v.LastError != "model *** unavailable" {
		t.Fatalf("snapshot missing error: %q", v.LastError)
	}
	if v2 := d.Snapshot(); v2.LastError != "" {
		t.Fatalf("error must clear after one read, got %q", v2.LastError)
	}
}
