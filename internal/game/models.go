package game

import (
	"time"

	"github.com/google/uuid"
)

// Expression is the face an agent shows while thinking or speaking.
// The generative service may only produce neutral/distressed/elated;
// fainted is applied by the presentation layer during eliminations.
type Expression string

const (
	ExpressionNeutral    Expression = "neutral"
	ExpressionDistressed Expression = "distressed"
	ExpressionElated     Expression = "elated"
	ExpressionFainted    Expression = "fainted"
)

// Stats are the fixed numeric traits of an agent (0-100). They are read
// by prompt construction only and never change during a session.
type Stats struct {
	SurvivalInstinct int `json:"survival_instinct"`
	Cooperativeness  int `json:"cooperativeness"`
	Cunning          int `json:"cunning"`
}

// Personality is a roster template an Agent is created from.
type Personality struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Appearance  string `json:"appearance"`
	Profile     string `json:"profile"`
	Description string `json:"description"`
	Tone        string `json:"tone"`
	Stats       Stats  `json:"stats"`
}

// Agent is one AI-controlled participant. IsAlive flips from true to
// false exactly once, at elimination confirmation; the expression and
// speaking flags belong to the presentation layer.
type Agent struct {
	ID                string     `json:"id"`
	CharacterID       string     `json:"character_id"`
	Name              string     `json:"name"`
	IsAlive           bool       `json:"is_alive"`
	Stats             Stats      `json:"stats"`
	Tone              string     `json:"tone"`
	IsSpeaking        bool       `json:"is_speaking"`
	CurrentExpression Expression `json:"current_expression"`
	MouthOpen         bool       `json:"mouth_open"`
}

type LogType string

const (
	LogSystem              LogType = "SYSTEM"
	LogAgentTurn           LogType = "AGENT_TURN"
	LogVote                LogType = "VOTE"
	LogMaster              LogType = "MASTER"
	LogEliminationReaction LogType = "ELIMINATION_REACTION"
	LogVictoryComment      LogType = "VICTORY_COMMENT"
)

// LogEntry is an append-only record of one game event. Once IsStreaming
// is cleared it is never set again; entries are otherwise only mutated
// to fill in decoded fields while streaming.
type LogEntry struct {
	ID                string     `json:"id"`
	Type              LogType    `json:"type"`
	AgentID           string     `json:"agent_id,omitempty"`
	Content           string     `json:"content"`
	Thought           string     `json:"thought,omitempty"`
	Speech            string     `json:"speech,omitempty"`
	ThoughtExpression Expression `json:"thought_expression,omitempty"`
	SpeechExpression  Expression `json:"speech_expression,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
	IsStreaming       bool       `json:"is_streaming"`
	RawText           string     `json:"raw_text,omitempty"`
}

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseDiscussion Phase = "DISCUSSION"
	PhaseVoting     Phase = "VOTING"
	PhaseResolution Phase = "RESOLUTION"
	PhaseGameOver   Phase = "GAME_OVER"
)

// UserVoteType is the privileged GM vote: weight 10, weight 1, or abstain.
type UserVoteType string

const (
	UserVoteForceEliminate UserVoteType = "force_eliminate"
	UserVoteOne            UserVoteType = "one_vote"
	UserVoteWatch          UserVoteType = "watch"
)

const (
	ForceEliminateWeight = 10
	OneVoteWeight        = 1
)

type UserVote struct {
	Type     UserVoteType `json:"type"`
	TargetID string       `json:"target_id"`
}

// VoteInfo is the per-agent vote bookkeeping rebuilt each voting phase.
type VoteInfo struct {
	VotedFor      string `json:"voted_for,omitempty"`
	ReceivedVotes int    `json:"received_votes"`
}

// VoteResult is one agent's collected vote, cached in declared voter
// order so reveal order never depends on completion order.
type VoteResult struct {
	VoterID    string `json:"voter_id"`
	VoterName  string `json:"voter_name"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
}

// EliminationQueueItem is one pending elimination. Queue membership is
// decided synchronously at vote resolution; Reaction is filled in later
// by the asynchronous reaction batch.
type EliminationQueueItem struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	CharacterID string `json:"character_id"`
	Reaction    string `json:"reaction,omitempty"`
}

// PendingTurn is one decoded speaker turn waiting in the discussion
// batch queue.
type PendingTurn struct {
	AgentID           string
	Thought           string
	Speech            string
	ThoughtExpression Expression
	SpeechExpression  Expression
	RawText           string
}

// UserVoteRecord captures one GM vote for the post-game statistics.
type UserVoteRecord struct {
	Round                 int          `json:"round"`
	Type                  UserVoteType `json:"type"`
	TargetName            string       `json:"target_name,omitempty"`
	ResultedInElimination bool         `json:"resulted_in_elimination"`
}

// SessionStats are the aggregate counters the external trophy and
// play-limit collaborators read after the game completes.
type SessionStats struct {
	TotalRounds          int              `json:"total_rounds"`
	UserVoteHistory      []UserVoteRecord `json:"user_vote_history"`
	ForceEliminateCount  int              `json:"force_eliminate_count"`
	OneVoteCount         int              `json:"one_vote_count"`
	WatchCount           int              `json:"watch_count"`
	InterventionCount    int              `json:"intervention_count"`
	LastEliminationCount int              `json:"last_elimination_count"`
	SelfSacrificeCount   int              `json:"self_sacrifice_count"`
}

// NewLogID returns a unique identifier for a log entry.
func NewLogID() string { return uuid.NewString() }
