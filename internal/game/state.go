package game

import (
	"time"
)

// State is the full mutable state of one game session. It is owned by a
// single driver and must only be touched while holding the driver lock.
type State struct {
	SessionID string
	CreatedAt time.Time

	Phase       Phase
	Round       int
	TurnInRound int
	TurnIndex   int

	Agents []*Agent
	Logs   []*LogEntry

	// SpeakingOrder holds living agent ids in the order they speak for
	// the current lap of discussion.
	SpeakingOrder []string

	// Voting phase bookkeeping.
	Votes       map[string]*VoteInfo
	VoteResults []VoteResult
	CachedVotes []VoteResult
	VoteTally   map[string]int
	UserVote    *UserVote

	EliminationQueue []EliminationQueueItem
	WinnerIDs        []string

	// BatchQueue holds decoded discussion turns ahead of the one being
	// displayed. GMInstruction is consumed at the next lap boundary.
	BatchQueue    []PendingTurn
	GMInstruction string

	// Epoch is bumped whenever in-flight generation results must be
	// discarded; completions from an older epoch are dropped.
	Epoch int

	InterventionUsed bool
	Processing       bool
	LastError        string

	Stats SessionStats
}

// AliveAgents returns the living agents in roster order.
func (s *State) AliveAgents() []*Agent {
	out := make([]*Agent, 0, len(s.Agents))
	for _, a := range s.Agents {
		if a.IsAlive {
			out = append(out, a)
		}
	}
	return out
}

// AgentByID returns the agent with the given id, or nil.
func (s *State) AgentByID(id string) *Agent {
	for _, a := range s.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// AddLog appends a log entry and returns it.
func (s *State) AddLog(e *LogEntry) *LogEntry {
	if e.ID == "" {
		e.ID = NewLogID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.Logs = append(s.Logs, e)
	return e
}

// LogByID returns the log entry with the given id, or nil.
func (s *State) LogByID(id string) *LogEntry {
	for _, e := range s.Logs {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// RemoveLog deletes the log entry with the given id, keeping order.
func (s *State) RemoveLog(id string) {
	for i, e := range s.Logs {
		if e.ID == id {
			s.Logs = append(s.Logs[:i], s.Logs[i+1:]...)
			return
		}
	}
}

// RecentTranscript renders the last n non-streaming agent and master
// entries as prompt context lines.
func (s *State) RecentTranscript(n int) []string {
	var lines []string
	for _, e := range s.Logs {
		if e.IsStreaming {
			continue
		}
		switch e.Type {
		case LogAgentTurn:
			name := "?"
			if a := s.AgentByID(e.AgentID); a != nil {
				name = a.Name
			}
			lines = append(lines, name+": "+e.Speech)
		case LogMaster, LogSystem:
			lines = append(lines, "GM: "+e.Content)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// ResetVoting clears all voting bookkeeping for a fresh voting phase.
func (s *State) ResetVoting() {
	s.Votes = make(map[string]*VoteInfo)
	for _, a := range s.AliveAgents() {
		s.Votes[a.ID] = &VoteInfo{}
	}
	s.VoteResults = nil
	s.CachedVotes = nil
	s.VoteTally = make(map[string]int)
	s.UserVote = nil
}
