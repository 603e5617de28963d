// Package provider wraps the generative service with a two-tier model
// fallback and static fallbacks per operation. Every call resolves to a
// usable result; failures surface only through the sanitized error
// callback, never as returned errors.
package provider

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/genaiclient"
	"github.com/yami-inc/ai-death-game/internal/turntext"
)

// StaticFallbackText is the placeholder used when both models fail.
const StaticFallbackText = "……"

var tokenLike = regexp.MustCompile(`[A-Za-z0-9_-]{20,}`)

// Sanitize masks token-like substrings so credentials never reach the
// UI or logs through error messages.
func Sanitize(msg string) string {
	return tokenLike.ReplaceAllString(msg, "***")
}

// ErrorFunc receives one sanitized message per fully failed call.
type ErrorFunc func(msg string)

type Adapter struct {
	caller   genaiclient.Caller
	primary  string
	fallback string
	onError  ErrorFunc
}

func New(caller genaiclient.Caller, primary, fallback string, onError ErrorFunc) *Adapter {
	if onError == nil {
		onError = func(string) {}
	}
	return &Adapter{caller: caller, primary: primary, fallback: fallback, onError: onError}
}

// generate tries the primary model, then the fallback model. The error
// callback fires exactly once per call, only when both tiers fail. The
// adapter keeps no state between calls.
func (a *Adapter) generate(ctx context.Context, apiKey string, req genaiclient.Request) (string, bool) {
	text, err := a.caller.Generate(ctx, apiKey, a.primary, req)
	if err == nil {
		return text, true
	}
	text, err = a.caller.Generate(ctx, apiKey, a.fallback, req)
	if err == nil {
		return text, true
	}
	if ctx.Err() == nil {
		a.onError(Sanitize(err.Error()))
	}
	return "", false
}

// TurnRequest asks for one speaker's turn.
type TurnRequest struct {
	Agent      *game.Agent
	Transcript []string
	Round      int
	Living     []*game.Agent
	Directive  string
}

// GenerateTurn produces one decoded turn, degrading to a neutral
// placeholder when both models fail.
func (a *Adapter) GenerateTurn(ctx context.Context, apiKey string, req TurnRequest) turntext.Turn {
	raw, ok := a.generate(ctx, apiKey, genaiclient.Request{
		System: turnSystemPrompt(req.Agent, req.Living, req.Round, req.Directive),
		Prompt: turnUserPrompt(req.Transcript),
	})
	if !ok {
		return fallbackTurn()
	}
	return turntext.Parse(raw)
}

// BatchRequest asks for ordered turns for a contiguous slice of the
// speaking order. Speakers is a fixed snapshot taken at dispatch time.
type BatchRequest struct {
	Speakers   []*game.Agent
	Transcript []string
	Round      int
	Living     []*game.Agent
	Directive  string
}

// GenerateTurnBatch produces one pending turn per requested speaker, in
// speaker order. Unmatched or missing speakers are filled with the
// static fallback individually; partial success is allowed.
func (a *Adapter) GenerateTurnBatch(ctx context.Context, apiKey string, req BatchRequest) []game.PendingTurn {
	raw, ok := a.generate(ctx, apiKey, genaiclient.Request{
		System:     batchSystemPrompt(req.Living, req.Round, req.Directive),
		Prompt:     batchUserPrompt(req.Speakers, req.Transcript),
		JSONOutput: true,
	})

	byID := map[string]string{}
	if ok {
		var items []struct {
			SpeakerID string `json:"speaker_id"`
			Text      string `json:"text"`
		}
		if err := json.Unmarshal([]byte(extractJSON(raw)), &items); err == nil {
			for _, it := range items {
				byID[it.SpeakerID] = it.Text
			}
		}
	}

	out := make([]game.PendingTurn, 0, len(req.Speakers))
	for _, sp := range req.Speakers {
		text, found := byID[sp.ID]
		var turn turntext.Turn
		if found && strings.TrimSpace(text) != "" {
			turn = turntext.Parse(text)
		} else {
			turn = fallbackTurn()
		}
		out = append(out, game.PendingTurn{
			AgentID:           sp.ID,
			Thought:           turn.Thought,
			Speech:            turn.Speech,
			ThoughtExpression: turn.ThoughtExpression,
			SpeechExpression:  turn.SpeechExpression,
			RawText:           text,
		})
	}
	return out
}

// VoteRequest asks every declared voter for exactly one vote.
type VoteRequest struct {
	Voters     []*game.Agent
	Candidates []*game.Agent
	Transcript []string
	Round      int
}

// CollectVotes returns exactly one vote per declared voter, in declared
// voter order. An invalid or missing target is replaced by the first
// living candidate.
func (a *Adapter) CollectVotes(ctx context.Context, apiKey string, req VoteRequest) []game.VoteResult {
	raw, ok := a.generate(ctx, apiKey, genaiclient.Request{
		System:     voteSystemPrompt(req.Round),
		Prompt:     voteUserPrompt(req.Voters, req.Candidates, req.Transcript),
		JSONOutput: true,
	})

	byVoter := map[string]string{}
	if ok {
		var items []struct {
			VoterID  string `json:"voter_id"`
			TargetID string `json:"target_id"`
		}
		if err := json.Unmarshal([]byte(extractJSON(raw)), &items); err == nil {
			for _, it := range items {
				byVoter[it.VoterID] = it.TargetID
			}
		}
	}

	valid := map[string]*game.Agent{}
	for _, c := range req.Candidates {
		valid[c.ID] = c
	}

	out := make([]game.VoteResult, 0, len(req.Voters))
	for _, v := range req.Voters {
		target := valid[byVoter[v.ID]]
		if target == nil && len(req.Candidates) > 0 {
			target = req.Candidates[0]
		}
		if target == nil {
			continue
		}
		out = append(out, game.VoteResult{
			VoterID:    v.ID,
			VoterName:  v.Name,
			TargetID:   target.ID,
			TargetName: target.Name,
		})
	}
	return out
}

// ReactionRequest asks for a short last-words line per eliminated agent.
type ReactionRequest struct {
	Eliminated []game.EliminationQueueItem
	Agents     []*game.Agent
	Transcript []string
}

// GenerateReactions returns one reaction per queued elimination, keyed
// by agent id. Missing entries are filled with the static fallback.
func (a *Adapter) GenerateReactions(ctx context.Context, apiKey string, req ReactionRequest) map[string]string {
	raw, ok := a.generate(ctx, apiKey, genaiclient.Request{
		System:     reactionSystemPrompt(),
		Prompt:     reactionUserPrompt(req.Eliminated, req.Agents, req.Transcript),
		JSONOutput: true,
	})

	out := map[string]string{}
	if ok {
		var items []struct {
			AgentID string `json:"agent_id"`
			Line    string `json:"line"`
		}
		if err := json.Unmarshal([]byte(extractJSON(raw)), &items); err == nil {
			for _, it := range items {
				out[it.AgentID] = turntext.StripQuotes(it.Line)
			}
		}
	}
	for _, item := range req.Eliminated {
		if strings.TrimSpace(out[item.AgentID]) == "" {
			out[item.AgentID] = StaticFallbackText
		}
	}
	return out
}

// VictoryRequest asks for a winner's closing comment. Partner is set
// only for the dual-survivor ending.
type VictoryRequest struct {
	Winner     *game.Agent
	Partner    *game.Agent
	Round      int
	Transcript []string
}

// GenerateVictoryComment produces one closing line for a winner.
func (a *Adapter) GenerateVictoryComment(ctx context.Context, apiKey string, req VictoryRequest) string {
	raw, ok := a.generate(ctx, apiKey, genaiclient.Request{
		System: victorySystemPrompt(req.Winner, req.Partner),
		Prompt: victoryUserPrompt(req.Round, req.Transcript),
	})
	if !ok {
		return StaticFallbackText
	}
	line := turntext.StripQuotes(raw)
	if strings.TrimSpace(line) == "" {
		return StaticFallbackText
	}
	return line
}

// Moderation classifies a human interjection and carries the narrator
// line that either broadcasts it or answers a question about the
// narrator itself.
type Moderation struct {
	Category       string `json:"category"`
	ResponseMode   string `json:"response_mode"`
	Reason         string `json:"reason"`
	MasterResponse string `json:"master_response"`
}

const (
	ModerationSafe       = "safe"
	ModerationUnsafe     = "unsafe"
	ModerationRuleChange = "rule_change"

	ResponseModeBroadcast = "broadcast"
	ResponseModeAnswer    = "answer"
)

// ModerateIntervention classifies free-text GM input. The static
// fallback is a safe broadcast verdict so an unreachable service never
// blocks the intervention path.
func (a *Adapter) ModerateIntervention(ctx context.Context, apiKey string, text string) Moderation {
	raw, ok := a.generate(ctx, apiKey, genaiclient.Request{
		System:     moderationSystemPrompt(),
		Prompt:     moderationUserPrompt(text),
		JSONOutput: true,
	})
	if ok {
		var m Moderation
		if err := json.Unmarshal([]byte(extractJSON(raw)), &m); err == nil && validModeration(m) {
			return m
		}
	}
	return fallbackModeration(text)
}

func validModeration(m Moderation) bool {
	switch m.Category {
	case ModerationSafe, ModerationUnsafe, ModerationRuleChange:
	default:
		return false
	}
	switch m.ResponseMode {
	case ResponseModeBroadcast, ResponseModeAnswer:
	default:
		return false
	}
	return strings.TrimSpace(m.MasterResponse) != ""
}

func fallbackModeration(text string) Moderation {
	if LooksLikeHostSelfQuestion(text) {
		return Moderation{
			Category:       ModerationSafe,
			ResponseMode:   ResponseModeAnswer,
			MasterResponse: "I am merely the voice of this game. Your question changes nothing here.",
		}
	}
	return Moderation{
		Category:       ModerationSafe,
		ResponseMode:   ResponseModeBroadcast,
		MasterResponse: "A voice from above: \"" + strings.TrimSpace(text) + "\"",
	}
}

var selfQuestionHints = []string{
	"who are you", "what are you", "are you human", "are you an ai",
	"are you a machine", "your name", "who is the host", "who is the gamemaster",
	"who is the game master",
}

// LooksLikeHostSelfQuestion is a cheap heuristic used when moderation
// cannot be generated: questions aimed at the narrator are answered
// rather than broadcast to the agents.
func LooksLikeHostSelfQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, h := range selfQuestionHints {
		if strings.Contains(t, h) {
			return true
		}
	}
	return false
}

func fallbackTurn() turntext.Turn {
	return turntext.Turn{
		Thought:           StaticFallbackText,
		Speech:            StaticFallbackText,
		ThoughtExpression: game.ExpressionNeutral,
		SpeechExpression:  game.ExpressionNeutral,
	}
}

// extractJSON strips markdown code fences some models wrap around JSON
// output despite the response MIME type.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
