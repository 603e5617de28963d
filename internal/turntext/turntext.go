// Package turntext decodes raw generated turn text into a structured
// thought/speech record with emotion tags, and re-encodes records back
// into the wire form.
package turntext

import (
	"regexp"
	"strings"

	"github.com/yami-inc/ai-death-game/internal/game"
)

// Delimiter separates the thought segment from the speech segment.
const Delimiter = "|||"

const (
	// MaxSentences caps the number of sentences kept in a segment.
	MaxSentences = 6
	// MaxThoughtRunes caps the thought length.
	MaxThoughtRunes = 400
	// MaxSpeechRunes caps the speech length.
	MaxSpeechRunes = 800
	// Ellipsis is appended when a segment is truncated.
	Ellipsis = "…"
)

// Turn is one decoded speaker turn.
type Turn struct {
	Thought           string
	Speech            string
	ThoughtExpression game.Expression
	SpeechExpression  game.Expression
}

var tagPattern = regexp.MustCompile(`\[(neutral|distressed|elated)\]`)

var sentenceEnd = regexp.MustCompile(`[^.。！？!?]*[.。！？!?]+|[^.。！？!?]+$`)

// Parse decodes raw text into a Turn. It never fails: malformed input
// degrades to neutral expressions and possibly empty text.
func Parse(raw string) Turn {
	thoughtPart, speechPart := splitSegments(raw)

	thought, thoughtExpr := extractTag(thoughtPart)
	speech, speechExpr := extractTag(speechPart)

	thought = capSentences(thought, MaxSentences)
	thought = capRunes(thought, MaxThoughtRunes)
	speech = capSentences(StripQuotes(speech), MaxSentences)
	speech = capRunes(speech, MaxSpeechRunes)

	return Turn{
		Thought:           thought,
		Speech:            speech,
		ThoughtExpression: thoughtExpr,
		SpeechExpression:  speechExpr,
	}
}

// Encode renders a Turn back into the wire form. Parse(Encode(t))
// returns t for any turn whose text does not contain the delimiter.
func Encode(t Turn) string {
	return "[" + string(t.ThoughtExpression) + "]" + t.Thought +
		Delimiter +
		"[" + string(t.SpeechExpression) + "]" + t.Speech
}

// splitSegments divides raw text into thought and speech. The explicit
// delimiter wins; without it the split falls back to the second emotion
// tag occurrence, and failing that everything is treated as thought.
func splitSegments(raw string) (string, string) {
	if i := strings.Index(raw, Delimiter); i >= 0 {
		return raw[:i], raw[i+len(Delimiter):]
	}
	locs := tagPattern.FindAllStringIndex(raw, -1)
	if len(locs) >= 2 {
		return raw[:locs[1][0]], raw[locs[1][0]:]
	}
	return raw, ""
}

// extractTag strips all emotion tags from the segment and returns the
// cleaned text with the last tag found. Authors self-correct mid
// generation, so the last occurrence wins; absence defaults to neutral.
func extractTag(segment string) (string, game.Expression) {
	expr := game.ExpressionNeutral
	matches := tagPattern.FindAllStringSubmatch(segment, -1)
	if len(matches) > 0 {
		expr = game.Expression(matches[len(matches)-1][1])
	}
	cleaned := tagPattern.ReplaceAllString(segment, "")
	return strings.TrimSpace(cleaned), expr
}

func capSentences(text string, max int) string {
	sentences := sentenceEnd.FindAllString(text, -1)
	if len(sentences) <= max {
		return text
	}
	return strings.TrimSpace(strings.Join(sentences[:max], "")) + Ellipsis
}

func capRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + Ellipsis
}

// StripQuotes removes a single pair of surrounding quotation marks,
// including CJK corner brackets, from the text.
func StripQuotes(text string) string {
	text = strings.TrimSpace(text)
	pairs := [][2]string{
		{`"`, `"`},
		{"「", "」"},
		{"『", "』"},
		{"“", "”"},
	}
	for _, p := range pairs {
		if strings.HasPrefix(text, p[0]) && strings.HasSuffix(text, p[1]) && len(text) > len(p[0])+len(p[1]) {
			return strings.TrimSpace(text[len(p[0]) : len(text)-len(p[1])])
		}
	}
	return text
}
