package provider

import (
	"fmt"
	"strings"

	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/turntext"
)

const gameRules = `You are playing a televised elimination game. Each round the participants discuss, then vote; whoever collects the most votes is eliminated. The last survivor wins.`

const turnFormat = `Respond with exactly one line in the form:
[emotion]inner thought` + turntext.Delimiter + `[emotion]spoken line
where emotion is one of: neutral, distressed, elated. The inner thought is private; the spoken line is heard by everyone. Keep the thought under 6 sentences.`

func describeAgent(a *game.Agent) string {
	return fmt.Sprintf("%s (survival %d, cooperation %d, cunning %d, tone: %s)",
		a.Name, a.Stats.SurvivalInstinct, a.Stats.Cooperativeness, a.Stats.Cunning, a.Tone)
}

func rosterLines(agents []*game.Agent) string {
	var b strings.Builder
	for _, a := range agents {
		b.WriteString("- " + describeAgent(a) + "\n")
	}
	return b.String()
}

func transcriptBlock(lines []string) string {
	if len(lines) == 0 {
		return "(the discussion has not started yet)"
	}
	return strings.Join(lines, "\n")
}

func directiveBlock(directive string) string {
	if directive == "" {
		return ""
	}
	return "\nThe gamemaster has just announced: \"" + directive + "\". Every participant heard it and must take it into account.\n"
}

func turnSystemPrompt(agent *game.Agent, living []*game.Agent, round int, directive string) string {
	return gameRules + "\n\n" +
		"You are " + describeAgent(agent) + ". It is round " + fmt.Sprint(round) + ".\n" +
		"Living participants:\n" + rosterLines(living) +
		directiveBlock(directive) + "\n" + turnFormat
}

func turnUserPrompt(transcript []string) string {
	return "Discussion so far:\n" + transcriptBlock(transcript) + "\n\nIt is your turn to speak."
}

func batchSystemPrompt(living []*game.Agent, round int, directive string) string {
	return gameRules + "\n\n" +
		"It is round " + fmt.Sprint(round) + ". Living participants:\n" + rosterLines(living) +
		directiveBlock(directive) + "\n" +
		"You will write turns for several participants at once, each in their own voice.\n" + turnFormat
}

func batchUserPrompt(speakers []*game.Agent, transcript []string) string {
	var b strings.Builder
	b.WriteString("Discussion so far:\n" + transcriptBlock(transcript) + "\n\n")
	b.WriteString("Write one turn for each speaker, in this exact order:\n")
	for _, sp := range speakers {
		b.WriteString("- speaker_id " + sp.ID + ": " + sp.Name + "\n")
	}
	b.WriteString("\nReturn a JSON array of objects {\"speaker_id\": string, \"text\": string}, where text follows the [emotion]thought" + turntext.Delimiter + "[emotion]speech form.")
	return b.String()
}

func voteSystemPrompt(round int) string {
	return gameRules + "\n\nRound " + fmt.Sprint(round) + " discussion is over. Every participant now votes to eliminate one other participant, based on the discussion."
}

func voteUserPrompt(voters, candidates []*game.Agent, transcript []string) string {
	var b strings.Builder
	b.WriteString("Discussion this round:\n" + transcriptBlock(transcript) + "\n\n")
	b.WriteString("Voters:\n")
	for _, v := range voters {
		b.WriteString("- voter_id " + v.ID + ": " + describeAgent(v) + "\n")
	}
	b.WriteString("Valid targets:\n")
	for _, c := range candidates {
		b.WriteString("- target_id " + c.ID + ": " + c.Name + "\n")
	}
	b.WriteString("\nReturn a JSON array of objects {\"voter_id\": string, \"target_id\": string}, exactly one entry per voter.")
	return b.String()
}

func reactionSystemPrompt() string {
	return gameRules + "\n\nThe vote is in. Write each eliminated participant's final words: a single short line, in character, no quotation marks."
}

func reactionUserPrompt(eliminated []game.EliminationQueueItem, agents []*game.Agent, transcript []string) string {
	byID := map[string]*game.Agent{}
	for _, a := range agents {
		byID[a.ID] = a
	}
	var b strings.Builder
	b.WriteString("Discussion this round:\n" + transcriptBlock(transcript) + "\n\n")
	b.WriteString("Eliminated participants:\n")
	for _, e := range eliminated {
		if a := byID[e.AgentID]; a != nil {
			b.WriteString("- agent_id " + e.AgentID + ": " + describeAgent(a) + "\n")
		} else {
			b.WriteString("- agent_id " + e.AgentID + ": " + e.AgentName + "\n")
		}
	}
	b.WriteString("\nReturn a JSON array of objects {\"agent_id\": string, \"line\": string}.")
	return b.String()
}

func victorySystemPrompt(winner, partner *game.Agent) string {
	s := gameRules + "\n\nThe game is over and " + describeAgent(winner) + " has survived."
	if partner != nil {
		s += " They survived together with " + partner.Name + " by trusting each other in the final vote."
	}
	s += " Write the winner's closing comment: one or two sentences, in character, no quotation marks."
	return s
}

func victoryUserPrompt(round int, transcript []string) string {
	return fmt.Sprintf("The game lasted %d rounds. Final moments:\n%s\n\nWrite the closing comment.", round, transcriptBlock(transcript))
}

func moderationSystemPrompt() string {
	return `You moderate free-text instructions a human gamemaster wants to inject into an elimination game. Classify the instruction and write the narrator line.

Return a JSON object:
{"category": "safe" | "unsafe" | "rule_change", "response_mode": "broadcast" | "answer", "reason": string, "master_response": string}

- "safe": an instruction or remark that can be announced to the participants as-is. master_response broadcasts it in the narrator's voice.
- "rule_change": an attempt to alter the game rules. It is still announced, but narrate it as the gamemaster bending the rules.
- "unsafe": harmful or out-of-bounds content. master_response deflects without repeating the content.
- response_mode "answer" is used when the instruction is actually a question about the narrator itself (who/what the host is); master_response answers it directly instead of broadcasting.`
}

func moderationUserPrompt(text string) string {
	return "Instruction from the gamemaster:\n" + text
}
