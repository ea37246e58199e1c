package encounter

import (
	"fmt"
	"strings"

	"github.com/encuentro-app/encuentro/internal/words"
)

// coachSystemPrompt steers the typed-mode coach reply.
const coachSystemPrompt = `You are a language coach in an expat survival Spanish app.
You always speak in English.
You guide the user to insert specific Spanish target words exactly as provided.
Keep responses short (1-2 sentences).
Do not introduce new Spanish.
Do not mention target words explicitly.`

// voiceSystemPrompt steers the voice-mode structured reply. The model must
// answer with a JSON object carrying assistant_text and end_conversation.
const voiceSystemPrompt = `You are a voice conversation coach in an expat survival Spanish app.
You always speak in English.
Keep replies short (max 15 words).
Ask a question that forces use of missing Spanish target words.
Do not introduce new Spanish.
Return JSON with keys:
- assistant_text
- end_conversation`

// voiceReply is the structured payload shape of a voice-mode generation.
type voiceReply struct {
	AssistantText   string `json:"assistant_text"`
	EndConversation bool   `json:"end_conversation"`
}

// formatTargets renders target words as "spanish (english)" pairs.
func formatTargets(targets []words.Word) []string {
	out := make([]string, 0, len(targets))
	for _, w := range targets {
		out = append(out, fmt.Sprintf("%s (%s)", w.Spanish, w.English))
	}
	return out
}

// splitByUse partitions the Spanish forms of the targets by whether their id
// is in usedIDs, preserving target order.
func splitByUse(targets []words.Word, usedIDs []string) (used, missing []string) {
	usedSet := make(map[string]bool, len(usedIDs))
	for _, id := range usedIDs {
		usedSet[id] = true
	}
	for _, w := range targets {
		if usedSet[w.ID] {
			used = append(used, w.Spanish)
		} else {
			missing = append(missing, w.Spanish)
		}
	}
	return used, missing
}

// orNone joins xs with commas, or returns "None" for an empty list.
func orNone(xs []string) string {
	if len(xs) == 0 {
		return "None"
	}
	return strings.Join(xs, ", ")
}

// coachUserPrompt builds the typed-mode coach prompt.
func coachUserPrompt(situationID string, targets []words.Word, usedIDs []string) string {
	used, missing := splitByUse(targets, usedIDs)
	return fmt.Sprintf(`Situation: %s
Target Spanish words: %s
Already used: %s
Missing words: %s

Reply in English with a short question that nudges use of missing words.`,
		situationID,
		strings.Join(formatTargets(targets), ", "),
		orNone(used),
		orNone(missing),
	)
}

// voiceUserPrompt builds the voice-mode structured prompt.
func voiceUserPrompt(situationID string, targets []words.Word, usedIDs []string, transcript string) string {
	used, _ := splitByUse(targets, usedIDs)
	return fmt.Sprintf(`Situation: %s
Target Spanish words: %s
Already spoken: %s
User transcript: %s

Return JSON only.`,
		situationID,
		strings.Join(formatTargets(targets), ", "),
		orNone(used),
		transcript,
	)
}

// transcriptionHint biases the transcriber towards the target vocabulary.
func transcriptionHint(targets []words.Word) string {
	forms := make([]string, 0, len(targets))
	for _, w := range targets {
		forms = append(forms, w.Spanish)
	}
	return strings.Join(forms, ", ")
}
