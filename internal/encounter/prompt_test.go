package encounter

import (
	"strings"
	"testing"

	"github.com/encuentro-app/encuentro/internal/words"
)

var promptTargets = []words.Word{
	{ID: "w-hola", Spanish: "hola", English: "hello"},
	{ID: "w-cuenta", Spanish: "la cuenta", English: "the bill"},
}

func TestSplitByUse(t *testing.T) {
	used, missing := splitByUse(promptTargets, []string{"w-cuenta"})
	if len(used) != 1 || used[0] != "la cuenta" {
		t.Errorf("used = %v", used)
	}
	if len(missing) != 1 || missing[0] != "hola" {
		t.Errorf("missing = %v", missing)
	}
}

func TestSplitByUse_PreservesTargetOrder(t *testing.T) {
	used, _ := splitByUse(promptTargets, []string{"w-cuenta", "w-hola"})
	if len(used) != 2 || used[0] != "hola" || used[1] != "la cuenta" {
		t.Errorf("used = %v, want target order", used)
	}
}

func TestOrNone(t *testing.T) {
	if got := orNone(nil); got != "None" {
		t.Errorf("orNone(nil) = %q", got)
	}
	if got := orNone([]string{"hola", "gracias"}); got != "hola, gracias" {
		t.Errorf("orNone = %q", got)
	}
}

func TestCoachUserPrompt(t *testing.T) {
	got := coachUserPrompt("bank-visit", promptTargets, nil)

	for _, want := range []string{
		"Situation: bank-visit",
		"Target Spanish words: hola (hello), la cuenta (the bill)",
		"Already used: None",
		"Missing words: hola, la cuenta",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestVoiceUserPrompt(t *testing.T) {
	got := voiceUserPrompt("cafe", promptTargets, []string{"w-hola"}, "hola señor")

	for _, want := range []string{
		"Situation: cafe",
		"Already spoken: hola",
		"User transcript: hola señor",
		"Return JSON only.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestTranscriptionHint(t *testing.T) {
	if got := transcriptionHint(promptTargets); got != "hola, la cuenta" {
		t.Errorf("hint = %q", got)
	}
}
