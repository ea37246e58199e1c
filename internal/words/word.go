// Package words holds the vocabulary reference data and the detector that
// decides which target words a learner actually produced in an utterance.
package words

// Category classifies how a word entered the curriculum.
type Category string

const (
	// CategoryEncounter marks words taught through scripted encounters.
	CategoryEncounter Category = "encounter"

	// CategoryHighFrequency marks words seeded from frequency lists.
	CategoryHighFrequency Category = "high_frequency"
)

// Word is an immutable vocabulary entry. Seeded once, never mutated by the
// conversation pipeline.
type Word struct {
	// ID is the stable word identifier (e.g., "banco_1").
	ID string

	// Spanish is the source-language surface form the learner must produce.
	// May contain several tokens (e.g., "tarjeta de crédito").
	Spanish string

	// English is the target-language gloss.
	English string

	// Category is optional curriculum metadata.
	Category Category

	// FrequencyRank is the optional corpus frequency rank. Nil when unknown.
	FrequencyRank *int

	// Notes is an optional learning note shown to the user.
	Notes string
}
