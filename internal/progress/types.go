// Package progress owns per-conversation word-usage state and per-user
// learning counters. It decides when a conversation is complete and when a
// word transitions to mastered. All persistence goes through [Store]; the
// package performs no other I/O.
package progress

import (
	"time"

	"github.com/google/uuid"
)

// Modality says whether a conversation is conducted by typing or speaking.
type Modality string

const (
	ModalityTyped  Modality = "typed"
	ModalitySpoken Modality = "spoken"
)

// IsValid reports whether m is a recognised modality.
func (m Modality) IsValid() bool {
	return m == ModalityTyped || m == ModalitySpoken
}

// Status is the conversation lifecycle state. The transition
// active → complete is one-way.
type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// Conversation is one encounter attempt by one user. The target set is fixed
// at creation; only the used sets and status mutate afterwards, and only
// through [Tracker].
type Conversation struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SituationID string
	Modality    Modality

	// TargetWordIDs is the ordered target set fixed at creation.
	TargetWordIDs []string

	// UsedTypedWordIDs and UsedSpokenWordIDs are the words produced so far,
	// each a subset of TargetWordIDs by construction.
	UsedTypedWordIDs  []string
	UsedSpokenWordIDs []string

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UsedWordIDs returns the used set for the given modality.
func (c *Conversation) UsedWordIDs(m Modality) []string {
	if m == ModalitySpoken {
		return c.UsedSpokenWordIDs
	}
	return c.UsedTypedWordIDs
}

// WordStatus is the per-user learning state of a single word.
// The transition learning → mastered is one-way.
type WordStatus string

const (
	WordStatusLearning WordStatus = "learning"
	WordStatusMastered WordStatus = "mastered"
)

// UserWord tracks one user's exposure to one word. Created lazily on first
// exposure.
type UserWord struct {
	UserID uuid.UUID
	WordID string

	// SeenCount counts encounter starts that included this word.
	SeenCount int

	// TypedCorrectCount and SpokenCorrectCount count detected productions
	// per modality, including repeat productions within one conversation.
	TypedCorrectCount  int
	SpokenCorrectCount int

	Status    WordStatus
	UpdatedAt time.Time
}
