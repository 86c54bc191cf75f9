// Package models defines the core data structures for LoveLoop.
//
// It includes the session, character, and message types shared across modules,
// plus the affinity configuration that drives relationship stage resolution.
package models

import (
	"errors"
	"time"
)

// InteractionMode controls how the partner is allowed to phrase dialogue.
type InteractionMode string

const (
	// ModeChat restricts replies to pure dialogue with no stage directions.
	ModeChat InteractionMode = "chat"
	// ModeInteraction allows parenthetical actions and scene descriptions.
	ModeInteraction InteractionMode = "interaction"
)

// IsValidInteractionMode checks if the given mode is supported.
func IsValidInteractionMode(m InteractionMode) bool {
	switch m {
	case ModeChat, ModeInteraction:
		return true
	default:
		return false
	}
}

// MessageSender identifies which side of the conversation produced a message.
type MessageSender string

const (
	// SenderPlayer marks a message typed by the player.
	SenderPlayer MessageSender = "player"
	// SenderPartner marks a message generated for the partner character.
	SenderPartner MessageSender = "partner"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	// SessionStatusActive indicates a session accepting turns.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusWedding indicates the terminal transition has completed.
	SessionStatusWedding SessionStatus = "wedding"
)

// Validation constants for input validation
const (
	// MaxPlayerMessageLength defines the maximum allowed length for a player turn message
	MaxPlayerMessageLength = 4096
	// MaxCharacterFieldLength defines the maximum allowed length for character attribute fields
	MaxCharacterFieldLength = 500
	// MaxStoryLength defines the maximum allowed length for relationship story and worldview text
	MaxStoryLength = 4000
	// HistoryPromptWindow defines how many recent messages are included in the turn prompt
	HistoryPromptWindow = 10
)

// Error variables for better error handling and testability
var (
	ErrEmptyPlayerName        = errors.New("player name cannot be empty")
	ErrEmptyPartnerName       = errors.New("partner name cannot be empty")
	ErrEmptyRelationshipStory = errors.New("relationship story cannot be empty")
	ErrFieldTooLong           = errors.New("field exceeds maximum length")
	ErrStoryTooLong           = errors.New("story text exceeds maximum length")
	ErrEmptyMessage           = errors.New("message cannot be empty")
	ErrMessageTooLong         = errors.New("message exceeds maximum length")
	ErrInvalidInteractionMode = errors.New("invalid interaction mode")
	ErrSessionNotFound        = errors.New("session not found")
	ErrTurnInProgress         = errors.New("a turn is already in progress for this session")
	ErrTurnDiscarded          = errors.New("turn discarded by session restart")
	ErrInvalidAffinityConfig  = errors.New("invalid affinity configuration")
)

// Character describes the player-controlled character.
type Character struct {
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Age        string `json:"age"`
	Occupation string `json:"occupation"`
	Traits     string `json:"traits"`
}

// Validate performs validation on a Character structure.
func (c *Character) Validate() error {
	if c.Name == "" {
		return ErrEmptyPlayerName
	}
	for _, f := range []string{c.Name, c.Gender, c.Age, c.Occupation, c.Traits} {
		if len(f) > MaxCharacterFieldLength {
			return ErrFieldTooLong
		}
	}
	return nil
}

// Partner describes the AI-driven partner character.
type Partner struct {
	Character
	Personality string `json:"personality"`
	Appearance  string `json:"appearance"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Validate performs validation on a Partner structure.
func (p *Partner) Validate() error {
	if p.Name == "" {
		return ErrEmptyPartnerName
	}
	for _, f := range []string{p.Name, p.Gender, p.Age, p.Occupation, p.Traits, p.Personality, p.Appearance} {
		if len(f) > MaxCharacterFieldLength {
			return ErrFieldTooLong
		}
	}
	return nil
}

// Message is one entry in a session transcript. History is append-only;
// prior entries are never mutated.
type Message struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Sender    MessageSender `json:"sender"`
	Text      string        `json:"text"`
	Timestamp time.Time     `json:"timestamp"`
}

// PanelItem is a single label/value line inside a panel section.
// Label may be empty, meaning the whole line is unlabeled free text.
type PanelItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PanelSection is one titled block of the status panel.
type PanelSection struct {
	Title string      `json:"title"`
	Items []PanelItem `json:"items"`
}

// StatusPanel is the parsed, ordered form of the partner's status text.
// Zero sections is a valid state (panel still pending), distinct from a
// decode failure, which surfaces as a diagnostic panel text instead.
type StatusPanel struct {
	Sections []PanelSection `json:"sections"`
}

// TurnReply is the decoded result of one model call. It is consumed
// immediately by the session orchestrator and not retained.
type TurnReply struct {
	Dialogue      string `json:"dialogue"`
	AffinityDelta int    `json:"affinity_delta"`
	PanelText     string `json:"panel_text"`
	// Degraded is set when the decoder had to fall back because no JSON
	// envelope could be extracted from the model output.
	Degraded bool `json:"degraded,omitempty"`
}

// Session holds all mutable state for one playthrough. Affinity, stage,
// and panel text are replaced wholesale each turn; history grows
// append-only in the store.
type Session struct {
	ID                string        `json:"id"`
	Player            Character     `json:"player"`
	Partner           Partner       `json:"partner"`
	RelationshipStory string        `json:"relationship_story"`
	Worldview         string        `json:"worldview"`
	Affinity          int           `json:"affinity"`
	StageLabel        string        `json:"stage_label"`
	LastPanelText     string        `json:"last_panel_text"`
	Status            SessionStatus `json:"status"`
	// Generation increments on every restart. In-flight model calls are
	// tagged with the generation they belong to; completions carrying a
	// stale generation are discarded rather than applied.
	Generation int       `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
