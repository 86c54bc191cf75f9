// Package models defines the core data structures for LoveLoop.
//
// This file holds API request/response types shared between the HTTP
// server and its clients.
package models

// SessionCreateRequest is the payload for POST /sessions.
type SessionCreateRequest struct {
	Player            Character `json:"player"`
	Partner           Partner   `json:"partner"`
	RelationshipStory string    `json:"relationship_story"`
	Worldview         string    `json:"worldview,omitempty"`
}

// Validate performs comprehensive validation on a session creation request.
func (r *SessionCreateRequest) Validate() error {
	if err := r.Player.Validate(); err != nil {
		return err
	}
	if err := r.Partner.Validate(); err != nil {
		return err
	}
	if r.RelationshipStory == "" {
		return ErrEmptyRelationshipStory
	}
	if len(r.RelationshipStory) > MaxStoryLength || len(r.Worldview) > MaxStoryLength {
		return ErrStoryTooLong
	}
	return nil
}

// TurnRequest is the payload for POST /sessions/{id}/turns.
type TurnRequest struct {
	Message string          `json:"message"`
	Mode    InteractionMode `json:"mode,omitempty"`
}

// Validate performs validation on a turn request.
func (r *TurnRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxPlayerMessageLength {
		return ErrMessageTooLong
	}
	if r.Mode != "" && !IsValidInteractionMode(r.Mode) {
		return ErrInvalidInteractionMode
	}
	return nil
}

// TurnResult is what the presentation layer receives after each turn.
type TurnResult struct {
	SessionID     string      `json:"session_id"`
	Dialogue      string      `json:"dialogue"`
	Affinity      int         `json:"affinity"`
	StageLabel    string      `json:"stage_label"`
	StageProgress float64     `json:"stage_progress"`
	Panel         StatusPanel `json:"panel"`
	// PanelPending is true when the panel text yielded zero sections and the
	// client should render an explicit "still loading" affordance instead of
	// an empty list.
	PanelPending bool `json:"panel_pending"`
	Terminal     bool `json:"terminal"`
	Degraded     bool `json:"degraded,omitempty"`
}

// SessionStatusResult is the payload for GET /sessions/{id}.
type SessionStatusResult struct {
	SessionID     string        `json:"session_id"`
	Player        Character     `json:"player"`
	Partner       Partner       `json:"partner"`
	Affinity      int           `json:"affinity"`
	StageLabel    string        `json:"stage_label"`
	StageProgress float64       `json:"stage_progress"`
	Panel         StatusPanel   `json:"panel"`
	PanelPending  bool          `json:"panel_pending"`
	Status        SessionStatus `json:"status"`
	TurnCount     int           `json:"turn_count"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful API operation.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed API operation.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standardized API response structure.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
