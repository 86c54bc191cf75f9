package models

import (
	"errors"
	"strings"
	"testing"
)

func validCreateRequest() SessionCreateRequest {
	return SessionCreateRequest{
		Player: Character{Name: "小明"},
		Partner: Partner{
			Character:   Character{Name: "小红"},
			Personality: "温柔",
		},
		RelationshipStory: "青梅竹马。",
	}
}

func TestSessionCreateRequestValidate(t *testing.T) {
	req := validCreateRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req = validCreateRequest()
	req.Player.Name = ""
	if err := req.Validate(); !errors.Is(err, ErrEmptyPlayerName) {
		t.Errorf("err = %v, want ErrEmptyPlayerName", err)
	}

	req = validCreateRequest()
	req.Partner.Name = ""
	if err := req.Validate(); !errors.Is(err, ErrEmptyPartnerName) {
		t.Errorf("err = %v, want ErrEmptyPartnerName", err)
	}

	req = validCreateRequest()
	req.RelationshipStory = ""
	if err := req.Validate(); !errors.Is(err, ErrEmptyRelationshipStory) {
		t.Errorf("err = %v, want ErrEmptyRelationshipStory", err)
	}

	req = validCreateRequest()
	req.RelationshipStory = strings.Repeat("x", MaxStoryLength+1)
	if err := req.Validate(); !errors.Is(err, ErrStoryTooLong) {
		t.Errorf("err = %v, want ErrStoryTooLong", err)
	}

	req = validCreateRequest()
	req.Partner.Personality = strings.Repeat("x", MaxCharacterFieldLength+1)
	if err := req.Validate(); !errors.Is(err, ErrFieldTooLong) {
		t.Errorf("err = %v, want ErrFieldTooLong", err)
	}
}

func TestTurnRequestValidate(t *testing.T) {
	req := TurnRequest{Message: "你好"}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req = TurnRequest{Message: ""}
	if err := req.Validate(); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}

	req = TurnRequest{Message: strings.Repeat("x", MaxPlayerMessageLength+1)}
	if err := req.Validate(); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("err = %v, want ErrMessageTooLong", err)
	}

	req = TurnRequest{Message: "hi", Mode: "telepathy"}
	if err := req.Validate(); !errors.Is(err, ErrInvalidInteractionMode) {
		t.Errorf("err = %v, want ErrInvalidInteractionMode", err)
	}

	for _, mode := range []InteractionMode{ModeChat, ModeInteraction} {
		req = TurnRequest{Message: "hi", Mode: mode}
		if err := req.Validate(); err != nil {
			t.Errorf("mode %q rejected: %v", mode, err)
		}
	}
}

func TestAffinityConfigValidate(t *testing.T) {
	for _, cfg := range []AffinityConfig{DefaultAffinityConfig(), CompactAffinityConfig()} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset rejected: %v", err)
		}
	}

	bad := CompactAffinityConfig()
	bad.Stages[0].MinAffinity = 5 // first stage must anchor at Bounds.Min
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAffinityConfig) {
		t.Errorf("err = %v, want ErrInvalidAffinityConfig", err)
	}

	bad = CompactAffinityConfig()
	bad.Stages[2].MinAffinity = 10 // thresholds must be non-decreasing
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAffinityConfig) {
		t.Errorf("err = %v, want ErrInvalidAffinityConfig", err)
	}

	bad = CompactAffinityConfig()
	bad.Neutral = 500 // neutral must sit inside bounds
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAffinityConfig) {
		t.Errorf("err = %v, want ErrInvalidAffinityConfig", err)
	}

	bad = CompactAffinityConfig()
	bad.Stages = nil
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAffinityConfig) {
		t.Errorf("err = %v, want ErrInvalidAffinityConfig", err)
	}
}

func TestTopStage(t *testing.T) {
	cfg := DefaultAffinityConfig()
	if got := cfg.TopStage().Label; got != "未婚伴侣" {
		t.Errorf("TopStage = %q, want 未婚伴侣", got)
	}
}

func TestAPIResponseHelpers(t *testing.T) {
	r := Success(map[string]int{"n": 1})
	if r.Status != string(APIStatusOK) || r.Result == nil || r.Message != "" {
		t.Errorf("Success = %+v", r)
	}
	r = SuccessWithMessage("done", nil)
	if r.Status != string(APIStatusOK) || r.Message != "done" {
		t.Errorf("SuccessWithMessage = %+v", r)
	}
	r = Error("boom")
	if r.Status != string(APIStatusError) || r.Message != "boom" {
		t.Errorf("Error = %+v", r)
	}
}
