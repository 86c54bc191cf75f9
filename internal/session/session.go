// Package session implements the per-turn orchestration of the
// relationship simulator.
//
// One turn flows one way: raw model text through the envelope decoder,
// the delta through the affinity tracker, the substituted panel text
// through the panel parser, and everything into the store together.
// Upstream failures never surface to callers as errors; they degrade to
// the decoder's fallback reply so a session always finishes a turn in a
// consistent state.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/LoveLoop/internal/affinity"
	"github.com/BTreeMap/LoveLoop/internal/envelope"
	"github.com/BTreeMap/LoveLoop/internal/models"
	"github.com/BTreeMap/LoveLoop/internal/panel"
	"github.com/BTreeMap/LoveLoop/internal/store"
	"github.com/BTreeMap/LoveLoop/internal/util"
	"github.com/google/uuid"
)

// DefaultWeddingDelay is how long after the terminal transition fires
// before the session is moved to the wedding state.
const DefaultWeddingDelay = 2 * time.Second

// Generator is the text-generation collaborator consumed by the
// orchestrator. genai.Client satisfies it.
type Generator interface {
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// Opts holds configuration options for the orchestrator.
type Opts struct {
	WeddingDelay time.Duration
	Timer        Timer
}

// Option configures the orchestrator.
type Option func(*Opts)

// WithWeddingDelay overrides the deferred scene transition delay.
func WithWeddingDelay(d time.Duration) Option {
	return func(o *Opts) {
		o.WeddingDelay = d
	}
}

// WithTimer injects a Timer implementation (used by tests).
func WithTimer(t Timer) Option {
	return func(o *Opts) {
		o.Timer = t
	}
}

// Orchestrator composes the decoder, the affinity tracker, and the panel
// parser over a store. It owns the single-outstanding-turn guard per
// session and the generation check that discards completions arriving
// after a restart.
type Orchestrator struct {
	st           store.Store
	gen          Generator
	cfg          models.AffinityConfig
	timer        Timer
	weddingDelay time.Duration

	mu   sync.Mutex
	busy map[string]bool

	// stateMu serializes session mutations: the commit of a completed
	// turn, a restart, and the deferred wedding transition. It is never
	// held across a model call.
	stateMu sync.Mutex
}

// NewOrchestrator creates an orchestrator over the given store and
// generator with the given affinity configuration.
func NewOrchestrator(st store.Store, gen Generator, cfg models.AffinityConfig, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("affinity config rejected: %w", err)
	}
	o := Opts{WeddingDelay: DefaultWeddingDelay}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Timer == nil {
		o.Timer = NewSimpleTimer()
	}
	slog.Debug("session.NewOrchestrator: created", "stages", len(cfg.Stages), "weddingDelay", o.WeddingDelay)
	return &Orchestrator{
		st:           st,
		gen:          gen,
		cfg:          cfg,
		timer:        o.Timer,
		weddingDelay: o.WeddingDelay,
		busy:         make(map[string]bool),
	}, nil
}

// Config returns the affinity configuration in use.
func (o *Orchestrator) Config() models.AffinityConfig {
	return o.cfg
}

// Stop cancels all pending deferred transitions.
func (o *Orchestrator) Stop() {
	o.timer.Stop()
}

// tryBeginTurn acquires the per-session busy flag. A new send is
// rejected while a turn is outstanding; there is no queue.
func (o *Orchestrator) tryBeginTurn(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy[sessionID] {
		return false
	}
	o.busy[sessionID] = true
	return true
}

func (o *Orchestrator) endTurn(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.busy, sessionID)
}

// Bootstrap creates a session: it runs the sentiment analysis of the
// relationship backstory (the one absolute affinity set of the session),
// generates the opening line and initial panel, and persists the result.
func (o *Orchestrator) Bootstrap(ctx context.Context, req models.SessionCreateRequest) (*models.Session, *models.TurnResult, error) {
	now := time.Now()
	sess := &models.Session{
		ID:                uuid.NewString(),
		Player:            req.Player,
		Partner:           req.Partner,
		RelationshipStory: req.RelationshipStory,
		Worldview:         req.Worldview,
		Status:            models.SessionStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if sess.Partner.ImageURL == "" {
		sess.Partner.ImageURL = util.RandomPortrait()
	}

	initial := o.analyzeBackstory(ctx, req.RelationshipStory)
	tracker := affinity.NewTracker(o.cfg, initial)

	raw, err := o.gen.GeneratePrompt(ctx, roleplaySystemPrompt, openingPrompt(sess, tracker.Score(), o.cfg.Bounds), openingTemperature)
	if err != nil {
		slog.Warn("session.Bootstrap: opening generation failed, using fallback", "error", err, "sessionID", sess.ID)
		raw = ""
	}
	reply := envelope.DecodeOpening(raw, sess.Player.Name)

	// The zero-delta apply both clamps and fires the terminal event in the
	// degenerate case where the backstory alone lands on the top of the table.
	score, terminal := tracker.Apply(0)
	return o.completeTurn(sess, sess.Generation, reply, score, tracker.Stage(), terminal, nil)
}

// AdvanceTurn runs one steady-state turn for the session. The returned
// error is non-nil only for storage problems, a busy session, or a
// restart racing the turn; model failures degrade into the reply itself.
func (o *Orchestrator) AdvanceTurn(ctx context.Context, sessionID string, req models.TurnRequest) (*models.TurnResult, error) {
	sess, err := o.st.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, models.ErrSessionNotFound
	}
	if !o.tryBeginTurn(sessionID) {
		slog.Warn("session.AdvanceTurn: rejected concurrent turn", "sessionID", sessionID)
		return nil, models.ErrTurnInProgress
	}
	defer o.endTurn(sessionID)

	mode := req.Mode
	if mode == "" {
		mode = models.ModeInteraction
	}
	generation := sess.Generation

	history, err := o.st.GetMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	stage := affinity.ResolveStage(sess.Affinity, o.cfg)
	raw, err := o.gen.GeneratePrompt(ctx, roleplaySystemPrompt, turnPrompt(sess, history, req.Message, mode, stage.Label, o.cfg.Bounds), turnTemperature)
	if err != nil {
		slog.Warn("session.AdvanceTurn: generation failed, using fallback reply", "error", err, "sessionID", sessionID)
		raw = ""
	}
	reply := envelope.DecodeTurn(raw)

	tracker := affinity.RestoreTracker(o.cfg, sess.Affinity, sess.Status)
	score, terminal := tracker.Apply(reply.AffinityDelta)

	playerMsg := &models.Message{
		ID:        util.GenerateRandomID("msg-", 16),
		SessionID: sessionID,
		Sender:    models.SenderPlayer,
		Text:      req.Message,
		Timestamp: time.Now(),
	}
	_, result, err := o.completeTurn(sess, generation, reply, score, tracker.Stage(), terminal, playerMsg)
	return result, err
}

// completeTurn applies the decoded reply to the session: placeholder
// substitution, panel parse, and the atomic replacement of affinity,
// stage, panel, and history. The generation check makes a completion
// racing a restart a no-op.
func (o *Orchestrator) completeTurn(sess *models.Session, generation int, reply models.TurnReply, score int, stage models.Stage, terminal bool, playerMsg *models.Message) (*models.Session, *models.TurnResult, error) {
	panelText := envelope.Substitute(reply.PanelText, score)
	parsed := panel.Parse(panelText)

	sess.Affinity = score
	sess.StageLabel = stage.Label
	sess.LastPanelText = panelText
	sess.UpdatedAt = time.Now()

	if err := o.commitTurn(sess, generation, reply.Dialogue, playerMsg); err != nil {
		return nil, nil, err
	}

	if terminal {
		o.scheduleWedding(sess.ID, generation)
	}

	result := &models.TurnResult{
		SessionID:     sess.ID,
		Dialogue:      reply.Dialogue,
		Affinity:      score,
		StageLabel:    stage.Label,
		StageProgress: affinity.StageProgress(score, o.cfg),
		Panel:         parsed,
		PanelPending:  len(parsed.Sections) == 0,
		Terminal:      terminal,
		Degraded:      reply.Degraded,
	}
	slog.Info("session.completeTurn: turn completed", "sessionID", sess.ID, "affinity", score, "stage", stage.Label, "terminal", terminal, "degraded", reply.Degraded)
	return sess, result, nil
}

// commitTurn persists one completed turn. The generation re-check and
// the writes happen under the state lock so a restart cannot land
// between them; a completion carrying a stale generation is discarded
// whole, with nothing written.
func (o *Orchestrator) commitTurn(sess *models.Session, generation int, partnerText string, playerMsg *models.Message) error {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	// A restart while the model call was in flight bumps the generation,
	// and this completion must then be discarded.
	current, err := o.st.GetSession(sess.ID)
	if err != nil {
		return fmt.Errorf("failed to re-load session: %w", err)
	}
	if current != nil && current.Generation != generation {
		slog.Info("session.commitTurn: discarding stale completion", "sessionID", sess.ID, "generation", generation, "currentGeneration", current.Generation)
		return models.ErrTurnDiscarded
	}

	if playerMsg != nil {
		if err := o.st.AddMessage(*playerMsg); err != nil {
			return fmt.Errorf("failed to append player message: %w", err)
		}
	}
	partnerMsg := models.Message{
		ID:        util.GenerateRandomID("msg-", 16),
		SessionID: sess.ID,
		Sender:    models.SenderPartner,
		Text:      partnerText,
		Timestamp: time.Now(),
	}
	if err := o.st.AddMessage(partnerMsg); err != nil {
		return fmt.Errorf("failed to append partner message: %w", err)
	}
	if err := o.st.SaveSession(*sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// scheduleWedding defers the terminal scene transition. The generation is
// captured so a restart during the delay cancels the transition.
func (o *Orchestrator) scheduleWedding(sessionID string, generation int) {
	slog.Info("session.scheduleWedding: terminal transition scheduled", "sessionID", sessionID, "delay", o.weddingDelay)
	o.timer.ScheduleAfter(o.weddingDelay, func() {
		o.stateMu.Lock()
		defer o.stateMu.Unlock()
		sess, err := o.st.GetSession(sessionID)
		if err != nil || sess == nil {
			slog.Warn("session.scheduleWedding: session gone before transition", "sessionID", sessionID, "error", err)
			return
		}
		if sess.Generation != generation {
			slog.Info("session.scheduleWedding: restart preempted transition", "sessionID", sessionID)
			return
		}
		sess.Status = models.SessionStatusWedding
		sess.UpdatedAt = time.Now()
		if err := o.st.SaveSession(*sess); err != nil {
			slog.Error("session.scheduleWedding: failed to save wedding state", "error", err, "sessionID", sessionID)
		}
	})
}

// Restart resets a session to a fresh playthrough with the same
// characters: history wiped, affinity back to the neutral point, and the
// generation bumped so any outstanding completion is discarded.
func (o *Orchestrator) Restart(ctx context.Context, sessionID string) (*models.Session, error) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	sess, err := o.st.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, models.ErrSessionNotFound
	}

	sess.Generation++
	sess.Affinity = o.cfg.Neutral
	sess.StageLabel = affinity.ResolveStage(sess.Affinity, o.cfg).Label
	sess.LastPanelText = ""
	sess.Status = models.SessionStatusActive
	sess.UpdatedAt = time.Now()

	if err := o.st.DeleteMessages(sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear transcript: %w", err)
	}
	if err := o.st.SaveSession(*sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	slog.Info("session.Restart: session reset", "sessionID", sessionID, "generation", sess.Generation)
	return sess, nil
}

// Status assembles the read-only status view for a session.
func (o *Orchestrator) Status(ctx context.Context, sessionID string) (*models.SessionStatusResult, error) {
	sess, err := o.st.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, models.ErrSessionNotFound
	}
	history, err := o.st.GetMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	parsed := panel.Parse(sess.LastPanelText)
	return &models.SessionStatusResult{
		SessionID:     sess.ID,
		Player:        sess.Player,
		Partner:       sess.Partner,
		Affinity:      sess.Affinity,
		StageLabel:    sess.StageLabel,
		StageProgress: affinity.StageProgress(sess.Affinity, o.cfg),
		Panel:         parsed,
		PanelPending:  len(parsed.Sections) == 0,
		Status:        sess.Status,
		TurnCount:     len(history),
	}, nil
}

// History returns the full transcript in append order.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	sess, err := o.st.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, models.ErrSessionNotFound
	}
	return o.st.GetMessages(sessionID)
}

// analyzeBackstory runs the sentiment-analysis collaborator over the
// relationship story. The collaborator promises a bare integer; anything
// else (including a failed call) defaults to the configured neutral
// point rather than an error.
func (o *Orchestrator) analyzeBackstory(ctx context.Context, story string) int {
	raw, err := o.gen.GeneratePrompt(ctx, sentimentSystemPrompt, sentimentPrompt(story, o.cfg.Bounds), sentimentTemperature)
	if err != nil {
		slog.Warn("session.analyzeBackstory: sentiment call failed, using neutral", "error", err)
		return o.cfg.Neutral
	}
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("session.analyzeBackstory: non-numeric sentiment result, using neutral", "raw", raw)
		return o.cfg.Neutral
	}
	return score
}
