// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/folio-tui/internal/backend"
	"github.com/jeranaias/folio-tui/internal/session"
)

// =============================================================================
// STATES
// =============================================================================

// State is the phase an exchange is in.
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateSessionReady State = "session_ready"
	StateSending      State = "sending"
	StateStreaming    State = "streaming"
	StateFinalizing   State = "finalizing"
	StateCommitted    State = "committed"
	StateRolledBack   State = "rolled_back"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage means the outgoing message was empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoFolder means no document folder was selected for the exchange.
	ErrNoFolder = errors.New("no folder selected")

	// ErrBusy means the target session already has an exchange in flight.
	ErrBusy = errors.New("session has an exchange in flight")
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Mode selects the response transport for exchanges.
type Mode string

const (
	// ModeStream consumes the incremental line-delimited response.
	ModeStream Mode = "stream"

	// ModeJSON requests the whole reply as a single JSON object.
	ModeJSON Mode = "json"
)

// Config holds controller tuning.
type Config struct {
	// Mode selects streaming or single-object responses. Default: ModeStream.
	Mode Mode

	// OnState, when set, observes every phase transition of an exchange.
	OnState func(State)
}

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// ChatBackend is the slice of the backend client the controller needs.
type ChatBackend interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResult, error)
	ChatStream(ctx context.Context, req backend.ChatRequest, callback backend.EventCallback) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Result is the outcome of one exchange.
type Result struct {
	// State is the terminal phase: StateCommitted or StateRolledBack.
	State State

	// SessionID is the session the exchange ran against.
	SessionID string

	// SessionCreated is true when Send had to create the session.
	SessionCreated bool

	// User and Assistant are the committed messages. Zero-valued when the
	// exchange rolled back.
	User      session.Message
	Assistant session.Message
}

// Controller drives chat exchanges against a backend and a session store.
type Controller struct {
	client ChatBackend
	store  *session.Store
	mode   Mode

	onState func(State)

	// RELIABILITY: one in-flight exchange per session, enforced here rather
	// than in the store so a rejected Send never touches session state.
	mu       sync.Mutex
	inflight map[string]bool
}

// NewController creates a controller over the given backend and store.
func NewController(client ChatBackend, store *session.Store, cfg Config) *Controller {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeStream
	}
	return &Controller{
		client:   client,
		store:    store,
		mode:     mode,
		onState:  cfg.OnState,
		inflight: make(map[string]bool),
	}
}

func (c *Controller) notify(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}

// Send runs one full exchange: the trimmed text goes to the backend scoped
// to folderName, the streamed reply is accumulated, and on success the
// session gains exactly two messages. On any failure after validation the
// session's message sequence is restored to its pre-exchange contents.
//
// Session resolution: the active session is used when its folder matches
// folderName; otherwise (including when no session exists) exactly one new
// session is created and made active.
//
// onDelta, when non-nil, receives each content delta as it arrives. Deltas
// are display hints only; the committed message is built independently.
func (c *Controller) Send(ctx context.Context, folderName, text string, onDelta func(delta string)) (Result, error) {
	c.notify(StateValidating)

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{State: StateIdle}, ErrEmptyMessage
	}
	folderName = strings.TrimSpace(folderName)
	if folderName == "" {
		return Result{State: StateIdle}, ErrNoFolder
	}

	sess, created := c.resolveSession(folderName)
	c.notify(StateSessionReady)

	if !c.begin(sess.ID) {
		return Result{State: StateIdle, SessionID: sess.ID}, ErrBusy
	}
	defer c.end(sess.ID)

	// Snapshot for rollback. Everything after this point is all-or-nothing.
	before, ok := c.store.Messages(sess.ID)
	if !ok {
		return Result{State: StateIdle, SessionID: sess.ID}, session.ErrSessionNotFound
	}

	userMsg := session.NewUserMessage(text)

	// Stage the user message so live views see the outgoing turn.
	staged := append(append([]session.Message{}, before...), userMsg)
	if err := c.store.ReplaceMessages(sess.ID, staged); err != nil {
		return Result{State: StateIdle, SessionID: sess.ID}, err
	}

	rollback := func() {
		// Restore the exact pre-exchange sequence.
		_ = c.store.ReplaceMessages(sess.ID, before)
		c.notify(StateRolledBack)
	}

	req := backend.ChatRequest{
		Message:             text,
		FolderName:          folderName,
		ConversationHistory: historyFrom(before),
	}

	c.notify(StateSending)

	reply, err := c.exchange(ctx, req, onDelta)
	if err != nil {
		rollback()
		return Result{State: StateRolledBack, SessionID: sess.ID, SessionCreated: created}, err
	}

	c.notify(StateFinalizing)

	draft := session.NewDraft()
	draft.AppendContent(reply.Content)
	draft.AttachReply(reply)
	assistant := draft.Finalize()

	committed := append(append([]session.Message{}, before...), userMsg, assistant)
	if err := c.store.ReplaceMessages(sess.ID, committed); err != nil {
		rollback()
		return Result{State: StateRolledBack, SessionID: sess.ID, SessionCreated: created}, err
	}

	// First exchange names the session after the opening message.
	if len(before) == 0 {
		_ = c.store.Retitle(sess.ID, text)
	}

	c.notify(StateCommitted)
	return Result{
		State:          StateCommitted,
		SessionID:      sess.ID,
		SessionCreated: created,
		User:           userMsg,
		Assistant:      assistant,
	}, nil
}

// exchange performs the transport leg and returns the complete reply.
func (c *Controller) exchange(ctx context.Context, req backend.ChatRequest, onDelta func(string)) (backend.Reply, error) {
	if c.mode == ModeJSON {
		result, err := c.client.Chat(ctx, req)
		if err != nil {
			return backend.Reply{}, err
		}
		reply := result.AsReply()
		if onDelta != nil && reply.Content != "" {
			onDelta(reply.Content)
		}
		return reply, nil
	}

	c.notify(StateStreaming)

	interp := backend.NewInterpreter()
	interp.OnDelta = onDelta

	err := c.client.ChatStream(ctx, req, interp.Feed)
	if err != nil {
		return backend.Reply{}, err
	}
	// A stream that closes cleanly without a complete record still counts
	// as a finished reply: whatever accumulated is the answer.
	return interp.Reply(), nil
}

// resolveSession returns the session the exchange targets, creating one
// when none is active or the active session is bound to another folder.
func (c *Controller) resolveSession(folderName string) (session.Session, bool) {
	if active, ok := c.store.Active(); ok && active.FolderName == folderName {
		return active, false
	}
	return c.store.Create(folderName), true
}

// =============================================================================
// SINGLE-FLIGHT TRACKING
// =============================================================================

func (c *Controller) begin(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[sessionID] {
		return false
	}
	c.inflight[sessionID] = true
	return true
}

func (c *Controller) end(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, sessionID)
}

// Busy reports whether the given session has an exchange in flight.
func (c *Controller) Busy(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[sessionID]
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// historyFrom converts committed messages to the wire history format.
func historyFrom(messages []session.Message) []backend.HistoryMessage {
	history := make([]backend.HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		history = append(history, backend.HistoryMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return history
}
