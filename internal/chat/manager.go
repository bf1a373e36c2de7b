package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/moodtunes/moodtunes-api/internal/models"
)

// MaxSentTurns caps the number of turns sent upstream per request. Older
// turns stay visible in the transcript; only the outbound payload is trimmed.
const MaxSentTurns = 10

// ErrStreamActive is returned when Send or Regenerate is invoked while a
// stream is already open for this conversation.
var ErrStreamActive = errors.New("a stream is already active")

// State is the explicit lifecycle state of the conversation view
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}

// RenderFunc is invoked with a snapshot of the transcript after every change
type RenderFunc func(turns []models.Message)

// Manager owns the session-scoped conversation and drives the streaming
// read loop. Send and Regenerate block until their stream closes; Stop and
// Clear may be called concurrently from another goroutine.
type Manager struct {
	client   *Client
	onRender RenderFunc

	mu      sync.Mutex
	turns   []models.Message
	state   State
	handle  *StreamHandle
	liveIdx int // index of the in-progress assistant turn, -1 when none
}

// NewManager creates an empty conversation bound to the given relay client.
// onRender may be nil.
func NewManager(client *Client, onRender RenderFunc) *Manager {
	return &Manager{
		client:   client,
		onRender: onRender,
		liveIdx:  -1,
	}
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Turns returns a snapshot of the full displayed transcript
func (m *Manager) Turns() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Send appends a user turn with the given text and streams one assistant
// reply. Empty input is ignored. Returns ErrStreamActive if a stream is open.
func (m *Manager) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrStreamActive
	}
	m.turns = append(m.turns, models.Message{Role: models.RoleUser, Content: text})
	payload := m.trimmedPayloadLocked()
	m.state = StateSending
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
	m.run(ctx, payload)
	return nil
}

// Regenerate removes the trailing assistant turn and streams a replacement.
// It is a no-op (no network call, conversation unchanged) unless the
// conversation is non-empty, idle, and ends with an assistant turn.
func (m *Manager) Regenerate(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrStreamActive
	}
	if len(m.turns) == 0 || m.turns[len(m.turns)-1].Role != models.RoleAssistant {
		m.mu.Unlock()
		return nil
	}
	m.turns = m.turns[:len(m.turns)-1]
	payload := m.trimmedPayloadLocked()
	m.state = StateSending
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
	m.run(ctx, payload)
	return nil
}

// Stop cancels the active stream, if any. Idempotent: calling it twice, or
// after the stream closed naturally, changes nothing.
func (m *Manager) Stop() {
	m.mu.Lock()
	handle := m.handle
	if handle != nil && !handle.Closed() {
		m.state = StateCancelling
	}
	m.mu.Unlock()

	if handle != nil {
		handle.Cancel()
	}
}

// Clear stops any active stream and resets the conversation and all
// transient state.
func (m *Manager) Clear() {
	m.Stop()

	m.mu.Lock()
	m.turns = nil
	m.liveIdx = -1
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
}

// run drives one streaming exchange: open, read fragments, clean up.
// All failure modes surface as visible transcript entries, never as silent
// drops; cancellation leaves the partial output exactly as-is.
func (m *Manager) run(ctx context.Context, payload []models.Message) {
	streamCtx, cancel := context.WithCancel(ctx)
	handle := newStreamHandle(cancel)

	m.mu.Lock()
	m.handle = handle
	m.mu.Unlock()

	defer m.finish(handle)

	body, err := m.client.OpenStream(streamCtx, payload)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Setup failures become a visible chat entry, not a silent drop
		m.appendTurn(models.Message{Role: models.RoleAssistant, Content: "Error: " + err.Error()})
		return
	}
	defer func() { _ = body.Close() }()

	m.beginAssistantTurn()

	reader := NewFragmentReader(body)
	for {
		frag, err := reader.Next()
		if frag != "" {
			handle.addBytes(len(frag))
			m.appendFragment(frag)
		}
		if err != nil {
			if err == io.EOF || errors.Is(err, context.Canceled) {
				return
			}
			// Read-time failure: new assistant turn, partial output preserved
			m.appendTurn(models.Message{Role: models.RoleAssistant, Content: "Error: " + err.Error()})
			return
		}
	}
}

// finish is the single idempotent cleanup path for every stream outcome
func (m *Manager) finish(handle *StreamHandle) {
	handle.markClosed()
	handle.Cancel()

	m.mu.Lock()
	if m.handle == handle {
		m.handle = nil
	}
	m.liveIdx = -1
	m.state = StateIdle
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
}

// beginAssistantTurn appends the empty assistant turn fragments accrete onto
func (m *Manager) beginAssistantTurn() {
	m.mu.Lock()
	m.turns = append(m.turns, models.Message{Role: models.RoleAssistant, Content: ""})
	m.liveIdx = len(m.turns) - 1
	if m.state == StateSending {
		m.state = StateStreaming
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
}

// appendFragment grows the live assistant turn; fragments arriving after the
// transcript was cleared are dropped
func (m *Manager) appendFragment(frag string) {
	m.mu.Lock()
	if m.liveIdx < 0 || m.liveIdx >= len(m.turns) {
		m.mu.Unlock()
		return
	}
	m.turns[m.liveIdx].Content += frag
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
}

func (m *Manager) appendTurn(turn models.Message) {
	m.mu.Lock()
	m.turns = append(m.turns, turn)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.render(snapshot)
}

// trimmedPayloadLocked returns the most recent MaxSentTurns turns for the
// outbound request. Caller must hold m.mu.
func (m *Manager) trimmedPayloadLocked() []models.Message {
	start := 0
	if len(m.turns) > MaxSentTurns {
		start = len(m.turns) - MaxSentTurns
	}
	payload := make([]models.Message, len(m.turns)-start)
	copy(payload, m.turns[start:])
	return payload
}

func (m *Manager) snapshotLocked() []models.Message {
	snapshot := make([]models.Message, len(m.turns))
	copy(snapshot, m.turns)
	return snapshot
}

func (m *Manager) render(turns []models.Message) {
	if m.onRender != nil {
		m.onRender(turns)
	}
}
