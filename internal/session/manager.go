package session

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/entrepeneur4lyf/sift/internal/config"
	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
)

// Manager routes inbound RPC calls to their session event loops and
// tears sessions down on terminate.
type Manager struct {
	mu       sync.Mutex
	sessions map[uint64]sessionEntry

	cfg *config.Config
	out *printer.Writer
}

type sessionEntry struct {
	sender chan<- ProviderEvent
	ctx    *Context
}

// NewManager builds a Manager writing to out.
func NewManager(cfg *config.Config, out *printer.Writer) *Manager {
	return &Manager{
		sessions: make(map[uint64]sessionEntry),
		cfg:      cfg,
		out:      out,
	}
}

// HandleCall dispatches one inbound message. Unknown methods are logged
// and ignored.
func (m *Manager) HandleCall(call *rpc.Call) {
	switch call.Method {
	case "initialize_global":
		m.initializeGlobal(call)
	case "new_session", "on_init":
		m.NewSession(call)
	case "on_typed":
		m.Dispatch(call.SessionID, TypedEvent(call))
	case "on_move":
		m.Dispatch(call.SessionID, MoveEvent(call))
	case "terminate_session", "exit":
		m.Terminate(call.SessionID)
	default:
		log.Warn("Unknown rpc method", "method", call.Method)
	}
}

// initializeGlobal lets the front-end override the config defaults that
// apply to every later session.
func (m *Manager) initializeGlobal(call *rpc.Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := call.IntParam("winwidth", 0); w > 0 {
		m.cfg.Winwidth = w
	}
	if n := call.IntParam("number", 0); n > 0 {
		m.cfg.DisplayCap = n
	}
	if rf := call.StringParam("recent_files"); rf != "" {
		m.cfg.RecentFiles = rf
	}
	m.cfg.Debounce = call.BoolParam("debounce", m.cfg.Debounce)
	log.Debug("Global context initialized",
		"winwidth", m.cfg.Winwidth, "number", m.cfg.DisplayCap, "debounce", m.cfg.Debounce)
}

// NewSession instantiates a session for the call's provider, spawns its
// event loop, and dispatches the Create event. A duplicate session id
// is dropped with a warning.
func (m *Manager) NewSession(call *rpc.Call) {
	id := call.SessionID
	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		log.Warn("Dropping duplicate session", "session_id", id)
		return
	}
	ctx := NewContext(call, m.cfg, m.out)
	sess, sender := New(id, NewProvider(ctx))
	m.sessions[id] = sessionEntry{sender: sender, ctx: ctx}
	m.mu.Unlock()

	sess.Start()
	sender <- CreateEvent(call)
}

// Dispatch sends an event to a live session; unknown ids are dropped
// with a warning.
func (m *Manager) Dispatch(id uint64, ev ProviderEvent) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		log.Warn("Dropping event for unknown session", "session_id", id, "event", ev.String())
		return
	}
	select {
	case entry.sender <- ev:
	default:
		log.Warn("Session event channel is full, dropping", "session_id", id, "event", ev.String())
	}
}

// Terminate ends a session and removes it from the routing table.
func (m *Manager) Terminate(id uint64) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		log.Warn("Terminate for unknown session", "session_id", id)
		return
	}
	// Flip the flag first so an in-flight driver unwinds at its next
	// tick even before the loop drains the Terminate event.
	entry.ctx.SetRunning(false)
	entry.sender <- TerminateEvent()
	close(entry.sender)
}
