package session

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
)

func newSessionCall(id uint64) *rpc.Call {
	params, _ := json.Marshal(map[string]any{
		"session_id":  id,
		"provider_id": "custom",
		"cwd":         "/tmp",
	})
	return &rpc.Call{ID: 1, Method: "new_session", Params: params, SessionID: id}
}

func newTestManager() *Manager {
	return NewManager(testConfig(), printer.NewWriter(io.Discard))
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := newTestManager()

	m.NewSession(newSessionCall(1))
	m.mu.Lock()
	entry, ok := m.sessions[1]
	m.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, "custom", entry.ctx.ProviderID)
	assert.True(t, entry.ctx.IsRunning())

	m.Terminate(1)
	assert.False(t, entry.ctx.IsRunning())
	m.mu.Lock()
	_, ok = m.sessions[1]
	m.mu.Unlock()
	assert.False(t, ok)
}

func TestManagerDuplicateSessionDropped(t *testing.T) {
	m := newTestManager()
	m.NewSession(newSessionCall(2))
	m.NewSession(newSessionCall(2))
	m.mu.Lock()
	assert.Len(t, m.sessions, 1)
	m.mu.Unlock()
	m.Terminate(2)
}

func TestManagerUnknownTargetsAreDropped(t *testing.T) {
	m := newTestManager()
	// Neither may panic or block.
	m.Dispatch(99, TypedEvent(typedCall(1, "q")))
	m.Terminate(99)
}

func TestManagerHandleCallRouting(t *testing.T) {
	m := newTestManager()

	globalParams, _ := json.Marshal(map[string]any{"winwidth": 62, "number": 30})
	m.HandleCall(&rpc.Call{Method: "initialize_global", Params: globalParams})
	assert.Equal(t, 62, m.cfg.Winwidth)
	assert.Equal(t, 30, m.cfg.DisplayCap)

	m.HandleCall(newSessionCall(3))
	m.mu.Lock()
	entry := m.sessions[3]
	m.mu.Unlock()
	assert.Equal(t, 62, entry.ctx.Winwidth)

	m.HandleCall(&rpc.Call{Method: "unheard_of"}) // logged, ignored

	m.HandleCall(&rpc.Call{Method: "terminate_session", SessionID: 3})
	waitUntil(t, func() bool { return !entry.ctx.IsRunning() })
}

func TestManagerTypedEventReachesSession(t *testing.T) {
	m := newTestManager()
	m.NewSession(newSessionCall(4))

	// The custom provider has no source command; the handler warns and
	// returns nil, which must not tear down the session.
	m.Dispatch(4, TypedEvent(typedCall(2, "query")))
	time.Sleep(20 * time.Millisecond)

	m.mu.Lock()
	_, ok := m.sessions[4]
	m.mu.Unlock()
	assert.True(t, ok)
	m.Terminate(4)
}
