package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrepeneur4lyf/sift/internal/config"
	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
)

// testDebounceDelay keeps the debounce tests fast; the production value
// comes from config.
const testDebounceDelay = 50 * time.Millisecond

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DebounceDelay = testDebounceDelay
	return cfg
}

func testContext(providerID string, debounce bool, out io.Writer) *Context {
	if out == nil {
		out = io.Discard
	}
	ctx := &Context{
		ProviderID: providerID,
		Cwd:        "/tmp",
		Winwidth:   80,
		DisplayCap: 10,
		Debounce:   debounce,
		Cfg:        testConfig(),
		Out:        printer.NewWriter(out),
	}
	ctx.running.Store(true)
	return ctx
}

type fakeProvider struct {
	ctx *Context

	mu        sync.Mutex
	typed     []string
	moves     int
	initCount int

	initScale SourceScale
	initErr   error
}

func (p *fakeProvider) Context() *Context { return p.ctx }

func (p *fakeProvider) Initialize(ctx context.Context) (SourceScale, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initCount++
	return p.initScale, p.initErr
}

func (p *fakeProvider) OnTyped(call *rpc.Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed = append(p.typed, call.Query())
	return nil
}

func (p *fakeProvider) OnMove(call *rpc.Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moves++
	return nil
}

func (p *fakeProvider) typedQueries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.typed...)
}

func typedCall(id uint64, query string) *rpc.Call {
	return &rpc.Call{ID: id, Method: "on_typed", Params: json.RawMessage(fmt.Sprintf(`{"query":%q}`, query))}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	provider := &fakeProvider{ctx: testContext("test", true, nil)}
	sess, sender := New(1, provider)
	sess.Start()

	// Three keystrokes inside one debounce window.
	sender <- TypedEvent(typedCall(1, "a"))
	sender <- TypedEvent(typedCall(2, "ab"))
	sender <- TypedEvent(typedCall(3, "abc"))

	time.Sleep(4 * testDebounceDelay)
	assert.Equal(t, []string{"abc"}, provider.typedQueries())

	sender <- TerminateEvent()
}

func TestDebounceFiresAgainAfterPause(t *testing.T) {
	provider := &fakeProvider{ctx: testContext("test", true, nil)}
	sess, sender := New(2, provider)
	sess.Start()

	sender <- TypedEvent(typedCall(1, "first"))
	time.Sleep(3 * testDebounceDelay)
	sender <- TypedEvent(typedCall(2, "second"))
	time.Sleep(3 * testDebounceDelay)

	assert.Equal(t, []string{"first", "second"}, provider.typedQueries())
	sender <- TerminateEvent()
}

func TestDebouncedCreateAndMoveRunInline(t *testing.T) {
	provider := &fakeProvider{
		ctx:       testContext("test", true, nil),
		initScale: SourceScale{Kind: ScaleIndefinite},
	}
	sess, sender := New(3, provider)
	sess.Start()

	sender <- CreateEvent(&rpc.Call{Method: "new_session"})
	sender <- MoveEvent(&rpc.Call{ID: 9, Method: "on_move"})

	waitUntil(t, func() bool {
		provider.mu.Lock()
		defer provider.mu.Unlock()
		return provider.initCount == 1 && provider.moves == 1
	})
	// Neither went through the debounce slot.
	assert.Empty(t, provider.typedQueries())
	sender <- TerminateEvent()
}

func TestWithoutDebounceEveryKeystrokeFires(t *testing.T) {
	provider := &fakeProvider{ctx: testContext("test", false, nil)}
	sess, sender := New(4, provider)
	sess.Start()

	sender <- TypedEvent(typedCall(1, "a"))
	sender <- TypedEvent(typedCall(2, "ab"))
	sender <- TypedEvent(typedCall(3, "abc"))

	waitUntil(t, func() bool { return len(provider.typedQueries()) == 3 })
	assert.Equal(t, []string{"a", "ab", "abc"}, provider.typedQueries())
	sender <- TerminateEvent()
}

func TestTerminateIsTerminal(t *testing.T) {
	provider := &fakeProvider{ctx: testContext("test", false, nil)}
	sess, sender := New(5, provider)
	sess.Start()

	sender <- TerminateEvent()
	waitUntil(t, func() bool { return !provider.ctx.IsRunning() })

	// The loop has returned; later events are never handled.
	sender <- TypedEvent(typedCall(1, "late"))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, provider.typedQueries())
}

func TestCreateEmitsTotalAndInitialDisplay(t *testing.T) {
	var buf lockedBuffer
	provider := &fakeProvider{
		ctx: testContext("test", false, &buf),
		initScale: SourceScale{
			Kind:  ScaleSmall,
			Total: 2,
			Lines: []string{"one", "two"},
		},
	}
	sess, sender := New(6, provider)
	sess.Start()

	sender <- CreateEvent(&rpc.Call{Method: "new_session"})
	waitUntil(t, func() bool { return provider.ctx.Scale().Kind == ScaleSmall })

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var total map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &total))
	assert.Equal(t, "s:set_total_size", total["method"])
	assert.Equal(t, float64(2), total["total"])

	var display map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &display))
	assert.Equal(t, "s:init_display", display["method"])

	sender <- TerminateEvent()
}

func TestCreateTimeoutOfPlainProviderIsSilent(t *testing.T) {
	var buf lockedBuffer
	provider := &fakeProvider{
		ctx:     testContext("test", false, &buf),
		initErr: context.DeadlineExceeded,
	}
	sess, sender := New(7, provider)
	sess.Start()

	sender <- CreateEvent(&rpc.Call{Method: "new_session"})
	waitUntil(t, func() bool {
		provider.mu.Lock()
		defer provider.mu.Unlock()
		return provider.initCount == 1
	})

	// No scale, no output; the first keystroke takes the regular path.
	assert.Equal(t, ScaleIndefinite, provider.ctx.Scale().Kind)
	assert.Empty(t, strings.TrimSpace(buf.String()))
	sender <- TerminateEvent()
}

func TestSourceScale(t *testing.T) {
	small := SourceScale{Kind: ScaleSmall, Total: 3, Lines: []string{"a", "b", "c"}}
	total, ok := small.TotalSize()
	require.True(t, ok)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []string{"a", "b"}, small.InitialLines(2))

	_, ok = SourceScale{Kind: ScaleIndefinite}.TotalSize()
	assert.False(t, ok)
	assert.Nil(t, SourceScale{Kind: ScaleLarge, Total: 9}.InitialLines(5))
}

// lockedBuffer guards a bytes.Buffer against the session goroutine
// writing while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
