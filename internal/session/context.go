package session

import (
	"sync"
	"sync/atomic"

	"github.com/entrepeneur4lyf/sift/internal/config"
	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
)

// ScaleKind classifies a provider's size estimate.
type ScaleKind uint8

const (
	// ScaleIndefinite means the provider cannot estimate its size.
	ScaleIndefinite ScaleKind = iota
	// ScaleSmall carries the full candidate set in memory.
	ScaleSmall
	// ScaleLarge knows the total but keeps the data external.
	ScaleLarge
	// ScaleCache points at a pre-built on-disk candidate file.
	ScaleCache
)

// SourceScale is the size estimate produced by a provider's
// initialization step.
type SourceScale struct {
	Kind      ScaleKind
	Total     uint64
	Lines     []string
	CachePath string
}

// TotalSize returns the known candidate count, if any.
func (s SourceScale) TotalSize() (uint64, bool) {
	switch s.Kind {
	case ScaleSmall, ScaleLarge, ScaleCache:
		return s.Total, true
	}
	return 0, false
}

// InitialLines returns up to n lines to pre-populate the display, which
// only the Small scale can provide.
func (s SourceScale) InitialLines(n int) []string {
	if s.Kind != ScaleSmall || len(s.Lines) == 0 {
		return nil
	}
	if len(s.Lines) > n {
		return s.Lines[:n]
	}
	return s.Lines
}

// Context is the per-session configuration. Everything is immutable
// after creation except the running flag and the source-scale slot.
type Context struct {
	ProviderID string
	Cwd        string
	SourceFile string
	SourceCmd  string
	Winwidth   int
	DisplayCap int
	Icon       printer.Icon
	Debounce   bool

	Cfg *config.Config
	Out *printer.Writer

	running atomic.Bool

	mu    sync.Mutex
	scale SourceScale
}

// NewContext builds a session context from the new_session call
// parameters, falling back to config defaults for anything the
// front-end left out. The running flag starts true.
func NewContext(call *rpc.Call, cfg *config.Config, out *printer.Writer) *Context {
	ctx := &Context{
		ProviderID: call.StringParam("provider_id"),
		Cwd:        call.StringParam("cwd"),
		SourceFile: call.StringParam("source_fpath"),
		SourceCmd:  call.StringParam("source_cmd"),
		Winwidth:   call.IntParam("winwidth", cfg.Winwidth),
		DisplayCap: call.IntParam("number", cfg.DisplayCap),
		Icon:       printer.ParseIcon(call.StringParam("icon")),
		Debounce:   call.BoolParam("debounce", cfg.Debounce),
		Cfg:        cfg,
		Out:        out,
	}
	ctx.running.Store(true)
	return ctx
}

// IsRunning reports whether the session is live.
func (c *Context) IsRunning() bool { return c.running.Load() }

// SetRunning flips the running flag.
func (c *Context) SetRunning(v bool) { c.running.Store(v) }

// RunningFlag exposes the flag for sharing with filter drivers.
func (c *Context) RunningFlag() *atomic.Bool { return &c.running }

// SetScale stores the provider's size estimate.
func (c *Context) SetScale(s SourceScale) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scale = s
}

// Scale returns the stored size estimate.
func (c *Context) Scale() SourceScale {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}
