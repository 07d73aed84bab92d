// Package session runs one event-loop task per live picker instance,
// demultiplexing the front-end's Create/OnTyped/OnMove/Terminate events
// with optional keystroke debouncing, and owns the process-wide
// singleton background-job registry.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/entrepeneur4lyf/sift/internal/cache"
	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
)

type eventKind uint8

const (
	evCreate eventKind = iota
	evTyped
	evMove
	evTerminate
)

// ProviderEvent is one inbound session event. Cheap to copy.
type ProviderEvent struct {
	kind eventKind
	Call *rpc.Call
}

// CreateEvent wraps the session-creating call.
func CreateEvent(call *rpc.Call) ProviderEvent { return ProviderEvent{kind: evCreate, Call: call} }

// TypedEvent wraps a keystroke notification.
func TypedEvent(call *rpc.Call) ProviderEvent { return ProviderEvent{kind: evTyped, Call: call} }

// MoveEvent wraps a cursor-move notification.
func MoveEvent(call *rpc.Call) ProviderEvent { return ProviderEvent{kind: evMove, Call: call} }

// TerminateEvent ends the session.
func TerminateEvent() ProviderEvent { return ProviderEvent{kind: evTerminate} }

func (e ProviderEvent) String() string {
	switch e.kind {
	case evCreate:
		return "Create"
	case evTerminate:
		return "Terminate"
	case evMove:
		return fmt.Sprintf("OnMove, msg_id: %d", e.Call.ID)
	default:
		return fmt.Sprintf("OnTyped, msg_id: %d", e.Call.ID)
	}
}

const (
	// neverDelay parks the debounce timer when no keystroke is pending;
	// a far-future deadline keeps the select arms structurally
	// identical with and without a pending message.
	neverDelay = 365 * 24 * time.Hour
)

// Session is one live picker instance. Exactly one goroutine runs its
// event loop; handlers execute strictly serially within it.
type Session struct {
	ID       uint64
	provider Provider
	events   chan ProviderEvent
}

// New builds a session around a provider and returns the sender half of
// its event channel.
func New(id uint64, provider Provider) (*Session, chan<- ProviderEvent) {
	events := make(chan ProviderEvent, 64)
	return &Session{ID: id, provider: provider, events: events}, events
}

// Start spawns the session's event loop.
func (s *Session) Start() {
	go s.run()
}

func (s *Session) run() {
	ctx := s.provider.Context()
	log.Debug("Spawning a new session task",
		"session_id", s.ID, "provider_id", ctx.ProviderID, "debounce", ctx.Debounce)
	if ctx.Debounce {
		s.runWithDebounce(ctx.Cfg.DebounceDelay)
	} else {
		s.runWithoutDebounce()
	}
}

// runWithDebounce coalesces OnTyped bursts: every keystroke overwrites
// the single pending slot and rearms the timer, so only the most recent
// payload fires once the typist pauses. Create and OnMove run inline.
func (s *Session) runWithDebounce(delay time.Duration) {
	timer := time.NewTimer(neverDelay)
	defer timer.Stop()

	var pending *rpc.Call

	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			log.Debug("Received an event", "session_id", s.ID, "event", ev.String())
			switch ev.kind {
			case evTerminate:
				s.handleTerminate()
				return
			case evCreate:
				s.onCreate(ev.Call)
			case evMove:
				if err := s.provider.OnMove(ev.Call); err != nil {
					log.Error("Error processing OnMove", "session_id", s.ID, "err", err)
				}
			case evTyped:
				pending = ev.Call
				resetTimer(timer, delay)
			}
		case <-timer.C:
			if pending == nil {
				timer.Reset(neverDelay)
				continue
			}
			msg := pending
			pending = nil
			timer.Reset(neverDelay)
			if err := s.provider.OnTyped(msg); err != nil {
				log.Error("Error processing OnTyped", "session_id", s.ID, "err", err)
			}
		}
	}
}

// runWithoutDebounce drains events in order; each handler completes
// before the next event is pulled.
func (s *Session) runWithoutDebounce() {
	for ev := range s.events {
		log.Debug("Received an event", "session_id", s.ID, "event", ev.String())
		switch ev.kind {
		case evTerminate:
			s.handleTerminate()
			return
		case evCreate:
			s.onCreate(ev.Call)
		case evMove:
			if err := s.provider.OnMove(ev.Call); err != nil {
				log.Error("Error processing OnMove", "session_id", s.ID, "err", err)
			}
		case evTyped:
			if err := s.provider.OnTyped(ev.Call); err != nil {
				log.Error("Error processing OnTyped", "session_id", s.ID, "err", err)
			}
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// handleTerminate flips the running flag so any filter driver still
// streaming observes it at its next tick and unwinds.
func (s *Session) handleTerminate() {
	ctx := s.provider.Context()
	ctx.SetRunning(false)
	log.Debug("Session terminated", "session_id", s.ID, "provider_id", ctx.ProviderID)
}

// onCreate awaits the provider's initialization under the configured
// cap. A slow grep-family provider falls back to a singleton background
// job that warms the on-disk ripgrep cache; everything else falls
// through to the regular OnTyped path on the first keystroke.
func (s *Session) onCreate(call *rpc.Call) {
	ctx := s.provider.Context()

	initCtx, cancel := context.WithTimeout(context.Background(), ctx.Cfg.InitTimeout)
	defer cancel()

	scale, err := s.provider.Initialize(initCtx)
	switch {
	case err == nil:
		s.processSourceScale(scale)
	case errors.Is(err, context.DeadlineExceeded):
		log.Debug("Did not initialize in time", "session_id", s.ID, "timeout", ctx.Cfg.InitTimeout)
		switch ctx.ProviderID {
		case "grep", "live_grep":
			rg := cache.NewRgCommand(ctx.Cwd)
			SpawnSingletonJob(rg.ID(), func() {
				if _, _, err := rg.CreateCache(context.Background()); err != nil {
					log.Error("Ripgrep cache warm-up failed", "cwd", rg.Dir, "err", err)
				}
			})
		}
	default:
		log.Error("Error occurred on creating session", "session_id", s.ID, "err", err)
	}
}

func (s *Session) processSourceScale(scale SourceScale) {
	ctx := s.provider.Context()
	if total, ok := scale.TotalSize(); ok {
		if err := ctx.Out.Notify("s:set_total_size", map[string]any{"total": total}); err != nil {
			log.Error("Failed to send total size", "session_id", s.ID, "err", err)
		}
	}
	if lines := scale.InitialLines(ctx.DisplayCap); len(lines) > 0 {
		d := printer.DecorateRaw(lines, ctx.Winwidth, ctx.Icon)
		if err := ctx.Out.Notify("s:init_display", map[string]any{
			"lines":      d.Lines,
			"icon_added": d.IconAdded,
		}); err != nil {
			log.Error("Failed to send initial display", "session_id", s.ID, "err", err)
		}
	}
	ctx.SetScale(scale)
}
