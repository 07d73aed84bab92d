// Package rpc implements the line-delimited JSON protocol spoken with
// the editor front-end over stdin/stdout. Inbound messages are calls
// (with an id) or notifications; malformed lines are logged and skipped,
// never fatal.
package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

// Call is one inbound message. ID is zero for notifications. Params is
// kept raw; providers pull what they need through the typed accessors,
// which tolerate absent keys.
type Call struct {
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`

	// SessionID is the routing key; the front-end sends it inside
	// params for every session-scoped method.
	SessionID uint64 `json:"session_id,omitempty"`
}

// StringParam returns params[key] as a string, or "" when absent.
func (c *Call) StringParam(key string) string {
	return gjson.GetBytes(c.Params, key).String()
}

// UintParam returns params[key] as a uint64, or 0 when absent.
func (c *Call) UintParam(key string) uint64 {
	return gjson.GetBytes(c.Params, key).Uint()
}

// IntParam returns params[key] as an int, or def when absent.
func (c *Call) IntParam(key string, def int) int {
	r := gjson.GetBytes(c.Params, key)
	if !r.Exists() {
		return def
	}
	return int(r.Int())
}

// BoolParam returns params[key] as a bool, or def when absent.
func (c *Call) BoolParam(key string, def bool) bool {
	r := gjson.GetBytes(c.Params, key)
	if !r.Exists() {
		return def
	}
	return r.Bool()
}

// Query is a convenience for the most common parameter.
func (c *Call) Query() string { return c.StringParam("query") }

// Loop reads messages off r until EOF, handing each to handle. Parse
// failures are logged and the loop continues; the front-end owns the
// channel lifetime, so only a read error or EOF ends it.
func Loop(r io.Reader, handle func(*Call)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var call Call
		if err := json.Unmarshal(line, &call); err != nil {
			log.Error("Failed to parse rpc message", "err", err)
			continue
		}
		if call.Method == "" {
			log.Warn("Dropping rpc message without method")
			continue
		}
		if call.SessionID == 0 {
			call.SessionID = call.UintParam("session_id")
		}
		handle(&call)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read rpc stream: %w", err)
	}
	return nil
}
