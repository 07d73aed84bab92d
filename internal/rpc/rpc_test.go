package rpc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDispatchesCalls(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"method":"on_typed","params":{"query":"abc","session_id":7}}`,
		``,
		`this is not json`,
		`{"no_method_here":true}`,
		`{"method":"on_move","session_id":7}`,
	}, "\n")

	var got []*Call
	err := Loop(strings.NewReader(input), func(c *Call) {
		got = append(got, c)
	})
	require.NoError(t, err)

	// Garbage and method-less messages are skipped, not fatal.
	require.Len(t, got, 2)
	assert.Equal(t, "on_typed", got[0].Method)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, "abc", got[0].Query())
	assert.Equal(t, uint64(7), got[0].SessionID)
	assert.Equal(t, "on_move", got[1].Method)
	assert.Equal(t, uint64(7), got[1].SessionID)
}

func TestParamAccessors(t *testing.T) {
	call := &Call{Params: json.RawMessage(`{
		"query": "hello",
		"winwidth": 90,
		"debounce": false,
		"session_id": 3
	}`)}

	assert.Equal(t, "hello", call.StringParam("query"))
	assert.Equal(t, "", call.StringParam("missing"))
	assert.Equal(t, 90, call.IntParam("winwidth", 10))
	assert.Equal(t, 10, call.IntParam("missing", 10))
	assert.False(t, call.BoolParam("debounce", true))
	assert.True(t, call.BoolParam("missing", true))
	assert.Equal(t, uint64(3), call.UintParam("session_id"))
}

func TestSessionIDFallsBackToParams(t *testing.T) {
	input := `{"method":"on_typed","params":{"session_id":42}}`
	var got *Call
	err := Loop(strings.NewReader(input), func(c *Call) { got = c })
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(42), got.SessionID)
}
