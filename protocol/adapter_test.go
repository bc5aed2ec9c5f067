package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvus-bot/corvus/session"
)

func readMessages(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	sc := bufio.NewScanner(strings.NewReader(buf.String()))
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

// Scenario 6 (spec.md §8): rules -> ready, start -> suggest -> suggestion,
// play -> advance without error.
func TestProtocolScenario6(t *testing.T) {
	var out bytes.Buffer
	sess := session.New(session.Config{NumWorkers: 2})
	a := NewAdapter(sess, &out)

	a.handleRules()
	a.handleStart([]byte(`{"type":"start","board":[],"queue":["I","T","O","L","J","S","Z"],"hold":null,"combo":0,"back_to_back":false,"randomizer":{"type":"seven_bag","bag_state":["S","Z","J","L","T","O","I"]}}`))

	time.Sleep(100 * time.Millisecond)
	sess.Stop()
	sess.Wait()

	out.Reset()
	a.handleSuggest()
	msgs := readMessages(t, &out)
	require.Len(t, msgs, 1)
	assert.Equal(t, msgSuggestion, msgs[0]["type"])

	out.Reset()
	a.handlePlay([]byte(`{"type":"play","move":{"location":{"type":"I","x":3,"y":19,"orientation":"north"},"spin":"none"}}`))
	assert.Empty(t, a.lastReply, "committing the play should consume the pending suggestion")
}

func TestHandleRulesRepliesReady(t *testing.T) {
	var out bytes.Buffer
	sess := session.New(session.Config{NumWorkers: 1})
	a := NewAdapter(sess, &out)

	a.handleRules()

	msgs := readMessages(t, &out)
	require.Len(t, msgs, 1)
	assert.Equal(t, msgReady, msgs[0]["type"])
}

func TestUnknownMessageTypeIsIgnored(t *testing.T) {
	var out bytes.Buffer
	sess := session.New(session.Config{NumWorkers: 1})
	a := NewAdapter(sess, &out)

	quit, err := a.dispatch([]byte(`{"type":"something_else"}`))
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.Empty(t, out.String())
}

func TestMalformedMessageIsTolerated(t *testing.T) {
	var out bytes.Buffer
	sess := session.New(session.Config{NumWorkers: 1})
	a := NewAdapter(sess, &out)

	quit, err := a.dispatch([]byte(`not json`))
	assert.NoError(t, err)
	assert.False(t, quit)
}

func TestQuitStopsTheRunLoop(t *testing.T) {
	var out bytes.Buffer
	sess := session.New(session.Config{NumWorkers: 1})
	a := NewAdapter(sess, &out)

	err := a.Run(strings.NewReader(`{"type":"quit"}` + "\n"))
	assert.NoError(t, err)
}

func TestBoardWireDecodesRowZeroAsCeiling(t *testing.T) {
	var bw boardWire
	require.NoError(t, json.Unmarshal([]byte(`[["I",null,null,null,null,null,null,null,null,null]]`), &bw))
	b := bw.decode()
	assert.True(t, b.Occupied(0, 0))
	assert.False(t, b.Occupied(1, 0))
}

func TestStartBodyComboIsOneBasedOnWire(t *testing.T) {
	var body startBody
	require.NoError(t, json.Unmarshal([]byte(`{"board":[],"queue":[],"hold":null,"combo":0,"back_to_back":false,"randomizer":{"type":"seven_bag","bag_state":[]}}`), &body))
	state, _, err := body.decode()
	require.NoError(t, err)
	assert.Equal(t, -1, state.Ren, "wire combo 0 means no combo in progress")
}
