package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *Client) []*Frame {
	t.Helper()
	var out []*Frame
	for {
		select {
		case raw := <-c.Send:
			var f Frame
			require.NoError(t, json.Unmarshal(raw, &f))
			out = append(out, &f)
		default:
			return out
		}
	}
}

func events(frames []*Frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func TestJoinLeaveIdempotent(t *testing.T) {
	r := NewRooms(nil)
	a := NewClient("c-a", "alice", nil, 8)
	r.Register(a)

	r.Join(a, "42")
	r.Join(a, "42")
	assert.Len(t, r.Members("42"), 1)

	r.Leave("c-a", "42")
	r.Leave("c-a", "42") // no-op
	assert.Empty(t, r.Members("42"))
}

func TestBroadcastWithExclusion(t *testing.T) {
	r := NewRooms(nil)
	a := NewClient("c-a", "alice", nil, 8)
	b := NewClient("c-b", "bob", nil, 8)
	r.Register(a)
	r.Register(b)
	r.Join(a, "42")
	r.Join(b, "42")

	r.Broadcast("42", EventTyping, map[string]any{"userId": "alice", "isTyping": true}, a.ConnID)

	assert.Empty(t, drain(t, a))
	got := drain(t, b)
	require.Len(t, got, 1)
	assert.Equal(t, EventTyping, got[0].Event)
	assert.Equal(t, "alice", got[0].Data["userId"])
	assert.Equal(t, true, got[0].Data["isTyping"])
}

func TestBroadcastReachesWholeRoomWithoutExclusion(t *testing.T) {
	r := NewRooms(nil)
	a := NewClient("c-a", "alice", nil, 8)
	b := NewClient("c-b", "bob", nil, 8)
	r.Register(a)
	r.Register(b)
	r.Join(a, "42")
	r.Join(b, "42")

	r.Broadcast("42", EventNewMessage, map[string]any{"content": "hi"}, "")

	for _, c := range []*Client{a, b} {
		got := drain(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, "hi", got[0].Data["content"])
	}
}

func TestLeaveAllRemovesEveryMembership(t *testing.T) {
	r := NewRooms(nil)
	a := NewClient("c-a", "alice", nil, 8)
	r.Register(a)
	r.Join(a, "42")
	r.Join(a, "43")
	require.ElementsMatch(t, []string{"42", "43"}, r.JoinedRooms("c-a"))

	r.LeaveAll("c-a")

	assert.Empty(t, r.JoinedRooms("c-a"))
	r.Broadcast("42", EventNewMessage, map[string]any{"content": "x"}, "")
	r.Broadcast("43", EventNewMessage, map[string]any{"content": "y"}, "")
	r.BroadcastGlobal(EventUserOnline, map[string]any{"userId": "z"})
	assert.Empty(t, drain(t, a))
}

func TestBroadcastGlobalIgnoresRooms(t *testing.T) {
	r := NewRooms(nil)
	a := NewClient("c-a", "alice", nil, 8)
	b := NewClient("c-b", "bob", nil, 8)
	r.Register(a)
	r.Register(b)
	r.Join(a, "42") // b joined nothing

	r.BroadcastGlobal(EventUserOnline, map[string]any{"userId": "carol"})

	for _, c := range []*Client{a, b} {
		got := drain(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, EventUserOnline, got[0].Event)
	}
}

type captureRelay struct {
	convIDs  []string
	payloads [][]byte
}

func (cr *captureRelay) Publish(convID string, payload []byte) error {
	cr.convIDs = append(cr.convIDs, convID)
	cr.payloads = append(cr.payloads, payload)
	return nil
}

func TestBroadcastFeedsRelayAndRemoteDelivery(t *testing.T) {
	relay := &captureRelay{}
	r := NewRooms(relay)
	a := NewClient("c-a", "alice", nil, 8)
	r.Register(a)
	r.Join(a, "42")

	r.Broadcast("42", EventNewMessage, map[string]any{"content": "hi"}, "")
	require.Equal(t, []string{"42"}, relay.convIDs)

	// a remote node replaying the same frame reaches local members
	drain(t, a)
	r.DeliverRemote("42", relay.payloads[0])
	got := drain(t, a)
	require.Len(t, got, 1)
	assert.Equal(t, EventNewMessage, got[0].Event)
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	r := NewRooms(nil)
	a := NewClient("c-a", "alice", nil, 1)
	r.Register(a)
	r.Join(a, "42")

	// queue capacity 1: second frame must be dropped, not block the router
	r.Broadcast("42", EventNewMessage, map[string]any{"n": 1}, "")
	r.Broadcast("42", EventNewMessage, map[string]any{"n": 2}, "")

	got := drain(t, a)
	require.Len(t, got, 1)
}
