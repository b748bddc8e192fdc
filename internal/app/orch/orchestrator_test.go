package orch

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/core/mocks"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// capture records every frame delivered to one endpoint.
type capture struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *capture) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *capture) Close() {}

type event struct {
	Type string `json:"type"`
	raw  core.Frame
}

func (c *capture) events(t *testing.T) []event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event, 0, len(c.frames))
	for _, f := range c.frames {
		var e event
		require.NoError(t, json.Unmarshal(f, &e))
		e.raw = f
		out = append(out, e)
	}
	return out
}

func (c *capture) types(t *testing.T) []string {
	var out []string
	for _, e := range c.events(t) {
		out = append(out, e.Type)
	}
	return out
}

// last decodes the most recent event of type typ into v.
func (c *capture) last(t *testing.T, typ string, v any) bool {
	t.Helper()
	evs := c.events(t)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == typ {
			require.NoError(t, json.Unmarshal(evs[i].raw, v))
			return true
		}
	}
	return false
}

func (c *capture) count(t *testing.T, typ string) int {
	n := 0
	for _, e := range c.events(t) {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (c *capture) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func newTestOrch() *Orchestrator {
	ice := []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	return New(app.NewRegistry(), app.NewRoomManager(core.DefaultHistoryCapacity), app.SimplePolicy{}, ice)
}

func connect(t *testing.T, o *Orchestrator, id domain.EndpointID) *capture {
	t.Helper()
	c := &capture{}
	require.True(t, o.Registry.Register(id, "client-"+string(id), c, func() {}))
	return c
}

func hostOf(t *testing.T, o *Orchestrator, path domain.RoomPath) domain.EndpointID {
	t.Helper()
	snap, ok := o.Snapshot(path)
	require.True(t, ok, "room %s should exist", path)
	return snap.Host
}

// joinedRoom creates path with host and admits every other id in order.
func joinedRoom(t *testing.T, o *Orchestrator, path domain.RoomPath, host domain.EndpointID, others ...domain.EndpointID) {
	t.Helper()
	o.Join(host, path, string(host))
	for _, id := range others {
		o.Join(id, path, string(id))
		o.Admit(host, id)
	}
	snap, ok := o.Snapshot(path)
	require.True(t, ok)
	require.Len(t, snap.Roster, len(others)+1)
}

func TestMeetingScenario(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")

	o.Join("A", "abc", "alice")
	assert.Equal(t, []string{core.TypeJoined, core.TypeHostGranted, core.TypeRosterUpdate}, a.types(t))
	var joined struct {
		ID         domain.EndpointID `json:"id"`
		Host       bool              `json:"host"`
		ICEServers []struct {
			URLs []string `json:"urls"`
		} `json:"ice_servers"`
	}
	require.True(t, a.last(t, core.TypeJoined, &joined))
	assert.True(t, joined.Host)
	assert.Equal(t, domain.EndpointID("A"), joined.ID)
	require.Len(t, joined.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, joined.ICEServers[0].URLs)
	assert.Equal(t, domain.EndpointID("A"), hostOf(t, o, "abc"))

	o.Join("B", "abc", "bob")
	assert.Equal(t, []string{core.TypeWaiting}, b.types(t))
	var wl core.WaitingListEvent
	require.True(t, a.last(t, core.TypeWaitingListUpdated, &wl))
	assert.Equal(t, []domain.WaitingEntry{{EndpointID: "B", DisplayName: "bob"}}, wl.Waiting)
	require.NotNil(t, wl.Added)
	assert.Equal(t, domain.EndpointID("B"), wl.Added.EndpointID)

	a.reset()
	o.Admit("A", "B")
	snap, _ := o.Snapshot("abc")
	assert.Equal(t, []domain.Member{
		{ID: "A", DisplayName: "alice", IsHost: true},
		{ID: "B", DisplayName: "bob"},
	}, snap.Roster)
	assert.Empty(t, snap.Queue)
	assert.Equal(t, []string{core.TypeWaiting, core.TypeJoined, core.TypeRosterUpdate}, b.types(t))
	assert.Equal(t, []string{core.TypeRosterUpdate, core.TypeWaitingListUpdated}, a.types(t))
	require.True(t, a.last(t, core.TypeWaitingListUpdated, &wl))
	assert.NotNil(t, wl.Waiting)
	assert.Empty(t, wl.Waiting)

	var roster core.RosterEvent
	require.True(t, b.last(t, core.TypeRosterUpdate, &roster))
	assert.Equal(t, domain.EndpointID("B"), roster.Joiner)
	assert.Equal(t, []domain.EndpointID{"A", "B"}, roster.Participants)

	require.NoError(t, o.Chat("A", "", "hi"))
	for _, c := range []*capture{a, b} {
		var chat core.ChatEvent
		require.True(t, c.last(t, core.TypeChat, &chat))
		assert.Equal(t, "hi", chat.Body)
		assert.Equal(t, "alice", chat.Sender)
		assert.Equal(t, domain.EndpointID("A"), chat.SenderID)
		assert.False(t, chat.History)
	}
	snap, _ = o.Snapshot("abc")
	assert.Equal(t, 1, snap.History)

	b.reset()
	o.Disconnect("A")
	assert.Equal(t, []string{core.TypeParticipantLeft, core.TypeHostGranted, core.TypeSystemNotice}, b.types(t))
	var notice core.NoticeEvent
	require.True(t, b.last(t, core.TypeSystemNotice, &notice))
	assert.Equal(t, "bob is now the host.", notice.Text)
	assert.Equal(t, domain.EndpointID("B"), hostOf(t, o, "abc"))

	o.Disconnect("B")
	_, ok := o.Snapshot("abc")
	assert.False(t, ok)
	assert.Equal(t, 0, o.Rooms.Count())
	assert.Equal(t, 0, o.Registry.Count())
}

func TestSecondJoinNeverChangesHost(t *testing.T) {
	o := newTestOrch()
	for _, id := range []domain.EndpointID{"A", "B", "C"} {
		connect(t, o, id)
		o.Join(id, "room", string(id))
	}
	assert.Equal(t, domain.EndpointID("A"), hostOf(t, o, "room"))
	snap, _ := o.Snapshot("room")
	assert.Len(t, snap.Roster, 1)
	assert.Len(t, snap.Queue, 2)
}

func TestJoinSameRoomTwiceIsIgnored(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	o.Join("A", "room", "alice")
	a.reset()

	o.Join("A", "room", "alice")
	assert.Empty(t, a.types(t))
	snap, _ := o.Snapshot("room")
	assert.Len(t, snap.Roster, 1)
}

func TestJoinOtherRoomLeavesCurrent(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	o.Join("A", "one", "alice")
	o.Join("A", "two", "alice")

	assert.False(t, o.Rooms.Exists("one"))
	assert.Equal(t, domain.EndpointID("A"), hostOf(t, o, "two"))
	path, presence, ok := o.Registry.RoomOf("A")
	require.True(t, ok)
	assert.Equal(t, domain.RoomPath("two"), path)
	assert.Equal(t, app.PresenceJoined, presence)
}

func TestJoinUnknownEndpointIsNoop(t *testing.T) {
	o := newTestOrch()
	o.Join("ghost", "room", "casper")
	assert.False(t, o.Rooms.Exists("room"))
}

func TestDisplayNameFallback(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	connect(t, o, "B")
	o.Join("A", "room", "   ")
	o.Join("B", "room", "")
	o.Admit("A", "B")

	snap, _ := o.Snapshot("room")
	for _, m := range snap.Roster {
		assert.Equal(t, domain.DefaultDisplayName, m.DisplayName)
	}

	c := connect(t, o, "C")
	o.Join("C", "room", "carol")
	o.Admit("A", "C")
	o.Disconnect("A")
	var notice core.NoticeEvent
	require.True(t, c.last(t, core.TypeSystemNotice, &notice))
	assert.Equal(t, "Someone is now the host.", notice.Text)
}

func TestBannedNameIsKicked(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	b := connect(t, o, "B")
	joinedRoom(t, o, "room", "A", "B")

	o.Registry.SetDisplayName("B", "bob")
	o.Kick("A", "B")
	var kicked core.RoomEvent
	require.True(t, b.last(t, core.TypeKicked, &kicked))
	assert.Equal(t, domain.RoomPath("room"), kicked.Room)

	// Kick does not evict; the target's client is expected to leave.
	snap, _ := o.Snapshot("room")
	assert.Len(t, snap.Roster, 2)

	c := connect(t, o, "C")
	o.Join("C", "room", "bob")
	assert.Equal(t, []string{core.TypeKicked}, c.types(t))
	_, _, ok := o.Registry.RoomOf("C")
	assert.False(t, ok)

	d := connect(t, o, "D")
	o.Join("D", "room", "bobby")
	assert.Equal(t, []string{core.TypeWaiting}, d.types(t))

	// The ban lives in "room" only.
	e := connect(t, o, "E")
	o.Join("E", "elsewhere", "bob")
	assert.Contains(t, e.types(t), core.TypeJoined)
}

func TestBansDieWithRoom(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	connect(t, o, "B")
	joinedRoom(t, o, "room", "A", "B")
	o.Kick("A", "B")
	o.Disconnect("B")
	o.Disconnect("A")
	require.False(t, o.Rooms.Exists("room"))

	c := connect(t, o, "C")
	o.Join("C", "room", "B")
	assert.Contains(t, c.types(t), core.TypeJoined)
}

func TestBannedJoinKeepsCurrentRoom(t *testing.T) {
	o := newTestOrch()
	x := connect(t, o, "X")
	a := connect(t, o, "A")
	joinedRoom(t, o, "room-a", "X", "A")

	connect(t, o, "H")
	connect(t, o, "Y")
	o.Join("H", "room-b", "hank")
	o.Join("Y", "room-b", "X")
	o.Admit("H", "Y")
	o.Kick("H", "Y")

	a.reset()
	x.reset()
	o.Join("X", "room-b", "X")
	assert.Equal(t, []string{core.TypeKicked}, x.types(t))
	assert.Empty(t, a.types(t))

	snap, ok := o.Snapshot("room-a")
	require.True(t, ok)
	assert.Len(t, snap.Roster, 2)
	assert.Equal(t, domain.EndpointID("X"), snap.Host)
	path, presence, ok := o.Registry.RoomOf("X")
	require.True(t, ok)
	assert.Equal(t, domain.RoomPath("room-a"), path)
	assert.Equal(t, app.PresenceJoined, presence)

	snap, _ = o.Snapshot("room-b")
	assert.Len(t, snap.Roster, 2)
	assert.Empty(t, snap.Queue)
}

func TestBannedRejoinOfSameRoomIsKicked(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "H")
	x := connect(t, o, "X")
	joinedRoom(t, o, "room", "H", "X")
	o.Kick("H", "X")

	x.reset()
	o.Join("X", "room", "X")
	var kicked core.RoomEvent
	require.True(t, x.last(t, core.TypeKicked, &kicked))
	assert.Equal(t, []string{core.TypeKicked}, x.types(t))
	assert.Equal(t, domain.RoomPath("room"), kicked.Room)

	snap, _ := o.Snapshot("room")
	assert.Len(t, snap.Roster, 2)
	assert.Equal(t, domain.EndpointID("H"), snap.Host)
}

func TestKickAndMuteFromNonHostStillApply(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	connect(t, o, "B")
	joinedRoom(t, o, "room", "A", "B")

	o.Mute("B", "A")
	assert.Equal(t, 1, a.count(t, core.TypeMutedByHost))

	o.Kick("B", "A")
	assert.Equal(t, 1, a.count(t, core.TypeKicked))

	c := connect(t, o, "C")
	o.Join("C", "room", "A")
	assert.Equal(t, []string{core.TypeKicked}, c.types(t))
}

func TestKickUnknownTargetIsNoop(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	o.Join("A", "room", "alice")
	o.Kick("A", "ghost")
	o.Mute("A", "ghost")
	assert.Equal(t, domain.EndpointID("A"), hostOf(t, o, "room"))
}

func TestRelay(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	b := connect(t, o, "B")
	c := connect(t, o, "C")

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1"}`)
	require.True(t, o.Relay("A", "B", payload))

	var got core.SignalEvent
	require.True(t, b.last(t, core.TypeSignal, &got))
	assert.Equal(t, domain.EndpointID("A"), got.From)
	assert.Equal(t, string(payload), string(got.Payload))
	assert.Empty(t, c.types(t))

	assert.False(t, o.Relay("A", "gone", payload))
	assert.False(t, o.Relay("ghost", "B", payload))
	assert.False(t, o.Relay("A", "B", nil))
	assert.Equal(t, 1, b.count(t, core.TypeSignal))
	assert.Empty(t, c.types(t))
}

func TestRelayToSelf(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")

	payload := json.RawMessage(`{"candidate":"candidate:1 1 udp 1 127.0.0.1 9 typ host"}`)
	require.True(t, o.Relay("A", "A", payload))
	var got core.SignalEvent
	require.True(t, a.last(t, core.TypeSignal, &got))
	assert.Equal(t, domain.EndpointID("A"), got.From)
	assert.Equal(t, string(payload), string(got.Payload))
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name       string
		admitter   domain.EndpointID
		target     domain.EndpointID
		wantJoined bool
	}{
		{name: "host admits waiting", admitter: "A", target: "B", wantJoined: true},
		{name: "non host ignored", admitter: "C", target: "B"},
		{name: "waiting endpoint cannot admit itself", admitter: "B", target: "B"},
		{name: "unknown target ignored", admitter: "A", target: "ghost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrch()
			connect(t, o, "A")
			b := connect(t, o, "B")
			connect(t, o, "C")
			joinedRoom(t, o, "room", "A", "C")
			o.Join("B", "room", "bob")

			o.Admit(tt.admitter, tt.target)
			assert.Equal(t, tt.wantJoined, b.count(t, core.TypeJoined) == 1)
			snap, _ := o.Snapshot("room")
			if tt.wantJoined {
				assert.Empty(t, snap.Queue)
			} else {
				assert.Len(t, snap.Queue, 1)
			}
		})
	}
}

func TestAdmitTwiceIsIdempotent(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	o.Join("A", "room", "alice")
	o.Join("B", "room", "bob")

	o.Admit("A", "B")
	before := len(a.types(t))
	o.Admit("A", "B")

	assert.Equal(t, 1, b.count(t, core.TypeJoined))
	assert.Len(t, a.types(t), before)
	snap, _ := o.Snapshot("room")
	assert.Len(t, snap.Roster, 2)
}

func TestHostSuccession(t *testing.T) {
	tests := []struct {
		name     string
		leaving  []domain.EndpointID
		wantHost domain.EndpointID
	}{
		{name: "host leaves", leaving: []domain.EndpointID{"A"}, wantHost: "B"},
		{name: "non host leaves", leaving: []domain.EndpointID{"B"}, wantHost: "A"},
		{name: "host then successor leave", leaving: []domain.EndpointID{"A", "B"}, wantHost: "C"},
		{name: "middle then host leave", leaving: []domain.EndpointID{"B", "A"}, wantHost: "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrch()
			for _, id := range []domain.EndpointID{"A", "B", "C"} {
				connect(t, o, id)
			}
			joinedRoom(t, o, "room", "A", "B", "C")
			for _, id := range tt.leaving {
				o.Disconnect(id)
			}
			assert.Equal(t, tt.wantHost, hostOf(t, o, "room"))
		})
	}
}

func TestNewHostReceivesWaitingList(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	b := connect(t, o, "B")
	connect(t, o, "W")
	joinedRoom(t, o, "room", "A", "B")
	o.Join("W", "room", "walt")

	b.reset()
	o.Disconnect("A")
	var wl core.WaitingListEvent
	require.True(t, b.last(t, core.TypeWaitingListUpdated, &wl))
	assert.Equal(t, []domain.WaitingEntry{{EndpointID: "W", DisplayName: "walt"}}, wl.Waiting)

	o.Admit("B", "W")
	snap, _ := o.Snapshot("room")
	assert.Len(t, snap.Roster, 2)
}

func TestWaitingEndpointDisconnects(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	connect(t, o, "B")
	o.Join("A", "room", "alice")
	o.Join("B", "room", "bob")

	a.reset()
	o.Disconnect("B")
	var wl core.WaitingListEvent
	require.True(t, a.last(t, core.TypeWaitingListUpdated, &wl))
	assert.Empty(t, wl.Waiting)
	assert.Zero(t, a.count(t, core.TypeParticipantLeft))

	snap, _ := o.Snapshot("room")
	assert.Empty(t, snap.Queue)
}

func TestRoomDeletedWhileWaiting(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	b := connect(t, o, "B")
	o.Join("A", "room", "alice")
	o.Join("B", "room", "bob")

	o.Disconnect("A")
	assert.False(t, o.Rooms.Exists("room"))
	assert.Equal(t, 1, b.count(t, core.TypeSystemNotice))
	_, _, ok := o.Registry.RoomOf("B")
	assert.False(t, ok)

	o.Join("B", "room", "bob")
	assert.Equal(t, domain.EndpointID("B"), hostOf(t, o, "room"))
}

func TestLeaveKeepsEndpoint(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	b := connect(t, o, "B")
	joinedRoom(t, o, "room", "A", "B")

	o.Leave("A")
	assert.True(t, o.Registry.Known("A"))
	_, _, ok := o.Registry.RoomOf("A")
	assert.False(t, ok)
	assert.Equal(t, 1, b.count(t, core.TypeParticipantLeft))
	assert.Equal(t, domain.EndpointID("B"), hostOf(t, o, "room"))

	o.Leave("A")
	assert.Equal(t, 1, b.count(t, core.TypeParticipantLeft))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	b := connect(t, o, "B")
	joinedRoom(t, o, "room", "A", "B")

	o.Disconnect("A")
	o.Disconnect("A")
	assert.Equal(t, 1, b.count(t, core.TypeParticipantLeft))
	assert.Equal(t, 1, b.count(t, core.TypeSystemNotice))
}

func TestChatHistoryReplayAndIsolation(t *testing.T) {
	o := newTestOrch()
	connect(t, o, "A")
	x := connect(t, o, "X")
	o.Join("A", "one", "alice")
	o.Join("X", "two", "xavier")

	require.NoError(t, o.Chat("A", "", "first"))
	require.NoError(t, o.Chat("A", "Alice B.", "second"))
	assert.Zero(t, x.count(t, core.TypeChat))

	late := connect(t, o, "L")
	o.Join("L", "one", "late")
	o.Admit("A", "L")

	var replay []core.ChatEvent
	for _, e := range late.events(t) {
		if e.Type != core.TypeChat {
			continue
		}
		var ev core.ChatEvent
		require.NoError(t, json.Unmarshal(e.raw, &ev))
		replay = append(replay, ev)
	}
	require.Len(t, replay, 2)
	assert.Equal(t, "first", replay[0].Body)
	assert.Equal(t, "alice", replay[0].Sender)
	assert.Equal(t, "second", replay[1].Body)
	assert.Equal(t, "Alice B.", replay[1].Sender)
	for _, ev := range replay {
		assert.True(t, ev.History)
	}

	// Replay comes after the roster.
	types := late.types(t)
	assert.Equal(t, core.TypeRosterUpdate, types[len(types)-3])
}

func TestChatValidation(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	o.Join("A", "room", "alice")
	a.reset()

	assert.NoError(t, o.Chat("A", "", "   "))
	assert.ErrorIs(t, o.Chat("A", "", string(make([]byte, MaxChatBodyLen+1))), ErrChatTooLong)
	assert.Empty(t, a.types(t))
	snap, _ := o.Snapshot("room")
	assert.Zero(t, snap.History, "blank bodies are not stored")

	// Waiting and unknown endpoints cannot chat.
	w := connect(t, o, "W")
	o.Join("W", "room", "walt")
	assert.NoError(t, o.Chat("W", "", "let me in"))
	assert.NoError(t, o.Chat("ghost", "", "boo"))
	assert.Zero(t, a.count(t, core.TypeChat))
	assert.Zero(t, w.count(t, core.TypeChat))
}

func TestEphemeralEventsSkipSender(t *testing.T) {
	o := newTestOrch()
	a := connect(t, o, "A")
	b := connect(t, o, "B")
	joinedRoom(t, o, "room", "A", "B")
	a.reset()
	b.reset()

	o.RaiseHand("A", "")
	o.Reaction("A", "👍", "")
	o.Caption("A", "hello there", "alice")
	o.ReportMuteStatus("A", true)

	assert.Empty(t, a.types(t))
	assert.Equal(t, []string{core.TypeRaiseHand, core.TypeReaction, core.TypeCaption, core.TypeMuteStatusChanged}, b.types(t))

	var hand core.RaiseHandEvent
	require.True(t, b.last(t, core.TypeRaiseHand, &hand))
	assert.Equal(t, domain.EndpointID("A"), hand.From)
	assert.Equal(t, "A", hand.Name)

	var reaction core.ReactionEvent
	require.True(t, b.last(t, core.TypeReaction, &reaction))
	assert.Equal(t, "👍", reaction.Emoji)

	var mute core.MuteStatusEvent
	require.True(t, b.last(t, core.TypeMuteStatusChanged, &mute))
	assert.True(t, mute.Muted)
	st, _ := o.Registry.Get("A")
	assert.True(t, st.Muted)
}

func TestBackpressureDisconnects(t *testing.T) {
	ctrl := gomock.NewController(t)
	o := newTestOrch()

	slow := mocks.NewMockSignalConnection(ctrl)
	slow.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure).AnyTimes()

	canceled := false
	require.True(t, o.Registry.Register("S", "client", slow, func() { canceled = true }))
	o.Join("S", "room", "slow")

	assert.True(t, canceled)
	// Membership is untouched until the adapter runs Disconnect.
	assert.Equal(t, domain.EndpointID("S"), hostOf(t, o, "room"))
	o.Disconnect("S")
	assert.False(t, o.Rooms.Exists("room"))
}

func TestClosedConnectionIsTolerated(t *testing.T) {
	ctrl := gomock.NewController(t)
	o := newTestOrch()

	closed := mocks.NewMockSignalConnection(ctrl)
	closed.EXPECT().TrySend(gomock.Any()).Return(core.ErrConnectionClosed).AnyTimes()

	canceled := false
	require.True(t, o.Registry.Register("C", "client", closed, func() { canceled = true }))
	o.Join("C", "room", "closed")
	assert.False(t, canceled)
}

func TestConcurrentJoinLeaveKeepsSingleHost(t *testing.T) {
	o := newTestOrch()
	const n = 32
	ids := make([]domain.EndpointID, n)
	for i := range ids {
		ids[i] = domain.EndpointID(fmt.Sprintf("E%02d", i))
		connect(t, o, ids[i])
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Join(id, "busy", string(id))
			if i%2 == 0 {
				o.Disconnect(id)
			}
		}()
	}
	wg.Wait()

	snap, ok := o.Snapshot("busy")
	if !ok {
		return
	}
	hosts := 0
	for _, m := range snap.Roster {
		if m.IsHost {
			hosts++
			assert.Equal(t, snap.Host, m.ID)
		}
	}
	assert.Equal(t, 1, hosts)
	for _, w := range snap.Queue {
		_, presence, ok := o.Registry.RoomOf(w.EndpointID)
		require.True(t, ok)
		assert.Equal(t, app.PresenceWaiting, presence)
	}
}
