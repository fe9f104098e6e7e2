package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/player"
)

type recordedFeedback struct {
	src input.SourceID
	req Request
}

type fakeResolver struct {
	sinks    map[input.SourceID]*fakeSink
	resolved int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{sinks: make(map[input.SourceID]*fakeSink)}
}

func (r *fakeResolver) add(src input.SourceID) *fakeSink {
	s := &fakeSink{}
	r.sinks[src] = s
	return s
}

func (r *fakeResolver) FeedbackSink(src input.SourceID) (Sink, bool) {
	r.resolved++
	s, ok := r.sinks[src]
	return s, ok
}

type fakeSink struct {
	applied []recordedFeedback
}

func (s *fakeSink) ApplyFeedback(src input.SourceID, req Request) {
	s.applied = append(s.applied, recordedFeedback{src: src, req: req})
}

func src(addr uint16) input.SourceID {
	return input.SourceID{Transport: input.TransportWiFi, Address: addr}
}

func TestDispatchReachesOwningDevice(t *testing.T) {
	players := player.NewManager()
	resolver := newFakeResolver()
	sink := resolver.add(src(1))
	m := NewManager(players, resolver, zap.NewNop().Sugar())

	ref, ok := players.Assign(src(1))
	require.True(t, ok)

	req := Request{RumbleLeft: 200, RumbleRight: 50}
	m.Dispatch(ref, req)

	require.Len(t, sink.applied, 1)
	assert.Equal(t, src(1), sink.applied[0].src)
	assert.Equal(t, req, sink.applied[0].req)
}

func TestDispatchEmptySlotIsNoop(t *testing.T) {
	players := player.NewManager()
	resolver := newFakeResolver()
	m := NewManager(players, resolver, zap.NewNop().Sugar())

	m.Dispatch(player.Ref{Index: 0}, Request{RumbleLeft: 255})
	m.DispatchIndex(2, Request{RumbleLeft: 255})

	assert.Zero(t, resolver.resolved, "no device should even be looked up")
}

func TestDispatchNoCapabilityIsNoop(t *testing.T) {
	players := player.NewManager()
	resolver := newFakeResolver() // nothing registered: driver has no sink
	m := NewManager(players, resolver, zap.NewNop().Sugar())

	ref, ok := players.Assign(src(1))
	require.True(t, ok)

	m.Dispatch(ref, Request{RumbleLeft: 255})
	assert.Equal(t, 1, resolver.resolved)
}

func TestStaleRefDroppedAfterSlotReuse(t *testing.T) {
	players := player.NewManager()
	resolver := newFakeResolver()
	oldSink := resolver.add(src(1))
	newSink := resolver.add(src(2))
	m := NewManager(players, resolver, zap.NewNop().Sugar())

	staleRef, ok := players.Assign(src(1))
	require.True(t, ok)

	players.Release(src(1))
	fresh, ok := players.Assign(src(2))
	require.True(t, ok)
	require.Equal(t, staleRef.Index, fresh.Index, "slot must be reused for the scenario to mean anything")

	m.Dispatch(staleRef, Request{RumbleLeft: 255})
	assert.Empty(t, oldSink.applied)
	assert.Empty(t, newSink.applied, "stale feedback must not leak to the new occupant")

	m.Dispatch(fresh, Request{RumbleLeft: 10})
	require.Len(t, newSink.applied, 1)
	assert.Equal(t, uint8(10), newSink.applied[0].req.RumbleLeft)
}

func TestDispatchIndexTargetsCurrentOccupant(t *testing.T) {
	players := player.NewManager()
	resolver := newFakeResolver()
	sink := resolver.add(src(9))
	m := NewManager(players, resolver, zap.NewNop().Sugar())

	_, ok := players.Assign(src(9))
	require.True(t, ok)

	m.DispatchIndex(0, Request{HasLED: true, LEDRed: 255})
	require.Len(t, sink.applied, 1)
	assert.True(t, sink.applied[0].req.HasLED)
}
