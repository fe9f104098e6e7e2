package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/output"
	"github.com/joypados/adapter/internal/player"
	"github.com/joypados/adapter/internal/profile"
)

type sentReport struct {
	player int
	ev     input.OutputEvent
}

// fakeMode records what the router pushes into it.
type fakeMode struct {
	name     string
	ready    bool
	sent     []sentReport
	detached []int
}

func (m *fakeMode) Name() string  { return m.name }
func (m *fakeMode) Init()         {}
func (m *fakeMode) IsReady() bool { return m.ready }
func (m *fakeMode) SendReport(player int, ev input.OutputEvent) bool {
	m.sent = append(m.sent, sentReport{player: player, ev: ev})
	return true
}
func (m *fakeMode) HandleOutput(player int, data []byte) {}
func (m *fakeMode) PlayerDetached(player int) {
	m.detached = append(m.detached, player)
}

func newTestRouter(t *testing.T) (*Router, *fakeMode, *player.Manager) {
	t.Helper()
	log := zap.NewNop().Sugar()
	players := player.NewManager()
	modes := output.NewRegistry(log)
	mode := &fakeMode{name: "fake", ready: true}
	modes.Register(mode)
	return New(players, profile.NewEngine(), modes, log), mode, players
}

func deviceEvent(addr uint16) input.Event {
	ev := input.NewEvent(input.SourceID{Transport: input.TransportUSBHost, Address: addr}, input.KindGamepad)
	ev.Buttons = input.Bit(input.ButtonB1)
	return ev
}

func TestSubmitInputAssignsAndDispatches(t *testing.T) {
	rt, mode, _ := newTestRouter(t)

	assert.True(t, rt.SubmitInput(deviceEvent(1)))
	assert.True(t, rt.SubmitInput(deviceEvent(2)))
	assert.True(t, rt.SubmitInput(deviceEvent(1)))

	require.Len(t, mode.sent, 3)
	assert.Equal(t, 0, mode.sent[0].player)
	assert.Equal(t, 1, mode.sent[1].player)
	assert.Equal(t, 0, mode.sent[2].player, "repeat device keeps its slot")
	assert.Equal(t, input.Bit(input.ButtonB1), mode.sent[0].ev.Buttons)
}

func TestSubmitInputDropsWhenSaturated(t *testing.T) {
	rt, mode, _ := newTestRouter(t)

	for i := 0; i < player.MaxSlots; i++ {
		require.True(t, rt.SubmitInput(deviceEvent(uint16(i+1))))
	}
	mode.sent = nil

	assert.False(t, rt.SubmitInput(deviceEvent(99)))
	assert.Empty(t, mode.sent)

	// Existing players keep flowing while the newcomer is dropped.
	assert.True(t, rt.SubmitInput(deviceEvent(1)))
}

func TestSubmitInputDropsWhenModeNotReady(t *testing.T) {
	rt, mode, players := newTestRouter(t)
	mode.ready = false

	assert.False(t, rt.SubmitInput(deviceEvent(1)))
	assert.Empty(t, mode.sent)

	// The slot is still claimed; only the report is dropped.
	assert.Equal(t, 1, players.Count())
}

func TestSubmitInputAppliesSlotProfile(t *testing.T) {
	log := zap.NewNop().Sugar()
	players := player.NewManager()
	engine := profile.NewEngine()

	p := profile.Default()
	p.Name = "b1-to-b2"
	p.ButtonMap[input.ButtonB1] = uint8(input.ButtonB2) + 1
	c, err := profile.Compile(p)
	require.NoError(t, err)
	engine.Load([]*profile.Compiled{c})

	modes := output.NewRegistry(log)
	mode := &fakeMode{name: "fake", ready: true}
	modes.Register(mode)
	rt := New(players, engine, modes, log)

	players.SetProfile(0, 1)

	require.True(t, rt.SubmitInput(deviceEvent(1)))
	require.Len(t, mode.sent, 1)
	assert.Equal(t, input.Bit(input.ButtonB2), mode.sent[0].ev.Buttons)
}

func TestDisconnectFreesSlotForReuse(t *testing.T) {
	rt, mode, players := newTestRouter(t)

	require.True(t, rt.SubmitInput(deviceEvent(1)))
	staleRef, ok := players.At(0)
	require.True(t, ok)

	rt.NotifyDisconnect(deviceEvent(1).Source)
	assert.Equal(t, 0, players.Count())
	assert.Equal(t, []int{0}, mode.detached, "active mode learns which slot freed")

	// Double notification is harmless and does not re-notify the mode.
	rt.NotifyDisconnect(deviceEvent(1).Source)
	assert.Len(t, mode.detached, 1)

	require.True(t, rt.SubmitInput(deviceEvent(2)))
	require.Len(t, mode.sent, 2)
	assert.Equal(t, 0, mode.sent[1].player, "freed slot is reused by the next device")

	_, ok = players.Owner(staleRef)
	assert.False(t, ok, "references from before the disconnect are dead")
}

func TestCellLatestWins(t *testing.T) {
	var c Cell

	_, ok := c.Take()
	assert.False(t, ok)

	ev1 := deviceEvent(1)
	ev2 := deviceEvent(1)
	ev2.Buttons = input.Bit(input.ButtonB4)

	c.Put(ev1)
	c.Put(ev2)

	got, ok := c.Take()
	require.True(t, ok)
	assert.Equal(t, ev2.Buttons, got.Buttons, "overwrite keeps only the newest sample")

	_, ok = c.Take()
	assert.False(t, ok, "take empties the cell")
}

func TestIntakeDrain(t *testing.T) {
	rt, mode, _ := newTestRouter(t)
	in := NewIntake()

	c1 := in.NewCell()
	c2 := in.NewCell()

	c1.Put(deviceEvent(1))
	c2.Put(deviceEvent(2))

	in.Drain(rt)
	require.Len(t, mode.sent, 2)
	assert.Equal(t, 0, mode.sent[0].player)
	assert.Equal(t, 1, mode.sent[1].player)

	// Nothing pending: drain is a no-op.
	in.Drain(rt)
	assert.Len(t, mode.sent, 2)

	// Removed cells no longer feed the router.
	in.Remove(c1)
	c1.Put(deviceEvent(1))
	in.Drain(rt)
	assert.Len(t, mode.sent, 2)
}
