// Package feedback routes host-side state (rumble, LEDs) from the active
// output mode back to the physical device occupying a player slot. Routing
// is best effort by contract: an empty slot, a stale slot generation, or a
// driver without feedback support all degrade to a silent no-op, never an
// error on the output path.
package feedback

import (
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/player"
)

// Request is one feedback state change from the host.
type Request struct {
	RumbleLeft  uint8 `json:"rumbleLeft"`
	RumbleRight uint8 `json:"rumbleRight"`
	LEDRed      uint8 `json:"ledR"`
	LEDGreen    uint8 `json:"ledG"`
	LEDBlue     uint8 `json:"ledB"`
	HasLED      bool  `json:"hasLed"`
	PlayerLED   uint8 `json:"playerLed"` // 1-based player indicator, 0 = unchanged
}

// Sink is the feedback capability of a device driver. ApplyFeedback is a
// non-blocking hand-off: the driver latches the desired state and its own
// task transmits it to hardware.
type Sink interface {
	ApplyFeedback(src input.SourceID, req Request)
}

// SinkResolver finds the feedback sink for an attached device, if its
// driver has one.
type SinkResolver interface {
	FeedbackSink(src input.SourceID) (Sink, bool)
}

// Manager resolves player references back to originating devices.
type Manager struct {
	players  *player.Manager
	resolver SinkResolver
	log      *zap.SugaredLogger
}

// NewManager wires the feedback path.
func NewManager(players *player.Manager, resolver SinkResolver, log *zap.SugaredLogger) *Manager {
	return &Manager{players: players, resolver: resolver, log: log}
}

// Dispatch forwards req to the device owning ref. Refs carry the slot
// generation, so feedback computed before a disconnect can never reach the
// slot's next occupant.
func (m *Manager) Dispatch(ref player.Ref, req Request) {
	src, ok := m.players.Owner(ref)
	if !ok {
		return
	}
	sink, ok := m.resolver.FeedbackSink(src)
	if !ok {
		return
	}
	m.log.Debugf("feedback -> player %d (%s): rumble %d/%d", ref.Index, src, req.RumbleLeft, req.RumbleRight)
	sink.ApplyFeedback(src, req)
}

// DispatchIndex forwards req to whichever device currently occupies a bare
// player index. Output modes only know indices; pinning the index to the
// current generation here keeps the stale-reuse guarantee.
func (m *Manager) DispatchIndex(index int, req Request) {
	ref, ok := m.players.At(index)
	if !ok {
		return
	}
	m.Dispatch(ref, req)
}
