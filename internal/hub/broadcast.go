package hub

import (
	"encoding/json"
	"sync/atomic"

	"go.uber.org/zap"
)

// ActiveModeName names the protocol whose reports are being broadcast.
// Satisfied by the output mode registry.
type ActiveModeName interface {
	ActiveName() string
}

// Broadcaster is the hub-backed report sink for output modes: it
// implements the mode-facing writer contract, wrapping each wire report in
// a JSON envelope and fanning it out to the subscribed viewers. With no
// viewer connected the sink reports not-ready and the router drops
// samples, the same way a USB device mode drops reports before the host
// has enumerated it.
type Broadcaster struct {
	hub   *Hub
	modes ActiveModeName
	seq   atomic.Int64
	log   *zap.SugaredLogger
}

func NewBroadcaster(h *Hub, modes ActiveModeName, log *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{hub: h, modes: modes, log: log}
}

// Ready reports whether any consumer is listening.
func (b *Broadcaster) Ready() bool {
	return b.hub.ClientCount() > 0
}

// WriteReport broadcasts one wire report to the player's subscribers.
func (b *Broadcaster) WriteReport(player int, report []byte) bool {
	if !b.Ready() {
		return false
	}
	msg := NewReportMessage(b.seq.Add(1), b.modes.ActiveName(), player, report)
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Errorf("marshal report message: %v", err)
		return false
	}
	b.hub.BroadcastToPlayer(data, player)
	return true
}
