// Package router is the dispatch hub: it receives canonical events from
// device drivers, resolves the owning player slot, applies the slot's
// profile and pushes the result into the active output mode. There is no
// queue and no retry anywhere on this path. Input is a continuously
// re-sampled stream, so under any failure (saturated slots, not-ready
// output) the correct behavior is to drop the current sample; the next
// poll supersedes it.
package router

import (
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/output"
	"github.com/joypados/adapter/internal/player"
	"github.com/joypados/adapter/internal/profile"
)

// Router wires players, profiles and the active output mode together.
// SubmitInput runs on the polling loop; cross-goroutine producers hand
// events in through a Cell, never by calling it directly. Disconnect
// notifications arrive on transport goroutines, which the internally
// locked slot table absorbs.
type Router struct {
	players  *player.Manager
	profiles *profile.Engine
	modes    *output.Registry
	log      *zap.SugaredLogger
}

// New returns a router over the given collaborators.
func New(players *player.Manager, profiles *profile.Engine, modes *output.Registry, log *zap.SugaredLogger) *Router {
	return &Router{players: players, profiles: profiles, modes: modes, log: log}
}

// SubmitInput dispatches one sample. Returns whether a report went out,
// which only tests and status counters care about; drivers ignore it.
func (r *Router) SubmitInput(ev input.Event) bool {
	ref, ok := r.players.Assign(ev.Source)
	if !ok {
		// Saturation: device stays unassigned until a slot frees.
		return false
	}
	out := r.profiles.Transform(r.players.Profile(ref.Index), ev)

	mode := r.modes.Active()
	if mode == nil || !mode.IsReady() {
		return false
	}
	return mode.SendReport(ref.Index, out)
}

// NotifyDisconnect frees the slot owned by src, fully invalidating
// feedback routing for it before returning, and tells the active mode so
// per-port state reverts. Idempotent.
func (r *Router) NotifyDisconnect(src input.SourceID) {
	index, ok := r.players.Release(src)
	if !ok {
		return
	}
	if mode := r.modes.Active(); mode != nil {
		mode.PlayerDetached(index)
	}
	r.log.Infof("%s disconnected, slot %d freed", src, index)
}

// Players exposes the slot table the router owns, for status surfaces.
func (r *Router) Players() *player.Manager { return r.players }
