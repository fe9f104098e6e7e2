// Package player owns the logical player slot table: which physical device
// is which player. Slots are a small fixed array with a generation counter
// per slot, so a feedback reference computed before a slot was freed and
// reused is detected as stale instead of reaching the wrong device.
package player

import (
	"sync"

	"github.com/joypados/adapter/internal/input"
)

// MaxSlots is the number of logical player positions.
const MaxSlots = 4

// State of one slot.
type State uint8

const (
	Empty State = iota
	Assigned
)

// Ref points at one slot at one point in its lifecycle. A Ref taken before
// the slot was released never resolves again.
type Ref struct {
	Index      int
	Generation uint32
}

type slot struct {
	state      State
	owner      input.SourceID
	profileID  int
	generation uint32
}

// Manager is the slot table. Internally locked: assignment runs on the
// polling loop, but disconnect notifications arrive on transport
// goroutines and snapshots on the HTTP surface.
type Manager struct {
	mu    sync.RWMutex
	slots [MaxSlots]slot
}

// NewManager returns a table of empty slots.
func NewManager() *Manager {
	return &Manager{}
}

// Assign returns the slot owning src, assigning the first empty slot by
// increasing index if src has none yet. Returns ok=false when every slot
// belongs to another device (saturation): the caller drops the event and
// the device stays unassigned until a slot frees.
func (m *Manager) Assign(src input.SourceID) (Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref, ok := m.lookup(src); ok {
		return ref, true
	}
	for i := range m.slots {
		if m.slots[i].state == Empty {
			m.slots[i].state = Assigned
			m.slots[i].owner = src
			return Ref{Index: i, Generation: m.slots[i].generation}, true
		}
	}
	return Ref{}, false
}

// Lookup finds the slot currently owned by src.
func (m *Manager) Lookup(src input.SourceID) (Ref, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookup(src)
}

func (m *Manager) lookup(src input.SourceID) (Ref, bool) {
	for i := range m.slots {
		if m.slots[i].state == Assigned && m.slots[i].owner == src {
			return Ref{Index: i, Generation: m.slots[i].generation}, true
		}
	}
	return Ref{}, false
}

// Release frees the slot owned by src and advances its generation, killing
// every outstanding Ref to it. Returns the freed slot index. Idempotent:
// releasing an absent source is a no-op.
func (m *Manager) Release(src input.SourceID) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if m.slots[i].state == Assigned && m.slots[i].owner == src {
			m.slots[i].state = Empty
			m.slots[i].owner = input.SourceID{}
			m.slots[i].generation++
			return i, true
		}
	}
	return 0, false
}

// Owner resolves a Ref back to its device, failing for empty slots and
// stale generations.
func (m *Manager) Owner(ref Ref) (input.SourceID, bool) {
	if ref.Index < 0 || ref.Index >= MaxSlots {
		return input.SourceID{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &m.slots[ref.Index]
	if s.state != Assigned || s.generation != ref.Generation {
		return input.SourceID{}, false
	}
	return s.owner, true
}

// At returns the current Ref for a slot index, if assigned. Output modes
// address players by bare index; this pins that index to the current
// occupant before feedback is routed.
func (m *Manager) At(index int) (Ref, bool) {
	if index < 0 || index >= MaxSlots {
		return Ref{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &m.slots[index]
	if s.state != Assigned {
		return Ref{}, false
	}
	return Ref{Index: index, Generation: s.generation}, true
}

// SetProfile selects the profile for one slot. The selection survives
// assign/release cycles: it belongs to the player position, not the device.
func (m *Manager) SetProfile(index, profileID int) {
	if index < 0 || index >= MaxSlots {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[index].profileID = profileID
}

// Profile returns the profile selected for a slot index.
func (m *Manager) Profile(index int) int {
	if index < 0 || index >= MaxSlots {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[index].profileID
}

// Count returns how many slots are assigned.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for i := range m.slots {
		if m.slots[i].state == Assigned {
			n++
		}
	}
	return n
}

// SlotInfo is a read-only view of one slot for status surfaces.
type SlotInfo struct {
	Index     int            `json:"index"`
	Assigned  bool           `json:"assigned"`
	Owner     string         `json:"owner,omitempty"`
	Source    input.SourceID `json:"-"`
	ProfileID int            `json:"profileId"`
}

// Snapshot returns the current slot table for status reporting.
func (m *Manager) Snapshot() []SlotInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SlotInfo, MaxSlots)
	for i := range m.slots {
		out[i] = SlotInfo{
			Index:     i,
			Assigned:  m.slots[i].state == Assigned,
			ProfileID: m.slots[i].profileID,
		}
		if out[i].Assigned {
			out[i].Owner = m.slots[i].owner.String()
			out[i].Source = m.slots[i].owner
		}
	}
	return out
}
