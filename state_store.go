package main

import "sync"

// StateStore is the shared snapshot of simulated vehicle state plus the live
// smoothed control vector. It is pure storage: the transport's receive path
// is the only writer of vehicle state, and snapshots are swapped wholesale so
// readers can never see fields from two different snapshots.
type StateStore struct {
	mu       sync.RWMutex
	state    *VehicleState
	controls ControlVector
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

// Replace swaps in a new snapshot. The caller must not mutate st afterwards.
func (s *StateStore) Replace(st *VehicleState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the latest snapshot, or nil if nothing has arrived yet.
func (s *StateStore) State() *VehicleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *StateStore) SetControls(c ControlVector) {
	s.mu.Lock()
	s.controls = c
	s.mu.Unlock()
}

func (s *StateStore) Controls() ControlVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls
}
