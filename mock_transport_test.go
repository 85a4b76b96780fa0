package main

import (
	"sync"
	"time"
)

// MockTransport implements SimTransport for use in tests. Snapshots queued
// with QueueState are returned by TryReceive one per call; an empty queue
// behaves like a receive timeout.
type MockTransport struct {
	mu sync.Mutex

	startErr error
	sendErr  error
	recvErr  error

	started    bool
	stopCalls  int
	simRunning bool

	sent         []ControlVector
	inbound      []*VehicleState
	stats        ChannelStats
	lastReceived time.Time
}

func (m *MockTransport) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	m.simRunning = true
	return nil
}

func (m *MockTransport) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.started = false
	m.simRunning = false
	return nil
}

func (m *MockTransport) SendControls(v ControlVector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		m.stats.SendErrors++
		return m.sendErr
	}
	m.sent = append(m.sent, v)
	m.stats.MessagesSent++
	return nil
}

func (m *MockTransport) TryReceive() (*VehicleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recvErr != nil {
		return nil, m.recvErr
	}
	if len(m.inbound) == 0 {
		return nil, nil
	}
	st := m.inbound[0]
	m.inbound = m.inbound[1:]
	m.stats.MessagesReceived++
	m.lastReceived = time.Now()
	return st, nil
}

func (m *MockTransport) Stats() ChannelStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *MockTransport) LastReceived() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReceived
}

func (m *MockTransport) SimRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.simRunning
}

func (m *MockTransport) Name() string { return "MockTransport" }

func (m *MockTransport) QueueState(st *VehicleState) {
	m.mu.Lock()
	m.inbound = append(m.inbound, st)
	m.mu.Unlock()
}

func (m *MockTransport) SetSendError(err error) {
	m.mu.Lock()
	m.sendErr = err
	m.mu.Unlock()
}

func (m *MockTransport) SentVectors() []ControlVector {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ControlVector, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockTransport) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// sampleVehicleState returns a snapshot with realistic values.
func sampleVehicleState() *VehicleState {
	return &VehicleState{
		Position: PositionState{
			Latitude:  37.618805,
			Longitude: -122.375416,
			Altitude:  150,
		},
		Orientation:     OrientationState{Roll: 0.05, Pitch: 0.1, Yaw: 1.2},
		Velocity:        VelocityState{U: 120, V: 0, W: 4, Airspeed: 72},
		AngularVelocity: AngularVelocityState{P: 0.01, Q: 0.002, R: 0.0},
		Engine:          EngineState{RPM: 2400, Thrust: 320},
		Meta:            VehicleMeta{ModelName: "c172p"},
	}
}
