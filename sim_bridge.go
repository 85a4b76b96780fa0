package main

import (
	"fmt"
	"sync"
	"time"
)

type BridgeState int

const (
	BridgeUninitialized BridgeState = iota
	BridgeStarting
	BridgeRunning
	BridgeShuttingDown
	BridgeClosed
	// BridgeDisabled is terminal: a startup step failed and the bridge never
	// entered Running. The consumer sees it through Status rather than a
	// crash.
	BridgeDisabled
)

func (s BridgeState) String() string {
	switch s {
	case BridgeUninitialized:
		return "uninitialized"
	case BridgeStarting:
		return "starting"
	case BridgeRunning:
		return "running"
	case BridgeShuttingDown:
		return "shutting-down"
	case BridgeClosed:
		return "closed"
	case BridgeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// BridgeStatus is the pollable health view of the bridge.
type BridgeStatus struct {
	State            BridgeState
	Connected        bool
	Degraded         bool
	SimulatorRunning bool
	LastMessageAge   time.Duration // zero until the first snapshot arrives
	Stats            ChannelStats
}

const staleAfter = 10 * time.Second

// BridgeService supervises the transport lifecycle and drives one
// sample->send->receive pass per render tick. Nothing in Tick blocks longer
// than the transport's bounded receive window, and no transport fault ever
// propagates out of it.
type BridgeService struct {
	sampler   *InputSampler
	transport SimTransport
	store     *StateStore
	resolver  CoordinateResolver
	logger    *Logger

	gracePeriod time.Duration

	mu        sync.Mutex
	state     BridgeState
	startedAt time.Time
}

func NewBridgeService(sampler *InputSampler, transport SimTransport, store *StateStore, resolver CoordinateResolver, gracePeriod time.Duration, logger *Logger) *BridgeService {
	return &BridgeService{
		sampler:     sampler,
		transport:   transport,
		store:       store,
		resolver:    resolver,
		gracePeriod: gracePeriod,
		logger:      logger,
		state:       BridgeUninitialized,
	}
}

// Start opens the transport and moves the bridge to Running. Any failure
// parks the bridge in the terminal Disabled state.
func (b *BridgeService) Start() error {
	b.mu.Lock()
	if b.state != BridgeUninitialized {
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("bridge already %s", state)
	}
	b.state = BridgeStarting
	b.mu.Unlock()

	if err := b.transport.Start(); err != nil {
		b.mu.Lock()
		b.state = BridgeDisabled
		b.mu.Unlock()
		b.logger.Error("bridge start failed", "error", err)
		return fmt.Errorf("start transport: %w", err)
	}

	b.mu.Lock()
	b.state = BridgeRunning
	b.startedAt = time.Now()
	b.mu.Unlock()
	b.logger.Info("bridge running", "transport", b.transport.Name())
	return nil
}

// Tick runs one render tick: sample controls, send, attempt one receive,
// publish. dt is the elapsed time since the previous tick in seconds.
func (b *BridgeService) Tick(in InputState, dt float64) {
	if b.State() != BridgeRunning {
		return
	}

	vec := b.sampler.Sample(in, dt)
	b.store.SetControls(vec)

	if err := b.transport.SendControls(vec); err != nil {
		// Soft failure: next tick retries with fresh data.
		b.logger.Debug("send failed", "error", err)
	} else if vec.EngineStart {
		b.sampler.ConfirmEngineStart()
		b.logger.Info("engine start sent")
	}

	st, err := b.transport.TryReceive()
	if err != nil {
		b.logger.Debug("receive failed", "error", err)
		return
	}
	if st != nil {
		b.store.Replace(st)
	}
}

// Pose resolves the latest snapshot into renderer position and orientation.
// ok is false until the first snapshot has arrived.
func (b *BridgeService) Pose() (pos Vec3, orient Quaternion, ok bool) {
	st := b.store.State()
	if st == nil {
		return Vec3{}, Quaternion{}, false
	}
	return b.resolver.ResolvePosition(st), b.resolver.ResolveOrientation(st), true
}

// State returns the current lifecycle state.
func (b *BridgeService) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status reports channel health. The bridge is degraded when nothing has
// been received after the configured grace period, or when the last snapshot
// has gone stale.
func (b *BridgeService) Status() BridgeStatus {
	b.mu.Lock()
	state := b.state
	startedAt := b.startedAt
	b.mu.Unlock()

	stats := b.transport.Stats()
	last := b.transport.LastReceived()

	status := BridgeStatus{
		State:            state,
		SimulatorRunning: b.transport.SimRunning(),
		Stats:            stats,
	}
	if !last.IsZero() {
		status.LastMessageAge = time.Since(last)
	}

	switch {
	case state != BridgeRunning:
		// Not connected, not degraded: there is no channel to degrade.
	case stats.MessagesReceived == 0:
		status.Degraded = time.Since(startedAt) > b.gracePeriod
	case status.LastMessageAge > staleAfter:
		status.Degraded = true
	default:
		status.Connected = true
	}
	return status
}

// Stop tears the bridge down. Teardown is all best-effort; the bridge always
// reaches Closed.
func (b *BridgeService) Stop() {
	b.mu.Lock()
	if b.state != BridgeRunning && b.state != BridgeStarting {
		b.state = BridgeClosed
		b.mu.Unlock()
		return
	}
	b.state = BridgeShuttingDown
	b.mu.Unlock()

	if err := b.transport.Stop(); err != nil {
		b.logger.Warn("transport stop", "error", err)
	}

	b.mu.Lock()
	b.state = BridgeClosed
	b.mu.Unlock()
	b.logger.Info("bridge closed")
}
