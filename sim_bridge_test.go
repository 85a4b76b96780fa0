package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(transport SimTransport, grace time.Duration) *BridgeService {
	sampler := NewInputSampler(0.5, 1.0, 5.0)
	return NewBridgeService(sampler, transport, NewStateStore(), CoordinateResolver{}, grace, newDiscardLogger())
}

func TestBridgeLifecycle(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)

	assert.Equal(t, BridgeUninitialized, b.State())
	require.NoError(t, b.Start())
	assert.Equal(t, BridgeRunning, b.State())

	b.Stop()
	assert.Equal(t, BridgeClosed, b.State())
	assert.Equal(t, 1, mock.StopCalls())
}

func TestBridgeStartFailureDisables(t *testing.T) {
	mock := &MockTransport{startErr: fmt.Errorf("script not found")}
	b := newTestBridge(mock, time.Second)

	err := b.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script not found")
	assert.Equal(t, BridgeDisabled, b.State(), "failed startup must never reach Running")

	// Disabled is terminal and safe: ticks are no-ops, stop just closes.
	b.Tick(InputState{ThrottleUp: true}, tickDt)
	assert.Empty(t, mock.SentVectors())
	b.Stop()
	assert.Equal(t, BridgeClosed, b.State())
}

func TestBridgeDoubleStart(t *testing.T) {
	b := newTestBridge(&MockTransport{}, time.Second)
	require.NoError(t, b.Start())
	err := b.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already")
}

func TestTickSendsAndPublishes(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	mock.QueueState(sampleVehicleState())
	b.Tick(InputState{ThrottleUp: true}, tickDt)

	require.Len(t, mock.SentVectors(), 1)
	st := b.store.State()
	require.NotNil(t, st)
	assert.Equal(t, "c172p", st.Meta.ModelName)

	// Published controls track the smoothed values just sent.
	assert.Equal(t, mock.SentVectors()[0], b.store.Controls())
}

func TestEngineStartCarriedOnExactlyOneSend(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	b.Tick(InputState{EngineStart: true}, tickDt)
	b.Tick(InputState{EngineStart: true}, tickDt)
	b.Tick(InputState{}, tickDt)

	sent := mock.SentVectors()
	require.Len(t, sent, 3)
	assert.True(t, sent[0].EngineStart, "first send after trigger carries the one-shot")
	assert.False(t, sent[1].EngineStart, "one-shot must not repeat")
	assert.False(t, sent[2].EngineStart)
}

func TestEngineStartSurvivesFailedSends(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	mock.SetSendError(fmt.Errorf("destination unreachable"))
	b.Tick(InputState{EngineStart: true}, tickDt)
	b.Tick(InputState{}, tickDt)
	assert.Empty(t, mock.SentVectors())

	// The channel heals next tick; the very next successful send still
	// carries the flag.
	mock.SetSendError(nil)
	b.Tick(InputState{}, tickDt)
	b.Tick(InputState{}, tickDt)

	sent := mock.SentVectors()
	require.Len(t, sent, 2)
	assert.True(t, sent[0].EngineStart)
	assert.False(t, sent[1].EngineStart)
}

func TestSendFailureDoesNotStopTicking(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	mock.SetSendError(fmt.Errorf("network is down"))
	for i := 0; i < 5; i++ {
		b.Tick(InputState{}, tickDt)
	}
	assert.Equal(t, uint64(5), mock.Stats().SendErrors)

	mock.SetSendError(nil)
	b.Tick(InputState{}, tickDt)
	assert.Equal(t, uint64(1), mock.Stats().MessagesSent)
}

func TestPoseUnavailableUntilFirstSnapshot(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	_, _, ok := b.Pose()
	assert.False(t, ok, "no pose before any snapshot")

	mock.QueueState(sampleVehicleState())
	b.Tick(InputState{}, tickDt)

	pos, orient, ok := b.Pose()
	require.True(t, ok)
	assert.NotEqual(t, Vec3{}, pos)
	assert.NotEqual(t, Quaternion{}, orient)
}

func TestDegradedAfterGracePeriodWithNoData(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, 100*time.Millisecond)
	require.NoError(t, b.Start())

	// Within the grace period: silent but not yet degraded.
	b.Tick(InputState{}, tickDt)
	st := b.Status()
	assert.False(t, st.Degraded)
	assert.False(t, st.Connected)

	time.Sleep(150 * time.Millisecond)
	b.Tick(InputState{}, tickDt)
	b.Tick(InputState{}, tickDt)

	st = b.Status()
	assert.True(t, st.Degraded, "no data after the grace period is a degraded state")
	assert.False(t, st.Connected)
	assert.Zero(t, st.Stats.MessagesReceived)
	assert.GreaterOrEqual(t, st.Stats.MessagesSent, uint64(3), "sends keep going while degraded")
}

func TestConnectedAfterFirstSnapshot(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	mock.QueueState(sampleVehicleState())
	b.Tick(InputState{}, tickDt)

	st := b.Status()
	assert.True(t, st.Connected)
	assert.False(t, st.Degraded)
	assert.Equal(t, uint64(1), st.Stats.MessagesReceived)
	assert.Greater(t, st.LastMessageAge, time.Duration(0))
}

func TestStatusNotDegradedWhenNotRunning(t *testing.T) {
	mock := &MockTransport{startErr: fmt.Errorf("no socket")}
	b := newTestBridge(mock, time.Nanosecond)
	b.Start()

	st := b.Status()
	assert.Equal(t, BridgeDisabled, st.State)
	assert.False(t, st.Degraded, "a bridge that never ran has no channel to degrade")
}

func TestReceiveErrorKeepsPreviousState(t *testing.T) {
	mock := &MockTransport{}
	b := newTestBridge(mock, time.Second)
	require.NoError(t, b.Start())

	mock.QueueState(sampleVehicleState())
	b.Tick(InputState{}, tickDt)
	require.NotNil(t, b.store.State())
	before := b.store.State()

	mock.recvErr = fmt.Errorf("socket closed")
	b.Tick(InputState{}, tickDt)
	assert.Same(t, before, b.store.State(), "a receive fault must not clobber the last snapshot")
}
