package main

import "time"

// ControlVector is one tick's worth of pilot input, normalized to the ranges
// JSBSim expects for its command properties. EngineStart is a one-shot flag:
// it rides on exactly one outbound datagram and is re-armed only by a new
// trigger press.
type ControlVector struct {
	Throttle    float64 `json:"throttle"` // [0, 1]
	Aileron     float64 `json:"aileron"`  // [-1, 1], right wing down positive
	Elevator    float64 `json:"elevator"` // [-1, 1], nose up positive
	Rudder      float64 `json:"rudder"`   // [-1, 1], clockwise from above positive
	EngineStart bool    `json:"engine_start"`
}

// VehicleState is one telemetry snapshot from the simulator. Snapshots are
// replaced wholesale, never mutated field by field, so a reader can never
// observe a torn pose.
type VehicleState struct {
	Position        PositionState
	Orientation     OrientationState
	Velocity        VelocityState
	AngularVelocity AngularVelocityState
	Engine          EngineState
	Meta            VehicleMeta
}

type PositionState struct {
	Latitude  float64 // degrees
	Longitude float64 // degrees
	Altitude  float64 // feet MSL

	// Renderer-native coordinates, populated when the simulator has done the
	// conversion upstream. HasRender distinguishes "absent" from zero.
	RenderX, RenderY, RenderZ float64
	HasRender                 bool
}

// OrientationState holds Euler angles in radians under the aviation
// convention: roll right-positive, pitch nose-up-positive, yaw clockwise
// from north.
type OrientationState struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

type VelocityState struct {
	U, V, W  float64 // body-frame, ft/s
	Airspeed float64 // knots
}

type AngularVelocityState struct {
	P, Q, R float64 // rad/s
}

type EngineState struct {
	RPM    float64
	Thrust float64
}

type VehicleMeta struct {
	ModelName    string
	IsRotorcraft bool
}

// ChannelStats counts traffic on the datagram link. Counters only increase;
// MessagesReceived increments only when a datagram parses into a snapshot.
type ChannelStats struct {
	MessagesSent     uint64
	MessagesReceived uint64
	SendErrors       uint64
	ParseErrors      uint64
}

// SimTransport abstracts the lossy datagram link to the flight-dynamics
// process. TryReceive returns (nil, nil) when no snapshot is available within
// the receive window; that is the expected steady state, not an error.
type SimTransport interface {
	Start() error
	Stop() error
	SendControls(ControlVector) error
	TryReceive() (*VehicleState, error)
	Stats() ChannelStats
	LastReceived() time.Time
	SimRunning() bool
	Name() string
}
