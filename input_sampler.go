package main

import "sync"

// InputState is the raw held-control snapshot the front end hands the sampler
// each tick.
type InputState struct {
	ThrottleUp   bool
	ThrottleDown bool
	RollLeft     bool
	RollRight    bool
	PitchUp      bool
	PitchDown    bool
	YawLeft      bool
	YawRight     bool
	EngineStart  bool
}

// InputSampler turns per-tick input snapshots into a bounded ControlVector.
// Throttle integrates over time; the attitude axes are level-set while held
// and snap back to zero on release. A low-pass smoothing pass filters the
// live values toward the sampled targets, with throttle spooling at half the
// rate of the control surfaces.
type InputSampler struct {
	mu sync.Mutex

	throttleRate  float64 // throttle units per second while held
	sensitivity   float64 // attitude deflection while held
	smoothingGain float64 // per-second exponential approach rate

	target ControlVector
	live   ControlVector

	engineStartArmed bool
	prevTrigger      bool

	rollHeld  bool
	pitchHeld bool
	yawHeld   bool
}

func NewInputSampler(throttleRate, sensitivity, smoothingGain float64) *InputSampler {
	return &InputSampler{
		throttleRate:  throttleRate,
		sensitivity:   sensitivity,
		smoothingGain: smoothingGain,
	}
}

// Sample ingests one tick of input, advances the smoothing filter by dt
// seconds and returns the control vector to put on the wire. The returned
// EngineStart stays true until ConfirmEngineStart is called, so the one-shot
// survives failed send attempts.
func (s *InputSampler) Sample(in InputState, dt float64) ControlVector {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ThrottleUp {
		s.target.Throttle += s.throttleRate * dt
	}
	if in.ThrottleDown {
		s.target.Throttle -= s.throttleRate * dt
	}
	s.target.Throttle = clamp(s.target.Throttle, 0, 1)

	// Attitude axes are level-set while held and snap to zero on release.
	// The release edge matters: a setter override must survive idle input.
	s.target.Aileron, s.rollHeld = s.levelSet(in.RollRight, in.RollLeft, s.rollHeld, s.target.Aileron)
	s.target.Elevator, s.pitchHeld = s.levelSet(in.PitchUp, in.PitchDown, s.pitchHeld, s.target.Elevator)
	s.target.Rudder, s.yawHeld = s.levelSet(in.YawRight, in.YawLeft, s.yawHeld, s.target.Rudder)

	// Rising edge arms the one-shot.
	if in.EngineStart && !s.prevTrigger {
		s.engineStartArmed = true
	}
	s.prevTrigger = in.EngineStart

	s.smooth(dt)

	out := s.live
	out.EngineStart = s.engineStartArmed
	return out
}

// ConfirmEngineStart clears the one-shot after the transport has carried it
// on a successful send.
func (s *InputSampler) ConfirmEngineStart() {
	s.mu.Lock()
	s.engineStartArmed = false
	s.mu.Unlock()
}

// Target returns the raw sampled targets before smoothing.
func (s *InputSampler) Target() ControlVector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Live returns the smoothed control values from the last Sample call.
func (s *InputSampler) Live() ControlVector {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.live
	out.EngineStart = s.engineStartArmed
	return out
}

// SetThrottle overrides the throttle target programmatically, clamped the
// same way keyboard input is.
func (s *InputSampler) SetThrottle(v float64) {
	s.mu.Lock()
	s.target.Throttle = clamp(v, 0, 1)
	s.mu.Unlock()
}

func (s *InputSampler) SetAileron(v float64) {
	s.mu.Lock()
	s.target.Aileron = clamp(v, -1, 1)
	s.mu.Unlock()
}

func (s *InputSampler) SetElevator(v float64) {
	s.mu.Lock()
	s.target.Elevator = clamp(v, -1, 1)
	s.mu.Unlock()
}

func (s *InputSampler) SetRudder(v float64) {
	s.mu.Lock()
	s.target.Rudder = clamp(v, -1, 1)
	s.mu.Unlock()
}

// Reset zeroes every target axis. The live values drain toward zero through
// the smoothing filter on subsequent ticks.
func (s *InputSampler) Reset() {
	s.mu.Lock()
	s.target = ControlVector{}
	s.mu.Unlock()
}

// smooth advances the exponential approach of live toward target. Must be
// called with mu held.
func (s *InputSampler) smooth(dt float64) {
	alpha := clamp(s.smoothingGain*dt, 0, 1)
	alphaThrottle := clamp(s.smoothingGain*dt*0.5, 0, 1)

	s.live.Throttle += (s.target.Throttle - s.live.Throttle) * alphaThrottle
	s.live.Aileron += (s.target.Aileron - s.live.Aileron) * alpha
	s.live.Elevator += (s.target.Elevator - s.live.Elevator) * alpha
	s.live.Rudder += (s.target.Rudder - s.live.Rudder) * alpha
}

// levelSet returns the new target and held flag for one attitude axis. Must
// be called with mu held.
func (s *InputSampler) levelSet(positive, negative, wasHeld bool, current float64) (float64, bool) {
	switch {
	case positive && !negative:
		return clamp(s.sensitivity, -1, 1), true
	case negative && !positive:
		return clamp(-s.sensitivity, -1, 1), true
	case wasHeld:
		return 0, false
	default:
		return current, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
