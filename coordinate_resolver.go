package main

import "math"

type Vec3 struct {
	X, Y, Z float64
}

type Quaternion struct {
	X, Y, Z, W float64
}

const (
	// Equatorial meters per degree of latitude/longitude. The tangent-plane
	// projection below treats the earth as flat around the origin; this is a
	// known approximation, only valid near the origin, not a geodesic.
	metersPerDegree = 111_320.0
	metersPerFoot   = 0.3048
)

// CoordinateResolver converts the simulator's native units (geodetic degrees
// and feet, radian Euler angles with aviation signs) into renderer-native
// position and orientation.
type CoordinateResolver struct {
	OriginLat   float64 // degrees
	OriginLon   float64 // degrees
	OriginAltFt float64 // feet MSL
}

// ResolvePosition returns the renderer-frame position for a snapshot. When
// the snapshot already carries renderer coordinates they pass through
// unchanged; otherwise the geodetic position is projected onto the local
// tangent plane at the configured origin.
func (r CoordinateResolver) ResolvePosition(st *VehicleState) Vec3 {
	if st.Position.HasRender {
		return Vec3{X: st.Position.RenderX, Y: st.Position.RenderY, Z: st.Position.RenderZ}
	}
	return Vec3{
		X: (st.Position.Longitude - r.OriginLon) * metersPerDegree,
		Y: (st.Position.Altitude - r.OriginAltFt) * metersPerFoot,
		Z: (st.Position.Latitude - r.OriginLat) * metersPerDegree,
	}
}

// ResolveOrientation maps the aviation-convention Euler angles into the
// renderer's frame. Pitch and roll invert sign, yaw passes through. Getting
// these signs wrong shows up as inverted control response, so the formula is
// pinned by a regression test.
func (r CoordinateResolver) ResolveOrientation(st *VehicleState) Quaternion {
	rollDeg := st.Orientation.Roll * 180 / math.Pi
	pitchDeg := st.Orientation.Pitch * 180 / math.Pi
	yawDeg := st.Orientation.Yaw * 180 / math.Pi
	return EulerToQuaternion(-pitchDeg, yawDeg, -rollDeg)
}

// EulerToQuaternion builds a rotation from degree Euler angles applied in the
// renderer's Z, then X, then Y order.
func EulerToQuaternion(xDeg, yDeg, zDeg float64) Quaternion {
	hx := xDeg * math.Pi / 360
	hy := yDeg * math.Pi / 360
	hz := zDeg * math.Pi / 360

	sx, cx := math.Sincos(hx)
	sy, cy := math.Sincos(hy)
	sz, cz := math.Sincos(hz)

	return Quaternion{
		X: sx*cy*cz + cx*sy*sz,
		Y: cx*sy*cz - sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}

// AngleBetween returns the angular difference between two rotations in
// degrees.
func AngleBetween(a, b Quaternion) float64 {
	dot := a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
	dot = math.Abs(dot)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot) * 180 / math.Pi
}
