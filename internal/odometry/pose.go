package odometry

import "math"

// Pose is an accumulated SE(2) chassis pose: position (X, Y), heading
// Theta, plus the scalar arc-length S and absolute rotation A accrued
// along the way (both monotonically non-decreasing, unlike Theta which
// wraps).
type Pose struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Theta float32 `json:"theta"`
	S     float32 `json:"s"`
	A     float32 `json:"a"`
}

// Zero is the identity pose.
var Zero = Pose{}

// DeltaPose builds the SE(2) increment produced by moving an arc length
// s while turning through angle a (radians), using the exact chord
// construction for a constant-curvature segment: a straight line when a
// is (numerically) zero, otherwise the chord of the turning circle.
func DeltaPose(s, a float32) Pose {
	theta := a
	absA := float32(math.Abs(float64(a)))
	absS := float32(math.Abs(float64(s)))

	var x, y float32
	if absA < epsilon {
		x, y = s, 0
	} else {
		sinT := float32(math.Sin(float64(theta)))
		cosT := float32(math.Cos(float64(theta)))
		x = sinT * (s / theta)
		y = (1 - cosT) * (s / theta)
	}

	return Pose{X: x, Y: y, Theta: theta, S: absS, A: absA}
}

const epsilon = 1e-6

// Compose chains rhs onto the end of p: rhs is expressed in p's final
// frame, and the result is expressed in p's starting frame. Arc-length
// and absolute rotation accumulate additively; position/heading compose
// as a rigid-body transform.
func (p Pose) Compose(rhs Pose) Pose {
	sinP := float32(math.Sin(float64(p.Theta)))
	cosP := float32(math.Cos(float64(p.Theta)))

	return Pose{
		X:     p.X + cosP*rhs.X - sinP*rhs.Y,
		Y:     p.Y + sinP*rhs.X + cosP*rhs.Y,
		Theta: wrapAngle(p.Theta + rhs.Theta),
		S:     p.S + rhs.S,
		A:     p.A + rhs.A,
	}
}

func wrapAngle(a float32) float32 {
	const twoPi = 2 * math.Pi
	for a > math.Pi {
		a -= twoPi
	}
	for a < -math.Pi {
		a += twoPi
	}
	return a
}
