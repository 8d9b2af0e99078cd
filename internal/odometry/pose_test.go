package odometry

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestDeltaPoseStraightLine(t *testing.T) {
	p := DeltaPose(1.0, 0)
	if !approxEqual(p.X, 1.0, 1e-5) || !approxEqual(p.Y, 0, 1e-5) {
		t.Fatalf("straight-line delta = (%f,%f), want (1,0)", p.X, p.Y)
	}
}

func TestDeltaPoseQuarterTurn(t *testing.T) {
	radius := float32(1.0)
	arc := radius * float32(math.Pi/2)
	p := DeltaPose(arc, float32(math.Pi/2))
	if !approxEqual(p.X, radius, 1e-3) || !approxEqual(p.Y, radius, 1e-3) {
		t.Fatalf("quarter-turn delta = (%f,%f), want (%f,%f)", p.X, p.Y, radius, radius)
	}
}

func TestPoseComposeAccumulatesArcLengthAndRotation(t *testing.T) {
	p := Zero
	for i := 0; i < 4; i++ {
		p = p.Compose(DeltaPose(1.0, 0.1))
	}
	if !approxEqual(p.S, 4.0, 1e-4) {
		t.Fatalf("S = %f, want 4.0", p.S)
	}
	if !approxEqual(p.A, 0.4, 1e-4) {
		t.Fatalf("A = %f, want 0.4", p.A)
	}
}

func TestPoseComposeIdentity(t *testing.T) {
	p := Pose{X: 1, Y: 2, Theta: 0.5}
	got := p.Compose(Zero)
	if !approxEqual(got.X, p.X, 1e-6) || !approxEqual(got.Y, p.Y, 1e-6) || !approxEqual(got.Theta, p.Theta, 1e-6) {
		t.Fatalf("composing with Zero changed pose: got %+v, want %+v", got, p)
	}
}
