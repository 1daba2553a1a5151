package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func mustBody(t *testing.T, mass float64, pos, vel Vec2, c RGB32) Body {
	t.Helper()
	b, err := NewBody(mass, pos, vel, c)
	require.NoError(t, err)
	return b
}

func requireVec(t *testing.T, want, got Vec2) {
	t.Helper()
	require.InDelta(t, want.Xv, got.Xv, eps, "x")
	require.InDelta(t, want.Yv, got.Yv, eps, "y")
}

func TestNewBody(t *testing.T) {
	t.Run("fresh state", func(t *testing.T) {
		b := mustBody(t, 3, V2(1, 2), V2(-1, 0.5), RGB32{10, 20, 30})

		assert.Equal(t, 3.0, b.Mass())
		assert.Equal(t, V2(1, 2), b.Position())
		assert.Equal(t, V2(-1, 0.5), b.Velocity())
		assert.Equal(t, Vec2{}, b.Force())
		assert.Equal(t, RGB32{10, 20, 30}, b.Color())
		assert.False(t, b.Stepped())

		_, err := b.PreviousPosition()
		assert.ErrorIs(t, err, ErrUninitializedHistory)
	})

	invalid := []struct {
		name string
		mass float64
		pos  Vec2
		vel  Vec2
	}{
		{name: "zero mass", mass: 0},
		{name: "negative mass", mass: -1},
		{name: "NaN mass", mass: math.NaN()},
		{name: "infinite mass", mass: math.Inf(1)},
		{name: "infinite position", mass: 1, pos: V2(math.Inf(-1), 0)},
		{name: "NaN velocity", mass: 1, vel: V2(0, math.NaN())},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBody(tt.mass, tt.pos, tt.vel, RGB32{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}
}

func TestStep_ColdStart(t *testing.T) {
	b := mustBody(t, 2, V2(1, 1), V2(3, -2), RGB32{})
	b.Step(0.5)

	requireVec(t, V2(2.5, 0), b.Position())
	prev, err := b.PreviousPosition()
	require.NoError(t, err)
	requireVec(t, V2(1, 1), prev)
	assert.True(t, b.Stepped())
}

func TestStep_ColdStartWithForce(t *testing.T) {
	// accel = (4,0)/2 = (2,0); next = pos + vel*dt + accel/2*dt^2
	b := mustBody(t, 2, V2(0, 0), V2(1, 0), RGB32{})
	b.AddForce(V2(4, 0))
	b.Step(2)

	requireVec(t, V2(2+4, 0), b.Position())
	requireVec(t, V2(1+4, 0), b.Velocity())
}

func TestStep_VerletInertial(t *testing.T) {
	b := mustBody(t, 1, V2(0, 0), V2(1, 2), RGB32{})
	const dt = 0.25

	b.Step(dt)
	p1 := b.Position()
	b.Step(dt)
	p2 := b.Position()
	b.Step(dt)
	p3 := b.Position()

	requireVec(t, p2.Mul(2).Sub(p1), p3)
	requireVec(t, V2(0.75, 1.5), p3)

	prev, err := b.PreviousPosition()
	require.NoError(t, err)
	requireVec(t, p2, prev)
}

func TestStep_VerletUnderForce(t *testing.T) {
	b := mustBody(t, 2, V2(0, 0), V2(0, 0), RGB32{})
	b.Step(1)

	b.AddForce(V2(0, 6))
	b.Step(1)

	// 2*pos - prev + accel*dt^2 with pos=prev=0 and accel=(0,3)
	requireVec(t, V2(0, 3), b.Position())
	requireVec(t, V2(0, 3), b.Velocity())
}

func TestStep_ForceReset(t *testing.T) {
	b := mustBody(t, 5, V2(0, 0), V2(0, 0), RGB32{})
	b.AddForce(V2(1, 1))
	b.AddForce(V2(-3, 7))
	b.Step(0.1)
	assert.Equal(t, Vec2{}, b.Force())

	b.AddForce(V2(2, 2))
	b.Step(0.1)
	assert.Equal(t, Vec2{}, b.Force())
}

func TestStep_Additivity(t *testing.T) {
	fa, fb := V2(1.5, -2), V2(-0.25, 4)
	run := func(apply func(b *Body)) Body {
		b := mustBody(t, 3, V2(1, 1), V2(0.5, 0), RGB32{})
		b.Step(0.2)
		apply(&b)
		b.Step(0.2)
		return b
	}

	ab := run(func(b *Body) { b.AddForce(fa); b.AddForce(fb) })
	ba := run(func(b *Body) { b.AddForce(fb); b.AddForce(fa) })
	sum := run(func(b *Body) { b.AddForce(fa.Add(fb)) })

	requireVec(t, ab.Position(), ba.Position())
	requireVec(t, ab.Position(), sum.Position())
	requireVec(t, ab.Velocity(), ba.Velocity())
	requireVec(t, ab.Velocity(), sum.Velocity())
}

func TestStep_ZeroAndNegativeDelta(t *testing.T) {
	b := mustBody(t, 1, V2(2, 2), V2(1, 1), RGB32{})
	b.Step(0)
	requireVec(t, V2(2, 2), b.Position())
	assert.True(t, b.Stepped())

	c := mustBody(t, 1, V2(2, 2), V2(1, 1), RGB32{})
	c.Step(-1)
	requireVec(t, V2(1, 1), c.Position())
}

func TestMerge(t *testing.T) {
	a := mustBody(t, 2, V2(0, 0), V2(1, 0), RGB32{0, 0, 0})
	b := mustBody(t, 2, V2(4, 0), V2(-1, 0), RGB32{255, 255, 255})

	m, err := a.Merge(&b)
	require.NoError(t, err)

	assert.Equal(t, 4.0, m.Mass())
	requireVec(t, V2(2, 0), m.Position())
	requireVec(t, V2(0, 0), m.Velocity())
	assert.Equal(t, RGB32{128, 128, 128}, m.Color())
	assert.False(t, m.Stepped())
	assert.Equal(t, Vec2{}, m.Force())
}

func TestMerge_Symmetric(t *testing.T) {
	a := mustBody(t, 1.5, V2(-3, 2), V2(0.5, 1), RGB32{200, 10, 40})
	b := mustBody(t, 7, V2(5, -1), V2(-2, 0.25), RGB32{5, 90, 250})

	ab, err := a.Merge(&b)
	require.NoError(t, err)
	ba, err := b.Merge(&a)
	require.NoError(t, err)

	assert.InDelta(t, ab.Mass(), ba.Mass(), eps)
	requireVec(t, ab.Position(), ba.Position())
	requireVec(t, ab.Velocity(), ba.Velocity())
	assert.Equal(t, ab.Color(), ba.Color())

	// momentum is conserved
	requireVec(t, a.Momentum().Add(b.Momentum()), ab.Momentum())
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := mustBody(t, 1, V2(0, 0), V2(1, 0), RGB32{})
	a.AddForce(V2(1, 1))
	a.Step(1)
	b := mustBody(t, 1, V2(1, 0), V2(0, 0), RGB32{})
	before := a

	m, err := a.Merge(&b)
	require.NoError(t, err)
	assert.Equal(t, before, a)
	assert.False(t, m.Stepped())
	_, err = m.PreviousPosition()
	assert.ErrorIs(t, err, ErrUninitializedHistory)
}

func TestMerge_CorruptedMass(t *testing.T) {
	a := mustBody(t, 1, V2(0, 0), V2(0, 0), RGB32{})
	b := mustBody(t, 1, V2(1, 0), V2(0, 0), RGB32{})
	b.Override().SetMass(-1)

	_, err := a.Merge(&b)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRadius(t *testing.T) {
	masses := []float64{1e-6, 0.1, 1, 2, 10, 1e3, 1e9}
	for i := 1; i < len(masses); i++ {
		lo := mustBody(t, masses[i-1], Vec2{}, Vec2{}, RGB32{})
		hi := mustBody(t, masses[i], Vec2{}, Vec2{}, RGB32{})
		assert.Less(t, lo.Radius(), hi.Radius(), "m=%v vs m=%v", masses[i-1], masses[i])
	}

	b := mustBody(t, math.Pi, Vec2{}, Vec2{}, RGB32{})
	assert.InDelta(t, 0.25, b.Radius(), eps)
}

func TestDegenerateSmallMass(t *testing.T) {
	b := mustBody(t, 1e-300, Vec2{}, Vec2{}, RGB32{})
	assert.Less(t, b.Radius(), 1e-90)

	b.AddForce(V2(1, 0))
	assert.NotPanics(t, func() { b.Step(1) })
	assert.Greater(t, b.Velocity().Xv, 1e299)
}

func TestOverride(t *testing.T) {
	b := mustBody(t, 1, V2(0, 0), V2(0, 0), RGB32{})
	o := b.Override()

	o.SetPosition(V2(5, 5))
	o.SetVelocity(V2(1, 0))
	o.SetMass(4)
	o.SetPreviousPosition(V2(4, 5))
	assert.False(t, b.Stepped())

	o.SetStepped(true)
	prev, err := b.PreviousPosition()
	require.NoError(t, err)
	assert.Equal(t, V2(4, 5), prev)
	assert.Equal(t, 4.0, b.Mass())

	// Verlet now continues from the injected history
	b.Step(1)
	requireVec(t, V2(6, 5), b.Position())
}

func TestCheck(t *testing.T) {
	b := mustBody(t, 1, V2(0, 0), V2(0, 0), RGB32{})
	require.NoError(t, b.Check())

	b.Override().SetMass(0)
	assert.ErrorIs(t, b.Check(), ErrArithmeticDegenerate)

	c := mustBody(t, 1, V2(0, 0), V2(0, 0), RGB32{})
	c.AddForce(V2(math.NaN(), 0))
	assert.ErrorIs(t, c.Check(), ErrArithmeticDegenerate)
}
