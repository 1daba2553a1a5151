package physics

import (
	"math"

	"github.com/pkg/errors"
)

// Body is a gravitationally interacting point mass.
//
// It is a plain value: no locks, no heap references, no interfaces. The same
// methods serve a sequential loop and a data-parallel batch. Callers must
// finish every AddForce for a step before calling Step, and must not call Step
// or AddForce on one body from two goroutines at once.
type Body struct {
	mass  float64
	pos   Vec2
	vel   Vec2
	force Vec2
	color RGB32
	hist  history
}

// history is the integration memory of a body. It is absent until the first
// Step; prev is only meaningful when valid is set.
type history struct {
	prev  Vec2
	valid bool
}

// NewBody creates a never-stepped body with zero accumulated force.
func NewBody(mass float64, pos, vel Vec2, color RGB32) (Body, error) {
	if !isFinite(mass) || mass <= 0 {
		return Body{}, errors.Wrapf(ErrInvalidParameter, "mass must be finite and positive, got %v", mass)
	}
	if !pos.IsFinite() {
		return Body{}, errors.Wrapf(ErrInvalidParameter, "position %v is not finite", pos)
	}
	if !vel.IsFinite() {
		return Body{}, errors.Wrapf(ErrInvalidParameter, "velocity %v is not finite", vel)
	}
	return Body{mass: mass, pos: pos, vel: vel, color: color}, nil
}

// AddForce adds f to the force accumulated since the last step.
func (b *Body) AddForce(f Vec2) {
	b.force = b.force.Add(f)
}

// Step advances the body by dt under the accumulated force and resets it.
//
// The first step uses the kinematic formula since there is no history yet;
// later steps use position Verlet. Velocity is tracked with a forward Euler
// update for consumers only and never feeds back into the Verlet position.
func (b *Body) Step(dt float64) {
	accel := b.force.Div(b.mass)

	var next Vec2
	if !b.hist.valid {
		next = b.pos.Add(b.vel.Mul(dt)).Add(accel.Div(2).Mul(dt).Mul(dt))
	} else {
		next = b.pos.Mul(2).Sub(b.hist.prev).Add(accel.Mul(dt).Mul(dt))
	}
	b.hist = history{prev: b.pos, valid: true}
	b.pos = next

	b.vel = b.vel.Add(accel.Mul(dt))
	b.force = Vec2{}

	assertFinite(b)
}

// Merge returns the perfectly inelastic union of b and other. Neither input is
// modified and the result has no integration history.
func (b *Body) Merge(other *Body) (Body, error) {
	if err := b.validate(); err != nil {
		return Body{}, err
	}
	if err := other.validate(); err != nil {
		return Body{}, err
	}

	mass := b.mass + other.mass
	pos := b.pos.Mul(b.mass).Add(other.pos.Mul(other.mass)).Div(mass)
	vel := b.vel.Mul(b.mass).Add(other.vel.Mul(other.mass)).Div(mass)
	color := NewRGB32(
		(float64(b.color.R)*b.mass+float64(other.color.R)*other.mass)/mass,
		(float64(b.color.G)*b.mass+float64(other.color.G)*other.mass)/mass,
		(float64(b.color.B)*b.mass+float64(other.color.B)*other.mass)/mass,
	)

	return NewBody(mass, pos, vel, color)
}

func (b *Body) validate() error {
	if !isFinite(b.mass) || b.mass <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "mass must be finite and positive, got %v", b.mass)
	}
	return nil
}

// Check reports ErrArithmeticDegenerate when any field has left the finite
// domain or mass is no longer positive. It is opt-in and never called on the
// default Step path.
func (b *Body) Check() error {
	switch {
	case !isFinite(b.mass) || b.mass <= 0:
		return errors.Wrapf(ErrArithmeticDegenerate, "mass %v", b.mass)
	case !b.pos.IsFinite():
		return errors.Wrapf(ErrArithmeticDegenerate, "position %v", b.pos)
	case !b.vel.IsFinite():
		return errors.Wrapf(ErrArithmeticDegenerate, "velocity %v", b.vel)
	case !b.force.IsFinite():
		return errors.Wrapf(ErrArithmeticDegenerate, "force %v", b.force)
	case b.hist.valid && !b.hist.prev.IsFinite():
		return errors.Wrapf(ErrArithmeticDegenerate, "previous position %v", b.hist.prev)
	}
	return nil
}

func (b *Body) Mass() float64  { return b.mass }
func (b *Body) Position() Vec2 { return b.pos }
func (b *Body) Velocity() Vec2 { return b.vel }
func (b *Body) Force() Vec2    { return b.force }
func (b *Body) Color() RGB32   { return b.color }
func (b *Body) Stepped() bool  { return b.hist.valid }
func (b *Body) Momentum() Vec2 { return b.vel.Mul(b.mass) }

// PreviousPosition returns the position one step in the past.
func (b *Body) PreviousPosition() (Vec2, error) {
	if !b.hist.valid {
		return Vec2{}, ErrUninitializedHistory
	}
	return b.hist.prev, nil
}

// Radius is the visual size of the body. The formula is an ad-hoc sizing
// rule, not a physical density model.
func (b *Body) Radius() float64 {
	return math.Pow(b.mass/math.Pi, 0.33) / 4
}

func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.mass * b.vel.LenSq()
}

// Override exposes trusted, unchecked setters that bypass the integration
// contract. Drivers use it for corrective adjustments such as wrapping a body
// at a boundary. Nothing here validates its input.
type Override struct {
	b *Body
}

// Override returns the unchecked setter handle for b.
func (b *Body) Override() Override { return Override{b: b} }

func (o Override) SetPosition(p Vec2) { o.b.pos = p }

// SetPreviousPosition overwrites the history position without touching the
// stepped flag.
func (o Override) SetPreviousPosition(p Vec2) { o.b.hist.prev = p }

func (o Override) SetVelocity(v Vec2) { o.b.vel = v }
func (o Override) SetMass(m float64)  { o.b.mass = m }
func (o Override) SetStepped(s bool)  { o.b.hist.valid = s }

// ClearForce drops the accumulated force without stepping.
func (o Override) ClearForce() { o.b.force = Vec2{} }
