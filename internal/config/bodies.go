package config

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/core/systems/physics"
)

var defaultColor = physics.RGB32{R: 200, G: 200, B: 255}

// BuildBodies turns the configured bodies and disk into physics bodies.
// Explicit bodies come first, in file order.
func (c *Config) BuildBodies() ([]physics.Body, error) {
	specs := append([]Body(nil), c.Bodies...)
	if c.AutoOrbit {
		SetOrbitalVelocities(specs, c.Simulation.Gravity)
	}

	bodies := make([]physics.Body, 0, len(specs))
	for i, s := range specs {
		b, err := s.build()
		if err != nil {
			return nil, errors.WithMessagef(err, "bodies[%d]", i)
		}
		bodies = append(bodies, b)
	}

	if c.Disk != nil && c.Disk.Count > 0 {
		disk, err := c.Disk.Generate(c.Simulation.Gravity)
		if err != nil {
			return nil, errors.WithMessage(err, "disk")
		}
		bodies = append(bodies, disk...)
	}
	return bodies, nil
}

func (s Body) build() (physics.Body, error) {
	color, err := parseColor(s.Color)
	if err != nil {
		return physics.Body{}, err
	}
	return physics.NewBody(s.Mass, physics.V2(s.Pos[0], s.Pos[1]), physics.V2(s.Vel[0], s.Vel[1]), color)
}

func parseColor(hex string) (physics.RGB32, error) {
	if hex == "" {
		return defaultColor, nil
	}
	return physics.ParseHex(hex)
}

// SetOrbitalVelocities gives every body after the first that has no velocity
// the circular orbit speed sqrt(G*M/r) around bodies[0], perpendicular to the
// radius vector. Bodies on top of the centre are left alone.
func SetOrbitalVelocities(bodies []Body, g float64) {
	if len(bodies) == 0 {
		return
	}
	central := bodies[0]
	for i := 1; i < len(bodies); i++ {
		if bodies[i].Vel != [2]float64{} {
			continue
		}
		dx := bodies[i].Pos[0] - central.Pos[0]
		dy := bodies[i].Pos[1] - central.Pos[1]
		r := math.Hypot(dx, dy)
		if r == 0 {
			continue
		}
		v := math.Sqrt(g * central.Mass / r)
		bodies[i].Vel = [2]float64{
			central.Vel[0] - dy/r*v,
			central.Vel[1] + dx/r*v,
		}
	}
}

// Generate places Count bodies evenly by angle on a ring of the configured
// radius, jittered outwards by up to 10%, each moving at the circular orbit
// speed of the central mass. A central body is included when CentralMass > 0.
// The same Seed always yields the same disk.
func (d *Disk) Generate(g float64) ([]physics.Body, error) {
	color, err := parseColor(d.Color)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(d.Seed))

	bodies := make([]physics.Body, 0, d.Count+1)
	if d.CentralMass > 0 {
		central, err := physics.NewBody(d.CentralMass, physics.Vec2{}, physics.Vec2{}, physics.RGB32{R: 255, G: 240, B: 200})
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, central)
	}

	for i := 0; i < d.Count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(d.Count)
		r := d.Radius * (1 + 0.1*rng.Float64())
		v := math.Sqrt(g * d.CentralMass / r)

		sin, cos := math.Sincos(angle)
		b, err := physics.NewBody(d.BodyMass,
			physics.V2(r*cos, r*sin),
			physics.V2(-v*sin, v*cos),
			color)
		if err != nil {
			return nil, errors.WithMessagef(err, "body %d", i)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}
