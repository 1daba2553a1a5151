// Package gravity computes softened Newtonian forces between bodies and feeds
// them into each body's accumulator.
package gravity

import (
	"context"
	"math"

	"github.com/zeusync/galaxy/internal/core/observability/log"
	"github.com/zeusync/galaxy/internal/core/systems/physics"
	"github.com/zeusync/galaxy/pkg/concurrent"
	"github.com/zeusync/galaxy/pkg/generic"
)

// rows between cancellation checks
const checkEvery = 32

type Config struct {
	G         float64
	Softening float64
	// Workers <= 0 uses one worker per CPU.
	Workers int
}

func DefaultConfig() Config {
	return Config{G: 1, Softening: 0.1}
}

// Solver is a direct-sum force pass. Every pair is evaluated once and the
// result is applied to both bodies with opposite signs.
type Solver struct {
	config  Config
	buffers *generic.Pool[*[]physics.Vec2]
	logger  log.Log
}

func New(config Config, logger log.Log) *Solver {
	if logger == nil {
		logger = log.Provide()
	}
	s := &Solver{
		config: config,
		buffers: generic.NewPool(
			func() *[]physics.Vec2 { return new([]physics.Vec2) },
			func(buf *[]physics.Vec2) *[]physics.Vec2 {
				clear((*buf)[:cap(*buf)])
				*buf = (*buf)[:0]
				return buf
			},
		),
		logger: logger.With(log.Component("gravity")),
	}
	s.logger.Debug("Gravity solver ready",
		log.Float64("g", config.G),
		log.Float64("softening", config.Softening),
		log.Int("workers", concurrent.WorkerCount(config.Workers)))
	return s
}

func (s *Solver) Config() Config { return s.config }

// Accumulate adds the gravitational force on each body from every other body.
//
// Rows of the pair triangle are interleaved across workers. Each worker sums
// into its own buffer and the buffers are applied afterwards on the calling
// goroutine, so no body is written concurrently. Accumulate must finish before
// any of the bodies is stepped.
func (s *Solver) Accumulate(ctx context.Context, bodies []*physics.Body) error {
	n := len(bodies)
	if n < 2 {
		return ctx.Err()
	}

	pos := make([]physics.Vec2, n)
	mass := make([]float64, n)
	for i, b := range bodies {
		pos[i] = b.Position()
		mass[i] = b.Mass()
	}

	workers := min(concurrent.WorkerCount(s.config.Workers), n-1)
	partials := make([]*[]physics.Vec2, workers)
	defer func() {
		for _, buf := range partials {
			if buf != nil {
				s.buffers.Put(buf)
			}
		}
	}()

	err := concurrent.Workers(ctx, workers, func(ctx context.Context, w int) error {
		buf := s.buffers.Get()
		if cap(*buf) < n {
			*buf = make([]physics.Vec2, n)
		}
		*buf = (*buf)[:n]
		partials[w] = buf
		forces := *buf

		for i := w; i < n; i += workers {
			if (i/workers)%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			for j := i + 1; j < n; j++ {
				f := s.pairForce(pos[i], mass[i], pos[j], mass[j])
				forces[i] = forces[i].Add(f)
				forces[j] = forces[j].Sub(f)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, buf := range partials {
		for i, f := range *buf {
			if f != (physics.Vec2{}) {
				bodies[i].AddForce(f)
			}
		}
	}
	return nil
}

// pairForce is the force exerted on body a by body b.
func (s *Solver) pairForce(pa physics.Vec2, ma float64, pb physics.Vec2, mb float64) physics.Vec2 {
	r := pb.Sub(pa)
	d2 := r.LenSq() + s.config.Softening*s.config.Softening
	if d2 == 0 {
		return physics.Vec2{}
	}
	inv := 1 / math.Sqrt(d2)
	return r.Mul(s.config.G * ma * mb * inv * inv * inv)
}

// Potential returns the total softened gravitational potential energy.
func (s *Solver) Potential(bodies []*physics.Body) float64 {
	eps2 := s.config.Softening * s.config.Softening
	total := 0.0
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			d2 := bodies[i].Position().Sub(bodies[j].Position()).LenSq() + eps2
			if d2 == 0 {
				continue
			}
			total -= s.config.G * bodies[i].Mass() * bodies[j].Mass() / math.Sqrt(d2)
		}
	}
	return total
}
