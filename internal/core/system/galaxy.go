package system

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/core/events/bus"
	"github.com/zeusync/galaxy/internal/core/observability/log"
	"github.com/zeusync/galaxy/internal/core/registry"
	"github.com/zeusync/galaxy/internal/core/systems"
	"github.com/zeusync/galaxy/internal/core/systems/gravity"
	"github.com/zeusync/galaxy/internal/core/systems/physics"
	"github.com/zeusync/galaxy/pkg/concurrent"
	"github.com/zeusync/galaxy/pkg/sequence"
)

// Config holds simulation loop settings
type Config struct {
	// Workers for the integrate pass; <= 0 means one per CPU.
	Workers int
	// Merge replaces overlapping pairs with their inelastic union after each step.
	Merge bool
	// DebugChecks validates every body after it is stepped.
	DebugChecks bool
	// Bounds is the half width of a square wrap-around domain centred on the
	// origin. Zero disables wrapping.
	Bounds float64
}

type star struct {
	id   string
	body physics.Body
}

// Stats is a diagnostic summary of the galaxy.
type Stats struct {
	Steps     uint64
	Time      float64
	Bodies    int
	Merges    uint64
	TotalMass float64
	Momentum  physics.Vec2
	Kinetic   float64
	Potential float64
	// Passes holds timings per step phase, indexed by systems.Phase.
	Passes [systems.PhaseCount]systems.Metrics
	Events bus.EventBusMetrics
}

// Galaxy drives a set of bodies: it accumulates gravity, steps every body,
// merges overlapping pairs and publishes the results.
type Galaxy struct {
	mu     sync.Mutex
	config Config
	stars  []*star

	solver *gravity.Solver
	events bus.EventBus
	store  *registry.Sharded[Snapshot]
	logger log.Log

	steps   uint64
	elapsed float64
	merges  uint64
	passes  [systems.PhaseCount]systems.Metrics
}

func New(config Config, solver *gravity.Solver, events bus.EventBus, store *registry.Sharded[Snapshot], logger log.Log) *Galaxy {
	if logger == nil {
		logger = log.Provide()
	}
	if events == nil {
		events = bus.New()
	}
	if store == nil {
		store = registry.New[Snapshot](0)
	}
	return &Galaxy{
		config: config,
		solver: solver,
		events: events,
		store:  store,
		logger: logger.With(log.Component("galaxy")),
	}
}

func (g *Galaxy) Events() bus.EventBus { return g.events }

// Add inserts a body and returns its ID.
func (g *Galaxy) Add(body physics.Body) string {
	s := &star{id: uuid.NewString(), body: body}

	g.mu.Lock()
	g.stars = append(g.stars, s)
	snap := snapshotOf(s.id, &s.body)
	g.store.Set(s.id, snap)
	g.mu.Unlock()

	g.publish(EventBodyAdded, snap)
	return s.id
}

// Remove deletes the body with the given ID.
func (g *Galaxy) Remove(id string) error {
	g.mu.Lock()
	idx := g.indexLocked(id)
	if idx < 0 {
		g.mu.Unlock()
		return errors.Wrapf(ErrBodyNotFound, "id %s", id)
	}
	g.stars = append(g.stars[:idx], g.stars[idx+1:]...)
	g.store.Delete(id)
	g.mu.Unlock()

	g.publish(EventBodyRemoved, id)
	return nil
}

// Get returns a copy of the body with the given ID.
func (g *Galaxy) Get(id string) (physics.Body, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.indexLocked(id)
	if idx < 0 {
		return physics.Body{}, errors.Wrapf(ErrBodyNotFound, "id %s", id)
	}
	return g.stars[idx].body, nil
}

func (g *Galaxy) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.stars)
}

// Snapshots returns the last published state of every body ordered by ID.
// The store is only written under the galaxy lock, so a removed body never
// reappears here.
func (g *Galaxy) Snapshots() []Snapshot {
	return g.store.Values()
}

func (g *Galaxy) indexLocked(id string) int {
	for i, s := range g.stars {
		if s.id == id {
			return i
		}
	}
	return -1
}

// Step advances the whole galaxy by dt.
//
// Forces are fully accumulated before any body is stepped; each body is
// stepped by exactly one worker; merges run afterwards on this goroutine.
// Events are published after the galaxy lock is released so handlers may call
// back into the galaxy.
func (g *Galaxy) Step(ctx context.Context, dt float64) error {
	start := time.Now()

	g.mu.Lock()
	merged, consumed, err := g.stepLocked(ctx, dt)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	for _, id := range consumed {
		g.store.Delete(id)
	}
	for _, s := range g.stars {
		g.store.Set(s.id, snapshotOf(s.id, &s.body))
	}
	ev := StepEvent{
		Step:     g.steps,
		Time:     g.elapsed,
		Bodies:   len(g.stars),
		Merges:   len(merged),
		Duration: time.Since(start),
	}
	g.mu.Unlock()

	for _, m := range merged {
		g.logger.Debug("Bodies merged",
			log.String("survivor", m.SurvivorID),
			log.String("consumed", m.ConsumedID),
			log.Float64("mass", m.Mass),
			log.Vec("position", m.Position.Xv, m.Position.Yv))
		g.publish(EventBodyMerged, m)
	}
	g.publish(EventStepCompleted, ev)
	return nil
}

func (g *Galaxy) stepLocked(ctx context.Context, dt float64) ([]MergeEvent, []string, error) {
	bodies := make([]*physics.Body, len(g.stars))
	for i, s := range g.stars {
		bodies[i] = &s.body
	}

	if g.solver != nil {
		start := time.Now()
		err := g.solver.Accumulate(ctx, bodies)
		g.passes[systems.PhaseForces].Record(start, len(bodies), err)
		if err != nil {
			return nil, nil, errors.Wrap(err, "accumulate forces")
		}
	}

	start := time.Now()
	err := concurrent.Batch(ctx, g.stars, g.config.Workers, func(_ context.Context, chunk []*star) error {
		for _, s := range chunk {
			s.body.Step(dt)
			if g.config.Bounds > 0 {
				wrap(&s.body, g.config.Bounds)
			}
			if g.config.DebugChecks {
				if err := s.body.Check(); err != nil {
					return errors.Wrapf(err, "body %s", s.id)
				}
			}
		}
		return nil
	})
	g.passes[systems.PhaseIntegrate].Record(start, len(g.stars), err)
	if err != nil {
		// Bodies the failed batch never reached still hold this step's force.
		for _, s := range g.stars {
			s.body.Override().ClearForce()
		}
		return nil, nil, errors.Wrap(err, "integrate")
	}

	g.steps++
	g.elapsed += dt

	if !g.config.Merge {
		return nil, nil, nil
	}
	start = time.Now()
	n := len(g.stars)
	merged, consumed, err := g.mergeLocked()
	g.passes[systems.PhaseMerge].Record(start, n, err)
	return merged, consumed, err
}

// mergeLocked replaces every overlapping pair with its union. A merged body is
// checked again against all remaining bodies, so chains collapse in one pass.
func (g *Galaxy) mergeLocked() ([]MergeEvent, []string, error) {
	var (
		events   []MergeEvent
		consumed []string
	)
	stars := g.stars
	defer func() {
		if len(consumed) > 0 {
			g.stars = sequence.From(stars).Filter(func(s *star) bool { return s != nil }).Collect()
		}
	}()

	for i := 0; i < len(stars); i++ {
		a := stars[i]
		if a == nil {
			continue
		}
		for j := i + 1; j < len(stars); j++ {
			b := stars[j]
			if b == nil || !overlaps(&a.body, &b.body) {
				continue
			}
			merged, err := a.body.Merge(&b.body)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "merge %s with %s", a.id, b.id)
			}

			survivor, loser := a.id, b.id
			if b.body.Mass() > a.body.Mass() {
				survivor, loser = b.id, a.id
			}
			a.id = survivor
			a.body = merged
			stars[j] = nil

			g.merges++
			consumed = append(consumed, loser)
			events = append(events, MergeEvent{
				Step:       g.steps,
				SurvivorID: survivor,
				ConsumedID: loser,
				Mass:       merged.Mass(),
				Position:   merged.Position(),
			})
			j = i
		}
	}
	return events, consumed, nil
}

func overlaps(a, b *physics.Body) bool {
	return a.Position().Dist(b.Position()) < a.Radius()+b.Radius()
}

// wrap moves a body that left the square [-half, half]^2 to the opposite side.
// The history position is shifted by the same offset so Verlet keeps the
// body's implied velocity.
func wrap(b *physics.Body, half float64) {
	p := b.Position()
	off := physics.V2(wrapOffset(p.Xv, half), wrapOffset(p.Yv, half))
	if off == (physics.Vec2{}) {
		return
	}
	o := b.Override()
	o.SetPosition(p.Add(off))
	if prev, err := b.PreviousPosition(); err == nil {
		o.SetPreviousPosition(prev.Add(off))
	}
}

func wrapOffset(v, half float64) float64 {
	span := 2 * half
	switch {
	case v > half:
		return -span * math.Ceil((v-half)/span)
	case v < -half:
		return span * math.Ceil((-half-v)/span)
	default:
		return 0
	}
}

// Run steps the galaxy until steps have been taken or ctx is done. steps <= 0
// runs until cancellation. onStep, when set, is called after every step and
// stops the run by returning an error.
func (g *Galaxy) Run(ctx context.Context, dt float64, steps int, onStep func(StepEvent) error) error {
	if g.Len() == 0 {
		return ErrNoBodies
	}
	g.logger.Info("Simulation started",
		log.Int("bodies", g.Len()),
		log.Float64("dt", dt),
		log.Int("steps", steps))

	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Step(ctx, dt); err != nil {
			g.logger.Error("Step failed", log.Error(err))
			return err
		}
		if onStep != nil {
			g.mu.Lock()
			ev := StepEvent{Step: g.steps, Time: g.elapsed, Bodies: len(g.stars)}
			g.mu.Unlock()
			if err := onStep(ev); err != nil {
				return err
			}
		}
	}

	st := g.Stats()
	g.logger.Info("Simulation finished",
		log.Uint64("steps", st.Steps),
		log.Int("bodies", st.Bodies),
		log.Uint64("merges", st.Merges))
	return nil
}

// Stats computes conserved quantities and counters.
func (g *Galaxy) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	bodies := make([]*physics.Body, len(g.stars))
	for i, s := range g.stars {
		bodies[i] = &s.body
	}

	st := sequence.Fold(sequence.From(bodies), Stats{}, func(acc Stats, b *physics.Body) Stats {
		acc.TotalMass += b.Mass()
		acc.Momentum = acc.Momentum.Add(b.Momentum())
		acc.Kinetic += b.KineticEnergy()
		return acc
	})
	st.Steps = g.steps
	st.Time = g.elapsed
	st.Bodies = len(g.stars)
	st.Merges = g.merges
	st.Passes = g.passes
	st.Events = g.events.GetMetrics()
	if g.solver != nil {
		st.Potential = g.solver.Potential(bodies)
	}
	return st
}

func (g *Galaxy) publish(eventType string, data any) {
	if err := g.events.Publish(bus.NewEvent(eventType, eventSource, data)); err != nil {
		g.logger.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}
