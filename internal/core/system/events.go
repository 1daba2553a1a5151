package system

import (
	"time"

	"github.com/zeusync/galaxy/internal/core/systems/physics"
)

// Event types published on the bus.
const (
	EventBodyAdded     = "body.added"
	EventBodyRemoved   = "body.removed"
	EventBodyMerged    = "body.merged"
	EventStepCompleted = "galaxy.step"
)

const eventSource = "galaxy"

// Snapshot is the published state of one body.
type Snapshot struct {
	ID       string
	Mass     float64
	Position physics.Vec2
	Velocity physics.Vec2
	Radius   float64
	Color    physics.RGB32
	Stepped  bool
}

func snapshotOf(id string, b *physics.Body) Snapshot {
	return Snapshot{
		ID:       id,
		Mass:     b.Mass(),
		Position: b.Position(),
		Velocity: b.Velocity(),
		Radius:   b.Radius(),
		Color:    b.Color(),
		Stepped:  b.Stepped(),
	}
}

// MergeEvent is the payload of EventBodyMerged. The survivor keeps the ID of
// the heavier input.
type MergeEvent struct {
	Step       uint64
	SurvivorID string
	ConsumedID string
	Mass       float64
	Position   physics.Vec2
}

// StepEvent is the payload of EventStepCompleted.
type StepEvent struct {
	Step     uint64
	Time     float64
	Bodies   int
	Merges   int
	Duration time.Duration
}
