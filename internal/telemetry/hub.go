package telemetry

import (
	"context"

	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/core/events/bus"
	"github.com/zeusync/galaxy/internal/core/observability/log"
	"github.com/zeusync/galaxy/internal/core/system"
	"github.com/zeusync/galaxy/pkg/concurrent"
	"github.com/zeusync/galaxy/pkg/sequence"
)

// Broadcaster delivers a serialized frame to its connected clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte) error
	Clients() int
}

// Hub serializes a frame once and hands it to every broadcaster in parallel.
type Hub struct {
	broadcasters []Broadcaster
	logger       log.Log
}

func NewHub(logger log.Log, broadcasters ...Broadcaster) *Hub {
	if logger == nil {
		logger = log.Provide()
	}
	return &Hub{broadcasters: broadcasters, logger: logger.With(log.Component("telemetry"))}
}

func (h *Hub) Publish(ctx context.Context, frame *Frame) error {
	if len(h.broadcasters) == 0 {
		return nil
	}
	payload, err := frame.Serialize()
	if err != nil {
		return errors.Wrap(err, "serialize frame")
	}
	return concurrent.Concurrent(sequence.From(h.broadcasters), func(b Broadcaster) error {
		if b.Clients() == 0 {
			return nil
		}
		return b.Broadcast(ctx, payload)
	})
}

// Attach publishes a frame after every n-th completed step of g. n <= 0 is
// treated as 1.
func (h *Hub) Attach(ctx context.Context, g *system.Galaxy, n int) (bus.Subscription, error) {
	if n <= 0 {
		n = 1
	}
	return g.Events().Subscribe(system.EventStepCompleted, func(e bus.Event) error {
		ev, ok := e.Data().(system.StepEvent)
		if !ok || ev.Step%uint64(n) != 0 {
			return nil
		}
		frame := FrameFromSnapshots(ev.Step, ev.Time, g.Snapshots())
		if err := h.Publish(ctx, frame); err != nil {
			h.logger.Warn("Failed to publish frame", log.Uint64("step", ev.Step), log.Error(err))
		}
		return nil
	})
}
