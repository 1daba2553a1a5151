// Package systems holds the per-step passes run over the galaxy and what they
// share.
package systems

import "time"

// Phase identifies one pass of a galaxy step, in execution order.
type Phase uint8

const (
	PhaseForces Phase = iota
	PhaseIntegrate
	PhaseMerge

	PhaseCount = iota
)

func (p Phase) String() string {
	switch p {
	case PhaseForces:
		return "forces"
	case PhaseIntegrate:
		return "integrate"
	case PhaseMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// Metrics provides runtime metrics for a pass. It is not synchronised; the
// owner records and reads it under its own lock.
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
	EntitiesProcessed    uint64
}

// Record adds one execution that began at start and processed entities bodies.
func (m *Metrics) Record(start time.Time, entities int, err error) {
	d := time.Since(start)

	m.ExecutionCount++
	m.TotalExecutionTime += d
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if d > m.MaxExecutionTime {
		m.MaxExecutionTime = d
	}
	if m.ExecutionCount == 1 || d < m.MinExecutionTime {
		m.MinExecutionTime = d
	}
	m.LastExecutionTime = start
	m.EntitiesProcessed += uint64(entities)
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
