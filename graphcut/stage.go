package graphcut

import (
	"fmt"
	"sync"
)

// Stage is a state of the run state machine:
//
//	Idle → Validating → BuildingGraph → Solving → WritingLabels → Done
//
// Validating, BuildingGraph, Solving and WritingLabels may move to Failed.
// When seeds cover every voxel, Validating goes straight to WritingLabels.
type Stage int

const (
	Idle Stage = iota
	Validating
	BuildingGraph
	Solving
	WritingLabels
	Done
	Failed
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case BuildingGraph:
		return "building-graph"
	case Solving:
		return "solving"
	case WritingLabels:
		return "writing-labels"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ProgressFunc receives the current stage and the fraction of it completed.
// Within a stage, fractions never decrease; every entered stage reports 0
// first and 1 on success. Calls are serialized.
type ProgressFunc func(stage Stage, fraction float64)

// reporter serializes progress calls and drops regressions.
type reporter struct {
	mu    sync.Mutex
	fn    ProgressFunc
	stage Stage
	last  float64
}

func (r *reporter) enter(s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stage, r.last = s, 0
	if r.fn != nil {
		r.fn(s, 0)
	}
}

func (r *reporter) report(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f <= r.last {
		return
	}
	if f > 1 {
		f = 1
	}
	r.last = f
	if r.fn != nil {
		r.fn(r.stage, f)
	}
}
