package engine

import (
	"slices"
	"time"

	"github.com/dukex/voltgraph/pkg/models"
)

// Outcome is the result of evaluating one node.
type Outcome struct {
	Node     models.NodeID
	Kind     models.NodeKind
	State    models.NodeState
	Err      error
	Warnings []string
	Duration time.Duration
}

// Report describes one evaluation pass.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	// Planned lists the dirty nodes in evaluation order.
	Planned   []models.NodeID
	Outcomes  map[models.NodeID]*Outcome
	Cancelled bool
	Err       error
}

// Evaluated returns the nodes that ran, in planned order.
func (r *Report) Evaluated() []models.NodeID {
	ids := make([]models.NodeID, 0, len(r.Outcomes))

	for _, id := range r.Planned {
		if _, ok := r.Outcomes[id]; ok {
			ids = append(ids, id)
		}
	}

	return ids
}

func (r *Report) Failed() []models.NodeID {
	return r.filter(models.NodeFailed)
}

func (r *Report) Succeeded() []models.NodeID {
	return r.filter(models.NodeReady)
}

func (r *Report) filter(state models.NodeState) []models.NodeID {
	var ids []models.NodeID

	for _, id := range r.Planned {
		if o, ok := r.Outcomes[id]; ok && o.State == state {
			ids = append(ids, id)
		}
	}

	return ids
}

// Outcome returns the outcome of id if it ran in this pass.
func (r *Report) Outcome(id models.NodeID) (*Outcome, bool) {
	o, ok := r.Outcomes[id]

	return o, ok
}

// Warnings returns all warnings keyed by node.
func (r *Report) Warnings() map[models.NodeID][]string {
	warnings := make(map[models.NodeID][]string)

	for id, o := range r.Outcomes {
		if len(o.Warnings) > 0 {
			warnings[id] = slices.Clone(o.Warnings)
		}
	}

	return warnings
}

// Summary is the JSON form of a report.
type Summary struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMS int64               `json:"duration_ms"`
	Planned    int                 `json:"planned"`
	Evaluated  []models.NodeID     `json:"evaluated"`
	Succeeded  int                 `json:"succeeded"`
	Failed     map[string]string   `json:"failed,omitempty"`
	Warnings   map[string][]string `json:"warnings,omitempty"`
	Cancelled  bool                `json:"cancelled,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func (r *Report) Summary() Summary {
	s := Summary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMS: r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		Planned:    len(r.Planned),
		Evaluated:  r.Evaluated(),
		Succeeded:  len(r.Succeeded()),
		Cancelled:  r.Cancelled,
	}

	if r.Err != nil {
		s.Error = r.Err.Error()
	}

	for _, id := range r.Failed() {
		if s.Failed == nil {
			s.Failed = make(map[string]string)
		}

		s.Failed[id.String()] = r.Outcomes[id].Err.Error()
	}

	for id, w := range r.Warnings() {
		if s.Warnings == nil {
			s.Warnings = make(map[string][]string)
		}

		s.Warnings[id.String()] = w
	}

	return s
}
