package metrics

import (
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

// SafetySummary counts safety incidents in the working set by type,
// with the most recent occurrence of each.
type SafetySummary struct {
	EStopCount      int        `json:"eStopCount"`
	OverloadCount   int        `json:"overloadCount"`
	ValveIssueCount int        `json:"valveIssueCount"`
	TotalIncidents  int        `json:"totalIncidents"`
	LastEStop       *time.Time `json:"lastEStop,omitempty"`
	LastOverload    *time.Time `json:"lastOverload,omitempty"`
	LastValveIssue  *time.Time `json:"lastValveIssue,omitempty"`
}

// Safety tallies the digital-input incident flags. Only wide-shape
// records carry the three flags; long-shape sets report zero counts.
func Safety(d *types.Dataset) SafetySummary {
	s := SafetySummary{}
	if d == nil {
		return s
	}

	latest := func(prev *time.Time, ts time.Time) *time.Time {
		if prev == nil || ts.After(*prev) {
			t := ts
			return &t
		}
		return prev
	}

	for i := range d.Cycles {
		rec := &d.Cycles[i]
		if rec.EStop {
			s.EStopCount++
			s.LastEStop = latest(s.LastEStop, rec.StartedAt)
		}
		if rec.OverloadTrip {
			s.OverloadCount++
			s.LastOverload = latest(s.LastOverload, rec.StartedAt)
		}
		if rec.ValveIssue {
			s.ValveIssueCount++
			s.LastValveIssue = latest(s.LastValveIssue, rec.StartedAt)
		}
	}
	s.TotalIncidents = s.EStopCount + s.OverloadCount + s.ValveIssueCount
	return s
}
