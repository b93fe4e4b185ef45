package metrics

import (
	"sort"

	"github.com/balefleet/balewatch/internal/types"
)

// Device health statuses, from per-device error and anomaly figures.
const (
	StatusHealthy  = "Healthy"
	StatusWarning  = "Warning"
	StatusCritical = "Critical"
)

// DeviceSummary is one device's aggregate line in the ranking views.
type DeviceSummary struct {
	DeviceID         string  `json:"deviceId"`
	Location         string  `json:"location,omitempty"`
	RuntimeHours     float64 `json:"runtimeHours"`
	Cycles           int     `json:"cycles"`
	EnergyKWh        float64 `json:"energyKwh"`
	ErrorCount       int     `json:"errorCount"`
	MeanAnomalyScore float64 `json:"meanAnomalyScore"`
	Status           string  `json:"status"`
}

// Rankings holds both ranking views: most runtime first, and the
// bottom-N needing attention, least runtime first.
type Rankings struct {
	TopPerformers   []DeviceSummary `json:"topPerformers"`
	AttentionNeeded []DeviceSummary `json:"attentionNeeded"`
}

// DefaultRankingSize caps each ranking view.
const DefaultRankingSize = 5

// Rank groups cycles by device and produces both ranking views. Ties
// keep the dataset's deterministic device grouping order; stable sorts
// preserve it, so first-seen order is the tie-break.
func Rank(d *types.Dataset, n int) Rankings {
	if n <= 0 {
		n = DefaultRankingSize
	}

	summaries := deviceSummaries(d)
	if len(summaries) == 0 {
		return Rankings{}
	}

	top := make([]DeviceSummary, len(summaries))
	copy(top, summaries)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].RuntimeHours > top[j].RuntimeHours
	})
	if len(top) > n {
		top = top[:n]
	}

	bottom := make([]DeviceSummary, len(summaries))
	copy(bottom, summaries)
	sort.SliceStable(bottom, func(i, j int) bool {
		return bottom[i].RuntimeHours < bottom[j].RuntimeHours
	})
	if len(bottom) > n {
		bottom = bottom[:n]
	}

	return Rankings{TopPerformers: top, AttentionNeeded: bottom}
}

// deviceSummaries aggregates per device in first-seen device order.
func deviceSummaries(d *types.Dataset) []DeviceSummary {
	cv := cycles(d)
	if len(cv) == 0 {
		return nil
	}

	index := make(map[string]int)
	var summaries []DeviceSummary
	scores := make(map[string][]float64)

	for _, c := range cv {
		i, seen := index[c.deviceID]
		if !seen {
			i = len(summaries)
			index[c.deviceID] = i
			summaries = append(summaries, DeviceSummary{
				DeviceID: c.deviceID,
				Location: c.location,
			})
		}
		s := &summaries[i]
		s.RuntimeHours += c.runtimeHours
		s.Cycles++
		s.EnergyKWh += c.energyKWh
		if c.hasError {
			s.ErrorCount++
		}
		scores[c.deviceID] = append(scores[c.deviceID], c.healthScore)
	}

	for i := range summaries {
		s := &summaries[i]
		s.MeanAnomalyScore = mean(scores[s.DeviceID])
		switch {
		case s.MeanAnomalyScore > 0.5:
			s.Status = StatusCritical
		case s.ErrorCount > 0:
			s.Status = StatusWarning
		default:
			s.Status = StatusHealthy
		}
	}
	return summaries
}
