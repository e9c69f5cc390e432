package trace

import "math"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalClamps    int
	GroupsAffected int
	MaxMagnitude   float64             // largest |value| that was clamped
	ByCompartment  map[Compartment]int // compartment → clamp count
	FirstClamp     *ClampRecord        // earliest clamp in simulated time (nil if none)
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByCompartment: make(map[Compartment]int),
	}
	if st == nil {
		return summary
	}

	groups := make(map[int]bool)
	for i, c := range st.Clamps {
		summary.TotalClamps++
		summary.ByCompartment[c.Compartment]++
		groups[c.Group] = true
		if m := math.Abs(c.Value); m > summary.MaxMagnitude {
			summary.MaxMagnitude = m
		}
		if summary.FirstClamp == nil || c.Time < summary.FirstClamp.Time {
			summary.FirstClamp = &st.Clamps[i]
		}
	}
	summary.GroupsAffected = len(groups)

	return summary
}
