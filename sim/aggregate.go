package sim

import (
	"gonum.org/v1/gonum/floats"
)

// Aggregate sums per-group trajectories index-wise into population totals.
// Every series of every group must have exactly len(times) points; any
// disagreement is reported as an *InconsistentGridError.
func Aggregate(times []float64, groups []Trajectory) (*SimulationResult, error) {
	n := len(times)
	res := &SimulationResult{
		Time:        append([]float64(nil), times...),
		Susceptible: make([]float64, n),
		Infected:    make([]float64, n),
		Recovered:   make([]float64, n),
	}
	for i, g := range groups {
		for _, series := range [][]float64{g.Susceptible, g.Infected, g.Recovered} {
			if len(series) != n {
				return nil, &InconsistentGridError{Group: i, Want: n, Got: len(series)}
			}
		}
		floats.Add(res.Susceptible, g.Susceptible)
		floats.Add(res.Infected, g.Infected)
		floats.Add(res.Recovered, g.Recovered)
	}
	return res, nil
}
