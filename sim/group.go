package sim

import "math"

// DefaultPopulation is the normalized group size used when a request does not
// carry a population. InitialInfected is then a fraction of the group.
const DefaultPopulation = 1.0

// AgeGroup is one independently parameterized, well-mixed population
// compartment. Groups never exchange infection with each other.
type AgeGroup struct {
	Name            string  `json:"name,omitempty"`
	ContactRate     float64 `json:"contact_rate" validate:"gte=0"`                        // β, per day
	RecoveryRate    float64 `json:"recovery_rate" validate:"gte=0"`                       // γ, per day
	Population      float64 `json:"population" validate:"gt=0"`                           // N
	InitialInfected float64 `json:"initial_infected" validate:"gte=0,ltefield=Population"` // I(0), at most N
}

// NewAgeGroup returns a group over the normalized population of 1.0.
func NewAgeGroup(contactRate, recoveryRate, initialInfected float64) AgeGroup {
	return AgeGroup{
		ContactRate:     contactRate,
		RecoveryRate:    recoveryRate,
		InitialInfected: initialInfected,
		Population:      DefaultPopulation,
	}
}

// InitialState returns S(0) = N - I(0), I(0), R(0) = 0.
func (g AgeGroup) InitialState() State {
	return State{
		S: g.Population - g.InitialInfected,
		I: g.InitialInfected,
		R: 0,
	}
}

// BasicReproductionNumber returns β/γ, or +Inf when γ is zero.
func (g AgeGroup) BasicReproductionNumber() float64 {
	if g.RecoveryRate == 0 {
		return math.Inf(1)
	}
	return g.ContactRate / g.RecoveryRate
}

// derivative evaluates the SIR right-hand side at s.
func (g AgeGroup) derivative(s State) State {
	// I/N stays within [0, 1], so the product cannot overflow for any
	// finite population.
	force := g.ContactRate * s.S * (s.I / g.Population)
	recovery := g.RecoveryRate * s.I
	return State{
		S: -force,
		I: force - recovery,
		R: recovery,
	}
}

// State is the compartment triple of one group at one instant.
type State struct {
	S, I, R float64
}

// Total returns S + I + R.
func (s State) Total() float64 {
	return s.S + s.I + s.R
}

// axpy returns s + h*d.
func (s State) axpy(h float64, d State) State {
	return State{
		S: s.S + h*d.S,
		I: s.I + h*d.I,
		R: s.R + h*d.R,
	}
}

func (s State) finite() bool {
	for _, v := range []float64{s.S, s.I, s.R} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
