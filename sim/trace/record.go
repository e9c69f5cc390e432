// Package trace records numerical-stability events raised while integrating
// a simulation. It has no dependency on sim/ and stores pure data types.
package trace

// Compartment names one of the three SIR compartments.
type Compartment string

const (
	Susceptible Compartment = "susceptible"
	Infected    Compartment = "infected"
	Recovered   Compartment = "recovered"
)

// ClampRecord captures one compartment value that went negative through
// discretization error and was floored to zero.
type ClampRecord struct {
	Group       int     // index of the age group in the request
	GroupName   string  // optional group label (may be empty)
	Step        int     // integration step that produced the value (1-based)
	Time        float64 // simulated day at the end of that step
	Compartment Compartment
	Value       float64 // the negative value before clamping
}
