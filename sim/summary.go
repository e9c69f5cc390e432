package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// subsideFraction is the share of the peak below which infections count as
// having subsided.
const subsideFraction = 0.01

// countThreshold is the total population above which values are reported as
// whole individuals rather than fractions.
const countThreshold = 100

// Summary holds the extremum and endpoint statistics of an aggregated
// trajectory.
type Summary struct {
	TotalPopulation  float64
	InitialInfected  float64
	PeakInfected     float64
	PeakDay          float64
	PeakIndex        int
	EndDay           float64
	FinalSusceptible float64
	FinalInfected    float64
	FinalRecovered   float64
	AttackRate       float64 // final recovered / total population
	Subsided         bool    // infected fell below 1% of peak after the peak
	SubsidedDay      float64 // valid only when Subsided
}

// Summarize derives a Summary from an aggregated result. It is a pure
// function of res.
func Summarize(res *SimulationResult) Summary {
	var s Summary
	n := len(res.Time)
	if n == 0 {
		return s
	}
	last := n - 1
	s.TotalPopulation = res.Susceptible[0] + res.Infected[0] + res.Recovered[0]
	s.InitialInfected = res.Infected[0]
	s.PeakIndex = floats.MaxIdx(res.Infected)
	s.PeakInfected = res.Infected[s.PeakIndex]
	s.PeakDay = res.Time[s.PeakIndex]
	s.EndDay = res.Time[last]
	s.FinalSusceptible = res.Susceptible[last]
	s.FinalInfected = res.Infected[last]
	s.FinalRecovered = res.Recovered[last]
	if s.TotalPopulation > 0 {
		s.AttackRate = s.FinalRecovered / s.TotalPopulation
	}
	if s.PeakInfected > 0 {
		threshold := subsideFraction * s.PeakInfected
		for i := s.PeakIndex + 1; i < n; i++ {
			if res.Infected[i] < threshold {
				s.Subsided = true
				s.SubsidedDay = res.Time[i]
				break
			}
		}
	}
	return s
}

// Describe renders a Summary as a few plain sentences covering the peak, the
// final recovered count and the outcome at the horizon.
func Describe(s Summary) string {
	count := func(v float64) string { return formatAmount(v, s.TotalPopulation) }
	var b strings.Builder

	switch {
	case s.PeakInfected == 0:
		fmt.Fprintf(&b, "No infections were present, so the population (%s) stayed fully susceptible through day %s.",
			count(s.TotalPopulation), formatDay(s.EndDay))
		return b.String()
	case s.EndDay == 0:
		fmt.Fprintf(&b, "The simulation covers only the initial conditions: %s infected and %s susceptible on day 0.",
			count(s.InitialInfected), count(s.FinalSusceptible))
		return b.String()
	}

	fmt.Fprintf(&b, "The disease peaked on day %s with %s infected individuals. ",
		formatDay(s.PeakDay), count(s.PeakInfected))
	switch {
	case s.PeakDay == s.EndDay:
		b.WriteString("Infections were still rising at the end of the simulation. ")
	case s.PeakIndex == 0:
		b.WriteString("Infections declined from the start because recovery outpaced transmission. ")
	default:
		fmt.Fprintf(&b, "After day %s, the number of infected people started to decrease as more individuals recovered. ",
			formatDay(s.PeakDay))
	}
	fmt.Fprintf(&b, "By the end of the simulation (day %s), %s people had recovered (%.1f%% of the population).",
		formatDay(s.EndDay), count(s.FinalRecovered), 100*s.AttackRate)
	if s.Subsided {
		fmt.Fprintf(&b, " The outbreak subsided by day %s.", formatDay(s.SubsidedDay))
	} else if s.PeakDay != s.EndDay {
		fmt.Fprintf(&b, " The outbreak was still active at the end of the horizon with %s infected.",
			count(s.FinalInfected))
	}
	return b.String()
}

// formatDay prints a day rounded to two decimals without trailing zeros.
func formatDay(t float64) string {
	return strconv.FormatFloat(math.Round(t*100)/100, 'f', -1, 64)
}

// formatAmount prints whole individuals for count-scale populations and four
// decimals for normalized ones.
func formatAmount(v, population float64) string {
	if population >= countThreshold {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
