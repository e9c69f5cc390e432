package sim

import (
	"fmt"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/outbreak-sim/outbreak-sim/sim/trace"
)

// Method selects the fixed-step explicit integration scheme. The choice
// changes trajectories numerically, not just their precision.
type Method string

const (
	// MethodRK4 is the classical 4th-order Runge-Kutta scheme (default).
	MethodRK4 Method = "rk4"
	// MethodEuler is the forward Euler scheme.
	MethodEuler Method = "euler"
)

var validMethods = map[Method]bool{MethodRK4: true, MethodEuler: true}

// IsValidMethod reports whether name selects a known scheme. Empty means
// the default and is accepted.
func IsValidMethod(name string) bool {
	return name == "" || validMethods[Method(name)]
}

const (
	// DefaultMaxStep is the step upper bound in days when rates allow more.
	DefaultMaxStep = 0.1
	// horizonEpsilon absorbs floating-point noise in duration/step so that an
	// exact multiple does not gain an extra step and a near-zero horizon
	// yields no steps at all.
	horizonEpsilon = 1e-9
)

// IntegratorConfig configures an Integrator.
type IntegratorConfig struct {
	Method  Method  // "" means MethodRK4
	MaxStep float64 // upper bound on Δt in days; 0 means DefaultMaxStep
}

// Trajectory is one group's aligned compartment series on the shared grid.
type Trajectory struct {
	Susceptible []float64
	Infected    []float64
	Recovered   []float64
}

// Len returns the number of points in the shortest series.
func (tr Trajectory) Len() int {
	return min(len(tr.Susceptible), len(tr.Infected), len(tr.Recovered))
}

// Integration is the raw integrator output before aggregation.
type Integration struct {
	Time   []float64
	Step   float64
	Groups []Trajectory
	Clamps []trace.ClampRecord // ordered by group, then step
}

// Integrator advances the SIR equations of every group over one time grid.
// It holds only configuration and is safe for concurrent use.
type Integrator struct {
	method  Method
	maxStep float64
}

// NewIntegrator validates cfg and returns an Integrator.
func NewIntegrator(cfg IntegratorConfig) (*Integrator, error) {
	if !IsValidMethod(string(cfg.Method)) {
		return nil, fmt.Errorf("unknown integration method %q; valid: rk4, euler", cfg.Method)
	}
	if math.IsNaN(cfg.MaxStep) || math.IsInf(cfg.MaxStep, 0) || cfg.MaxStep < 0 {
		return nil, fmt.Errorf("max step must be a finite non-negative number, got %v", cfg.MaxStep)
	}
	in := &Integrator{method: cfg.Method, maxStep: cfg.MaxStep}
	if in.method == "" {
		in.method = MethodRK4
	}
	if in.maxStep == 0 {
		in.maxStep = DefaultMaxStep
	}
	return in, nil
}

// Method returns the scheme in use.
func (in *Integrator) Method() Method { return in.method }

// ChooseStep returns the largest step not exceeding the configured maximum,
// 1/β or 1/γ of any group with a nonzero rate.
func (in *Integrator) ChooseStep(groups []AgeGroup) float64 {
	dt := in.maxStep
	for _, g := range groups {
		if g.ContactRate > 0 {
			dt = math.Min(dt, 1/g.ContactRate)
		}
		if g.RecoveryRate > 0 {
			dt = math.Min(dt, 1/g.RecoveryRate)
		}
	}
	return dt
}

// StepCount returns ceil(duration/maxStep), treating values within
// horizonEpsilon of an integer as that integer. Never negative. Counts that
// do not fit in an int saturate at math.MaxInt.
func StepCount(duration, maxStep float64) int {
	if duration <= 0 || maxStep <= 0 {
		return 0
	}
	n := math.Ceil(duration/maxStep - horizonEpsilon)
	switch {
	case n < 0:
		return 0
	case n >= float64(math.MaxInt):
		return math.MaxInt
	}
	return int(n)
}

// TimeGrid returns steps+1 points from 0 to duration inclusive.
func TimeGrid(duration float64, steps int) []float64 {
	if steps <= 0 {
		return []float64{0}
	}
	dt := duration / float64(steps)
	times := make([]float64, steps+1)
	for k := range times {
		times[k] = float64(k) * dt
	}
	times[steps] = duration
	return times
}

// Integrate computes every group's trajectory in isolation on a shared grid.
// The step actually used is duration/steps, so the grid ends exactly at the
// horizon and never exceeds ChooseStep. A horizon with no computable steps
// returns a single point equal to the initial conditions.
func (in *Integrator) Integrate(req *SimulationRequest) (*Integration, error) {
	steps := StepCount(req.DiseaseDuration, in.ChooseStep(req.AgeGroups))
	if steps == math.MaxInt {
		return nil, fmt.Errorf("horizon of %g days needs too many steps", req.DiseaseDuration)
	}
	times := TimeGrid(req.DiseaseDuration, steps)
	dt := 0.0
	if steps > 0 {
		dt = req.DiseaseDuration / float64(steps)
	}

	out := &Integration{
		Time:   times,
		Step:   dt,
		Groups: make([]Trajectory, len(req.AgeGroups)),
	}
	clamps := make([][]trace.ClampRecord, len(req.AgeGroups))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range req.AgeGroups {
		i, g := i, g
		eg.Go(func() error {
			tr, cl, err := in.integrateGroup(i, g, times, dt)
			out.Groups[i] = tr
			clamps[i] = cl
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for _, cl := range clamps {
		out.Clamps = append(out.Clamps, cl...)
	}
	return out, nil
}

func (in *Integrator) integrateGroup(idx int, g AgeGroup, times []float64, dt float64) (Trajectory, []trace.ClampRecord, error) {
	n := len(times)
	tr := Trajectory{
		Susceptible: make([]float64, n),
		Infected:    make([]float64, n),
		Recovered:   make([]float64, n),
	}
	var clamps []trace.ClampRecord

	x := g.InitialState()
	tr.Susceptible[0], tr.Infected[0], tr.Recovered[0] = x.S, x.I, x.R

	for k := 1; k < n; k++ {
		switch in.method {
		case MethodEuler:
			x = x.axpy(dt, g.derivative(x))
		default:
			x = rk4Step(g, x, dt)
		}
		if !x.finite() {
			return tr, clamps, fmt.Errorf("group %d (%q) diverged at step %d (t=%g): %+v", idx, g.Name, k, times[k], x)
		}
		x, clamps = clampNegative(idx, g.Name, k, times[k], x, clamps)
		tr.Susceptible[k], tr.Infected[k], tr.Recovered[k] = x.S, x.I, x.R
	}
	return tr, clamps, nil
}

func rk4Step(g AgeGroup, x State, h float64) State {
	k1 := g.derivative(x)
	k2 := g.derivative(x.axpy(h/2, k1))
	k3 := g.derivative(x.axpy(h/2, k2))
	k4 := g.derivative(x.axpy(h, k3))
	return State{
		S: x.S + h/6*(k1.S+2*k2.S+2*k3.S+k4.S),
		I: x.I + h/6*(k1.I+2*k2.I+2*k3.I+k4.I),
		R: x.R + h/6*(k1.R+2*k2.R+2*k3.R+k4.R),
	}
}

// clampNegative floors negative compartments to zero, logging and recording
// each occurrence.
func clampNegative(idx int, name string, step int, t float64, x State, clamps []trace.ClampRecord) (State, []trace.ClampRecord) {
	for _, c := range []struct {
		comp trace.Compartment
		val  *float64
	}{
		{trace.Susceptible, &x.S},
		{trace.Infected, &x.I},
		{trace.Recovered, &x.R},
	} {
		if *c.val >= 0 {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"group":       idx,
			"step":        step,
			"time":        t,
			"compartment": c.comp,
			"value":       *c.val,
		}).Warn("numerical stability: negative compartment clamped to zero")
		clamps = append(clamps, trace.ClampRecord{
			Group:       idx,
			GroupName:   name,
			Step:        step,
			Time:        t,
			Compartment: c.comp,
			Value:       *c.val,
		})
		*c.val = 0
	}
	return x, clamps
}
