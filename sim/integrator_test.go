package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outbreak-sim/outbreak-sim/sim/internal/testutil"
	"github.com/outbreak-sim/outbreak-sim/sim/trace"
)

func mustIntegrator(t *testing.T, cfg IntegratorConfig) *Integrator {
	t.Helper()
	in, err := NewIntegrator(cfg)
	require.NoError(t, err)
	return in
}

func TestNewIntegrator_Defaults(t *testing.T) {
	in := mustIntegrator(t, IntegratorConfig{})
	assert.Equal(t, MethodRK4, in.Method())
	assert.Equal(t, DefaultMaxStep, in.ChooseStep(nil))
}

func TestNewIntegrator_InvalidConfig_ReturnsError(t *testing.T) {
	_, err := NewIntegrator(IntegratorConfig{Method: "midpoint"})
	assert.Error(t, err)
	_, err = NewIntegrator(IntegratorConfig{MaxStep: -0.5})
	assert.Error(t, err)
}

func TestIsValidMethod(t *testing.T) {
	assert.True(t, IsValidMethod(""))
	assert.True(t, IsValidMethod("rk4"))
	assert.True(t, IsValidMethod("euler"))
	assert.False(t, IsValidMethod("RK4"))
	assert.False(t, IsValidMethod("midpoint"))
}

func TestIntegrator_ChooseStep_BoundedByFastestRate(t *testing.T) {
	in := mustIntegrator(t, IntegratorConfig{MaxStep: 1})
	tests := []struct {
		name   string
		groups []AgeGroup
		want   float64
	}{
		{"zero rates use max step", []AgeGroup{NewAgeGroup(0, 0, 0)}, 1},
		{"slow rates use max step", []AgeGroup{NewAgeGroup(0.3, 0.1, 0)}, 1},
		{"fast contact rate", []AgeGroup{NewAgeGroup(4, 0.1, 0)}, 0.25},
		{"fast recovery rate", []AgeGroup{NewAgeGroup(0.1, 5, 0)}, 0.2},
		{"minimum across groups", []AgeGroup{NewAgeGroup(2, 0.1, 0), NewAgeGroup(0.1, 8, 0)}, 0.125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, in.ChooseStep(tt.groups))
		})
	}
}

func TestStepCount(t *testing.T) {
	tests := []struct {
		duration, step float64
		want           int
	}{
		{160, 0.1, 1600},
		{0.25, 0.1, 3},
		{1, 0.25, 4},
		{1e-12, 0.1, 0},
		{0, 0.1, 0},
		{10, 0, 0},
		// counts beyond int range saturate instead of wrapping negative
		{1e18, 0.1, math.MaxInt},
		{1e300, 0.1, math.MaxInt},
		{160, 1e-300, math.MaxInt},
	}
	for _, tt := range tests {
		if got := StepCount(tt.duration, tt.step); got != tt.want {
			t.Errorf("StepCount(%v, %v) = %d, want %d", tt.duration, tt.step, got, tt.want)
		}
	}
}

func TestTimeGrid_EndsExactlyAtHorizon(t *testing.T) {
	times := TimeGrid(0.25, 3)
	require.Len(t, times, 4)
	assert.Equal(t, 0.0, times[0])
	assert.Equal(t, 0.25, times[3])
	for i := 1; i < len(times); i++ {
		assert.Greater(t, times[i], times[i-1])
	}
	assert.Equal(t, []float64{0}, TimeGrid(5, 0))
}

func TestIntegrate_NearZeroHorizon_SinglePointAtInitialConditions(t *testing.T) {
	// GIVEN a horizon too short for a single step
	in := mustIntegrator(t, IntegratorConfig{})
	req := &SimulationRequest{
		AgeGroups:       []AgeGroup{NewAgeGroup(0.3, 0.1, 0.01)},
		DiseaseDuration: 1e-12,
	}

	// WHEN integrated
	out, err := in.Integrate(req)

	// THEN the trajectory is the initial state only
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, out.Time)
	require.Len(t, out.Groups, 1)
	assert.Equal(t, []float64{0.99}, out.Groups[0].Susceptible)
	assert.Equal(t, []float64{0.01}, out.Groups[0].Infected)
	assert.Equal(t, []float64{0}, out.Groups[0].Recovered)
}

func TestIntegrate_BothMethods_ConserveAndStayNonNegative(t *testing.T) {
	for _, method := range []Method{MethodRK4, MethodEuler} {
		t.Run(string(method), func(t *testing.T) {
			in := mustIntegrator(t, IntegratorConfig{Method: method})
			req := &SimulationRequest{
				AgeGroups: []AgeGroup{
					{ContactRate: 0.3, RecoveryRate: 0.1, InitialInfected: 10, Population: 1000},
					{ContactRate: 1.5, RecoveryRate: 0.5, InitialInfected: 0.2, Population: 1},
				},
				DiseaseDuration: 120,
			}
			out, err := in.Integrate(req)
			require.NoError(t, err)
			for i, g := range req.AgeGroups {
				tr := out.Groups[i]
				require.Equal(t, len(out.Time), tr.Len())
				testutil.AssertConserved(t, tr.Susceptible, tr.Infected, tr.Recovered, g.Population, 1e-9)
				testutil.AssertNonNegative(t, map[string][]float64{
					"S": tr.Susceptible, "I": tr.Infected, "R": tr.Recovered,
				})
			}
		})
	}
}

func TestIntegrate_SusceptibleNonIncreasing(t *testing.T) {
	in := mustIntegrator(t, IntegratorConfig{})
	req := &SimulationRequest{
		AgeGroups:       []AgeGroup{NewAgeGroup(0.8, 0.05, 0.001), NewAgeGroup(0.2, 0.3, 0.1)},
		DiseaseDuration: 200,
	}
	out, err := in.Integrate(req)
	require.NoError(t, err)
	for gi, tr := range out.Groups {
		for k := 1; k < len(tr.Susceptible); k++ {
			if tr.Susceptible[k] > tr.Susceptible[k-1] {
				t.Fatalf("group %d: S increased at step %d: %v -> %v", gi, k, tr.Susceptible[k-1], tr.Susceptible[k])
			}
		}
	}
}

func TestIntegrate_NoInitialInfection_NoOutbreak(t *testing.T) {
	in := mustIntegrator(t, IntegratorConfig{})
	req := &SimulationRequest{
		AgeGroups:       []AgeGroup{{ContactRate: 0.9, RecoveryRate: 0.1, InitialInfected: 0, Population: 250}},
		DiseaseDuration: 30,
	}
	out, err := in.Integrate(req)
	require.NoError(t, err)
	for k := range out.Time {
		assert.Equal(t, 0.0, out.Groups[0].Infected[k])
		assert.Equal(t, 250.0, out.Groups[0].Susceptible[k])
	}
}

func TestIntegrate_MethodChangesTrajectory(t *testing.T) {
	// The scheme is part of the result: Euler and RK4 disagree numerically.
	req := &SimulationRequest{
		AgeGroups:       []AgeGroup{NewAgeGroup(0.3, 0.1, 0.01)},
		DiseaseDuration: 60,
	}
	rk4, err := mustIntegrator(t, IntegratorConfig{Method: MethodRK4}).Integrate(req)
	require.NoError(t, err)
	euler, err := mustIntegrator(t, IntegratorConfig{Method: MethodEuler}).Integrate(req)
	require.NoError(t, err)
	assert.Equal(t, rk4.Time, euler.Time)
	assert.NotEqual(t, rk4.Groups[0].Infected, euler.Groups[0].Infected)
	last := len(rk4.Time) - 1
	testutil.AssertFloat64Equal(t, "final infected", rk4.Groups[0].Infected[last], euler.Groups[0].Infected[last], 0.05)
}

func TestClampNegative_FloorsAndRecords(t *testing.T) {
	// GIVEN a state with two negative compartments
	x := State{S: -1e-15, I: 0.4, R: -2e-16}

	// WHEN clamped
	got, clamps := clampNegative(3, "elderly", 7, 0.7, x, nil)

	// THEN negatives are zero and each is recorded
	assert.Equal(t, State{S: 0, I: 0.4, R: 0}, got)
	require.Len(t, clamps, 2)
	assert.Equal(t, trace.ClampRecord{Group: 3, GroupName: "elderly", Step: 7, Time: 0.7, Compartment: trace.Susceptible, Value: -1e-15}, clamps[0])
	assert.Equal(t, trace.Recovered, clamps[1].Compartment)
}

func TestClampNegative_NonNegativeState_Untouched(t *testing.T) {
	x := State{S: 0, I: 0.1, R: 0.9}
	got, clamps := clampNegative(0, "", 1, 0.1, x, nil)
	assert.Equal(t, x, got)
	assert.Empty(t, clamps)
}

func TestIntegrate_OverflowingHorizon_ReturnsError(t *testing.T) {
	in := mustIntegrator(t, IntegratorConfig{})
	_, err := in.Integrate(&SimulationRequest{
		AgeGroups:       []AgeGroup{NewAgeGroup(0.3, 0.1, 0.01)},
		DiseaseDuration: 1e300,
	})
	assert.Error(t, err)
}

func TestIntegrateGroup_Divergence_NamesGroup(t *testing.T) {
	// GIVEN a step so large that one Euler update overflows
	in := mustIntegrator(t, IntegratorConfig{Method: MethodEuler})
	g := AgeGroup{Name: "elderly", RecoveryRate: 4, Population: 1, InitialInfected: 0.5}

	_, _, err := in.integrateGroup(2, g, []float64{0, 1}, math.MaxFloat64)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "group 2")
	assert.Contains(t, err.Error(), `"elderly"`)
}
