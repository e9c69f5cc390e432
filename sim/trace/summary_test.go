package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalClamps != 0 || summary.GroupsAffected != 0 {
		t.Errorf("expected zero counts, got %d clamps in %d groups", summary.TotalClamps, summary.GroupsAffected)
	}
	if summary.FirstClamp != nil {
		t.Error("expected nil first clamp")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelClamps})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalClamps != 0 {
		t.Errorf("expected 0 clamps, got %d", summary.TotalClamps)
	}
	if summary.MaxMagnitude != 0 {
		t.Errorf("expected 0 max magnitude, got %g", summary.MaxMagnitude)
	}
	if len(summary.ByCompartment) != 0 {
		t.Error("expected empty compartment distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN clamps across two groups and two compartments
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelClamps})
	st.RecordClamp(ClampRecord{Group: 0, Step: 5, Time: 0.5, Compartment: Infected, Value: -1e-12})
	st.RecordClamp(ClampRecord{Group: 0, Step: 2, Time: 0.2, Compartment: Susceptible, Value: -3e-9})
	st.RecordClamp(ClampRecord{Group: 2, Step: 9, Time: 0.9, Compartment: Infected, Value: -2e-10})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts, magnitude and earliest clamp match
	if summary.TotalClamps != 3 {
		t.Errorf("expected 3 clamps, got %d", summary.TotalClamps)
	}
	if summary.GroupsAffected != 2 {
		t.Errorf("expected 2 groups affected, got %d", summary.GroupsAffected)
	}
	if summary.ByCompartment[Infected] != 2 || summary.ByCompartment[Susceptible] != 1 {
		t.Errorf("unexpected compartment distribution %v", summary.ByCompartment)
	}
	if summary.MaxMagnitude != 3e-9 {
		t.Errorf("expected max magnitude 3e-9, got %g", summary.MaxMagnitude)
	}
	if summary.FirstClamp == nil || summary.FirstClamp.Step != 2 {
		t.Errorf("expected first clamp at step 2, got %+v", summary.FirstClamp)
	}
}
