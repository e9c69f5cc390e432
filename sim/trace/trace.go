package trace

// TraceLevel controls whether clamp events are kept.
type TraceLevel string

const (
	// TraceLevelNone disables recording. Clamps are still logged.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelClamps keeps every clamp record.
	TraceLevelClamps TraceLevel = "clamps"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelClamps: true,
	"":               true, // empty defaults to clamps
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects clamp records for one simulation run.
// It is not safe for concurrent use; callers merge per-group records
// after integration.
type SimulationTrace struct {
	Config TraceConfig
	Clamps []ClampRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Clamps: make([]ClampRecord, 0),
	}
}

// RecordClamp appends a clamp record unless recording is disabled.
// Safe on a nil trace.
func (st *SimulationTrace) RecordClamp(record ClampRecord) {
	if st == nil || st.Config.Level == TraceLevelNone {
		return
	}
	st.Clamps = append(st.Clamps, record)
}
