package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	sim "github.com/outbreak-sim/outbreak-sim/sim"
	"github.com/outbreak-sim/outbreak-sim/sim/trace"
)

// Environment variable names read by the serve command.
const (
	envAddr       = "OUTBREAK_ADDR"
	envLogLevel   = "OUTBREAK_LOG_LEVEL"
	envMethod     = "OUTBREAK_METHOD"
	envMaxStep    = "OUTBREAK_MAX_STEP"
	envMaxSteps   = "OUTBREAK_MAX_STEPS"
	envTraceLevel = "OUTBREAK_TRACE_LEVEL"
)

const defaultAddr = ":8080"

// EnvConfig holds service settings taken from the environment.
type EnvConfig struct {
	Addr       string
	LogLevel   string
	Method     string
	MaxStep    float64
	MaxSteps   int
	TraceLevel string
}

// LoadEnvConfig loads the first existing .env file among paths (variables
// already set in the process win), then reads the service settings.
func LoadEnvConfig(paths ...string) (*EnvConfig, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
			logrus.Debugf("Loaded environment from %s", path)
			break
		}
	}

	maxStep, err := getEnvFloat(envMaxStep, sim.DefaultMaxStep)
	if err != nil {
		return nil, err
	}
	maxSteps, err := getEnvInt(envMaxSteps, sim.DefaultMaxSteps)
	if err != nil {
		return nil, err
	}
	return &EnvConfig{
		Addr:       getEnvString(envAddr, defaultAddr),
		LogLevel:   getEnvString(envLogLevel, "info"),
		Method:     getEnvString(envMethod, string(sim.MethodRK4)),
		MaxStep:    maxStep,
		MaxSteps:   maxSteps,
		TraceLevel: getEnvString(envTraceLevel, string(trace.TraceLevelClamps)),
	}, nil
}

// ServiceConfig converts the environment settings into a sim.ServiceConfig.
func (c *EnvConfig) ServiceConfig() sim.ServiceConfig {
	return sim.ServiceConfig{
		Method:     sim.Method(c.Method),
		MaxStep:    c.MaxStep,
		MaxSteps:   c.MaxSteps,
		TraceLevel: trace.TraceLevel(c.TraceLevel),
	}
}

func getEnvString(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return f, nil
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}
