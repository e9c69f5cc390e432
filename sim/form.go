package sim

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Form field names accepted by ParseForm. Group fields may be sent either as
// scalars (one age group) or with a "[]" suffix, repeated once per group.
const (
	FieldContactRate     = "contact_rate"
	FieldRecoveryRate    = "recovery_rate"
	FieldInitialInfected = "initial_infected"
	FieldPopulation      = "population"
	FieldDiseaseDuration = "disease_duration"
	FieldAge             = "age"
)

// groupFields lists the per-group fields in reporting order. Population is
// optional and defaults to DefaultPopulation.
var groupFields = []struct {
	name     string
	required bool
}{
	{FieldContactRate, true},
	{FieldRecoveryRate, true},
	{FieldInitialInfected, true},
	{FieldPopulation, false},
}

// ParseForm turns raw form values into a validated SimulationRequest.
// Service.Simulate validates again for requests built by other callers.
// It is a pure function: nothing is logged and no state is kept.
// Every failure is a *ValidationError naming the offending field.
func ParseForm(values url.Values) (*SimulationRequest, error) {
	groups, err := parseGroups(values)
	if err != nil {
		return nil, err
	}
	duration, err := parseScalar(values, FieldDiseaseDuration)
	if err != nil {
		return nil, err
	}
	req := &SimulationRequest{
		AgeGroups:       groups,
		DiseaseDuration: duration,
	}
	if values.Has(FieldAge) {
		age := values.Get(FieldAge)
		req.Age = &age
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func parseGroups(values url.Values) ([]AgeGroup, error) {
	var scalar, array string
	for _, f := range groupFields {
		if scalar == "" && values.Has(f.name) {
			scalar = f.name
		}
		if array == "" && values.Has(f.name+"[]") {
			array = f.name + "[]"
		}
	}
	switch {
	case scalar != "" && array != "":
		return nil, newValidationError(scalar, "cannot be combined with %s; send either scalar or array fields", array)
	case array != "":
		return parseGroupArrays(values)
	default:
		g, err := parseGroupScalars(values)
		if err != nil {
			return nil, err
		}
		return []AgeGroup{g}, nil
	}
}

func parseGroupScalars(values url.Values) (AgeGroup, error) {
	g := AgeGroup{Population: DefaultPopulation}
	targets := []*float64{&g.ContactRate, &g.RecoveryRate, &g.InitialInfected, &g.Population}
	for i, f := range groupFields {
		if !f.required && !values.Has(f.name) {
			continue
		}
		v, err := parseScalar(values, f.name)
		if err != nil {
			return AgeGroup{}, err
		}
		*targets[i] = v
	}
	return g, nil
}

func parseGroupArrays(values url.Values) ([]AgeGroup, error) {
	n := len(values[FieldContactRate+"[]"])
	if n == 0 {
		return nil, newValidationError(FieldContactRate+"[]", "is required")
	}
	groups := make([]AgeGroup, n)
	for i := range groups {
		groups[i].Population = DefaultPopulation
	}
	for _, f := range groupFields {
		key := f.name + "[]"
		raw, ok := values[key]
		if !ok {
			if f.required {
				return nil, newValidationError(key, "is required")
			}
			continue
		}
		if len(raw) != n {
			return nil, newValidationError(key, "has %d entries, %s has %d", len(raw), FieldContactRate+"[]", n)
		}
		for i, s := range raw {
			v, err := parseReal(f.name+"["+strconv.Itoa(i)+"]", s)
			if err != nil {
				return nil, err
			}
			g := &groups[i]
			switch f.name {
			case FieldContactRate:
				g.ContactRate = v
			case FieldRecoveryRate:
				g.RecoveryRate = v
			case FieldInitialInfected:
				g.InitialInfected = v
			case FieldPopulation:
				g.Population = v
			}
		}
	}
	return groups, nil
}

func parseScalar(values url.Values, field string) (float64, error) {
	raw, ok := values[field]
	if !ok || len(raw) == 0 {
		return 0, newValidationError(field, "is required")
	}
	if len(raw) > 1 {
		return 0, newValidationError(field, "expected a single value, got %d", len(raw))
	}
	return parseReal(field, raw[0])
}

func parseReal(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, newValidationError(field, "is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newValidationError(field, "must be a real number, got %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, newValidationError(field, "must be a finite number, got %q", raw)
	}
	return v, nil
}
