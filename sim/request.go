package sim

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SimulationRequest is a validated, typed simulation input. It is built fresh
// for each call and never shared between calls.
type SimulationRequest struct {
	AgeGroups       []AgeGroup `json:"age_groups" validate:"min=1"`
	DiseaseDuration float64    `json:"disease_duration" validate:"gt=0"` // horizon in days

	// Age is a legacy form field. It is carried through to the result and
	// has no effect on the model.
	Age *string `json:"age,omitempty"`
}

// TotalPopulation returns the sum of group populations.
func (r *SimulationRequest) TotalPopulation() float64 {
	total := 0.0
	for _, g := range r.AgeGroups {
		total += g.Population
	}
	return total
}

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names so messages match what the caller sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every range rule on the request. Per-group fields are
// reported with an index suffix when the request has more than one group.
// Returns a *ValidationError on the first violation.
func (r *SimulationRequest) Validate() error {
	if err := validateFinite("disease_duration", r.DiseaseDuration); err != nil {
		return err
	}
	if err := validate.Struct(r); err != nil {
		return translate(err, "")
	}
	for i := range r.AgeGroups {
		suffix := ""
		if len(r.AgeGroups) > 1 {
			suffix = fmt.Sprintf("[%d]", i)
		}
		g := &r.AgeGroups[i]
		for _, f := range []struct {
			name string
			val  float64
		}{
			{"contact_rate", g.ContactRate},
			{"recovery_rate", g.RecoveryRate},
			{"initial_infected", g.InitialInfected},
			{"population", g.Population},
		} {
			if err := validateFinite(f.name+suffix, f.val); err != nil {
				return err
			}
		}
		if err := validate.Struct(g); err != nil {
			return translate(err, suffix)
		}
	}
	return nil
}

func validateFinite(field string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return newValidationError(field, "must be a finite number, got %v", val)
	}
	return nil
}

// translate converts the first validator field error into a *ValidationError.
func translate(err error, suffix string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validating request: %w", err)
	}
	fe := fieldErrs[0]
	field := fe.Field() + suffix
	switch fe.Tag() {
	case "gte":
		return newValidationError(field, "must be non-negative, got %v", fe.Value())
	case "gt":
		return newValidationError(field, "must be positive, got %v", fe.Value())
	case "ltefield":
		return newValidationError(field, "must not exceed population%s, got %v", suffix, fe.Value())
	case "min":
		return newValidationError(field, "at least one age group is required")
	default:
		return newValidationError(field, "failed %q check", fe.Tag())
	}
}
