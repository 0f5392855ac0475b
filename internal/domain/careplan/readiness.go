package careplan

import "fmt"

// MinimumCompletedSections is the number of complete steps a plan needs
// before it is considered ready.
const MinimumCompletedSections = 3

// Condition identifies one readiness rule.
type Condition string

const (
	ConditionMinimumSections  Condition = "minimum_sections"
	ConditionProviderAssigned Condition = "provider_assigned"
)

// Unmet describes a readiness rule that does not hold.
type Unmet struct {
	Condition Condition `json:"condition"`
	Message   string    `json:"message"`
}

// Readiness is advisory: finalize may still proceed with an override.
type Readiness struct {
	Ready     bool    `json:"ready"`
	Completed int     `json:"completed"`
	Unmet     []Unmet `json:"unmet,omitempty"`
}

// CheckReadiness evaluates the finalize guard.
func CheckReadiness(rec Record, completion Completion) Readiness {
	var unmet []Unmet
	if completion.Completed < MinimumCompletedSections {
		unmet = append(unmet, Unmet{
			Condition: ConditionMinimumSections,
			Message: fmt.Sprintf("%d of %d required sections complete",
				completion.Completed, MinimumCompletedSections),
		})
	}
	if !ProviderAssigned(rec.CareTeam) {
		msg := "no staff assigned"
		if rec.CareTeam != nil && rec.CareTeam.ProviderType == ProviderExternal {
			msg = "external provider name missing"
		}
		unmet = append(unmet, Unmet{Condition: ConditionProviderAssigned, Message: msg})
	}

	return Readiness{
		Ready:     len(unmet) == 0,
		Completed: completion.Completed,
		Unmet:     unmet,
	}
}

// Missing reports whether a condition is unmet.
func (r Readiness) Missing(c Condition) bool {
	for _, u := range r.Unmet {
		if u.Condition == c {
			return true
		}
	}
	return false
}
