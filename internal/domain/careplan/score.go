package careplan

import (
	"math"

	"github.com/rpggio/careplan/internal/domain/catalog"
)

// Completion is the progress of a record against its active steps.
type Completion struct {
	CompletedStepIDs []int `json:"completed_step_ids"`
	Completed        int   `json:"completed"`
	Active           int   `json:"active"`
	Percentage       int   `json:"percentage"`
}

// Has reports whether step id is complete.
func (c Completion) Has(id int) bool {
	for _, completed := range c.CompletedStepIDs {
		if completed == id {
			return true
		}
	}
	return false
}

// Score computes which active steps are complete and the rounded
// percentage. It has no side effects; the record list and the wizard both
// call it so their numbers agree.
func Score(c *catalog.Catalog, rec Record, category catalog.Category, ctx CompletionContext) Completion {
	active := catalog.Filter(c, category)
	completed := make([]int, 0, len(active))
	for _, step := range active {
		section, ok := rec.Section(step.Key)
		if !ok {
			continue
		}
		if section.Complete(ctx) {
			completed = append(completed, step.ID)
		}
	}

	percentage := 0
	if len(active) > 0 {
		percentage = int(math.Round(100 * float64(len(completed)) / float64(len(active))))
	}

	return Completion{
		CompletedStepIDs: completed,
		Completed:        len(completed),
		Active:           len(active),
		Percentage:       percentage,
	}
}
