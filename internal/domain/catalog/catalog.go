package catalog

import (
	"fmt"
	"slices"
)

// Catalog is the ordered, immutable list of authoring steps.
type Catalog struct {
	version int
	steps   []Step
	changes []Change
}

// New validates and builds a catalog. Step IDs must be strictly increasing
// and section keys unique.
func New(version int, steps []Step, changes []Change) (*Catalog, error) {
	if version < 1 {
		return nil, fmt.Errorf("%w: version must be positive", ErrInvalidCatalog)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidCatalog)
	}

	keys := make(map[SectionKey]struct{}, len(steps))
	prev := 0
	for _, step := range steps {
		if step.ID <= prev {
			return nil, fmt.Errorf("%w: step %d out of order", ErrInvalidCatalog, step.ID)
		}
		if _, dup := keys[step.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate section %q", ErrInvalidCatalog, step.Key)
		}
		keys[step.Key] = struct{}{}
		prev = step.ID
	}

	for _, change := range changes {
		if change.Version < 1 || change.Version > version {
			return nil, fmt.Errorf("%w: change version %d", ErrInvalidCatalog, change.Version)
		}
		if change.Position < 1 || change.Inserted < 1 {
			return nil, fmt.Errorf("%w: change at position %d", ErrInvalidCatalog, change.Position)
		}
		if _, ok := keys[change.Marker]; !ok {
			return nil, fmt.Errorf("%w: unknown marker %q", ErrInvalidCatalog, change.Marker)
		}
	}

	return &Catalog{
		version: version,
		steps:   slices.Clone(steps),
		changes: slices.Clone(changes),
	}, nil
}

// Version returns the catalog version.
func (c *Catalog) Version() int {
	return c.version
}

// Steps returns a copy of every step in catalog order.
func (c *Catalog) Steps() []Step {
	return slices.Clone(c.steps)
}

// Changes returns the step insertions in the order they were made.
func (c *Catalog) Changes() []Change {
	return slices.Clone(c.changes)
}

// Step looks up a step by ID.
func (c *Catalog) Step(id int) (Step, bool) {
	for _, step := range c.steps {
		if step.ID == id {
			return step, true
		}
	}
	return Step{}, false
}

// StepFor looks up the step that edits a section.
func (c *Catalog) StepFor(key SectionKey) (Step, bool) {
	for _, step := range c.steps {
		if step.Key == key {
			return step, true
		}
	}
	return Step{}, false
}

var defaultCatalog = mustNew(2,
	[]Step{
		{ID: 1, Key: SectionBasicInfo, Name: "Basic Information"},
		{ID: 2, Key: SectionAboutMe, Name: "About Me"},
		{ID: 3, Key: SectionCareTeam, Name: "Care Team"},
		{ID: 4, Key: SectionGeneral, Name: "General"},
		{ID: 5, Key: SectionHealthConditions, Name: "Health Conditions"},
		{ID: 6, Key: SectionMedication, Name: "Medication"},
		{ID: 7, Key: SectionRiskAssessments, Name: "Risk Assessments"},
		{ID: 8, Key: SectionPersonalCare, Name: "Personal Care"},
		{ID: 9, Key: SectionDietary, Name: "Dietary Requirements"},
		{ID: 10, Key: SectionEducation, Name: "Education & Development", Tag: TagChildOnly},
		{ID: 11, Key: SectionFamilyContact, Name: "Family Contact", Tag: TagChildOnly},
		{ID: 12, Key: SectionConsent, Name: "Consent & Sign-off"},
	},
	[]Change{
		{Version: 2, Position: 4, Inserted: 1, Marker: SectionGeneral},
	},
)

// Default returns the care-plan catalog.
func Default() *Catalog {
	return defaultCatalog
}

func mustNew(version int, steps []Step, changes []Change) *Catalog {
	c, err := New(version, steps, changes)
	if err != nil {
		panic(err)
	}
	return c
}
