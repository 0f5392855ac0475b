package catalog

// SectionKey names the record section a step edits.
type SectionKey string

const (
	SectionBasicInfo        SectionKey = "basicInfo"
	SectionAboutMe          SectionKey = "aboutMe"
	SectionCareTeam         SectionKey = "careTeam"
	SectionGeneral          SectionKey = "general"
	SectionHealthConditions SectionKey = "healthConditions"
	SectionMedication       SectionKey = "medication"
	SectionRiskAssessments  SectionKey = "riskAssessments"
	SectionPersonalCare     SectionKey = "personalCare"
	SectionDietary          SectionKey = "dietary"
	SectionEducation        SectionKey = "education"
	SectionFamilyContact    SectionKey = "familyContact"
	SectionConsent          SectionKey = "consent"
)

// Tag marks a step as conditional.
type Tag string

const (
	TagNone      Tag = ""
	TagChildOnly Tag = "child-only"
)

// Category is the subject category used to filter steps.
type Category string

const (
	CategoryAdult      Category = "adult"
	CategoryOlderAdult Category = "older-adult"
	CategoryChild      Category = "child"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAdult, CategoryOlderAdult, CategoryChild:
		return true
	}
	return false
}

// Unlocks reports whether the category includes steps carrying tag.
func (c Category) Unlocks(tag Tag) bool {
	switch tag {
	case TagNone:
		return true
	case TagChildOnly:
		return c == CategoryChild
	default:
		return false
	}
}

// Step is one authoring step. IDs are positions in the catalog.
type Step struct {
	ID   int        `json:"id"`
	Key  SectionKey `json:"key"`
	Name string     `json:"name"`
	Tag  Tag        `json:"tag,omitempty"`
}

// Conditional reports whether the step is only shown for some categories.
func (s Step) Conditional() bool {
	return s.Tag != TagNone
}

// Change records a step insertion made in a catalog version.
type Change struct {
	Version  int        `json:"version"`
	Position int        `json:"position"`
	Inserted int        `json:"inserted"`
	Marker   SectionKey `json:"marker"`
}
