package careplan

import "github.com/rpggio/careplan/internal/domain/catalog"

// Record is the care plan being authored. Each field is one section; a nil
// field means the section has never been written.
type Record struct {
	BasicInfo        *BasicInfo    `json:"basicInfo,omitempty"`
	AboutMe          *Narrative    `json:"aboutMe,omitempty"`
	CareTeam         *CareTeam     `json:"careTeam,omitempty"`
	General          *General      `json:"general,omitempty"`
	HealthConditions ConditionList `json:"healthConditions"`
	Medication       *Medication   `json:"medication,omitempty"`
	RiskAssessments  RiskList      `json:"riskAssessments"`
	PersonalCare     *PersonalCare `json:"personalCare,omitempty"`
	Dietary          *Narrative    `json:"dietary,omitempty"`
	Education        *Education    `json:"education,omitempty"`
	FamilyContacts   ContactList   `json:"familyContact"`
	Consent          *Consent      `json:"consent,omitempty"`
}

// BasicInfo identifies the person; it is pre-filled from the subject profile.
type BasicInfo struct {
	FullName        string `json:"fullName,omitempty"`
	PreferredName   string `json:"preferredName,omitempty"`
	DateOfBirth     string `json:"dateOfBirth,omitempty"`
	Address         string `json:"address,omitempty"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
}

// Narrative is a free-text section.
type Narrative struct {
	Text string `json:"text,omitempty"`
}

// ProviderType says who delivers care.
type ProviderType string

const (
	ProviderStaff    ProviderType = "staff"
	ProviderExternal ProviderType = "external"
)

// CareTeam records who provides care: assigned staff or an external provider.
type CareTeam struct {
	ProviderType     ProviderType `json:"providerType,omitempty"`
	StaffIDs         []string     `json:"staffIds"`
	ExternalProvider string       `json:"externalProvider,omitempty"`
	KeyWorker        string       `json:"keyWorker,omitempty"`
}

// General holds language, faith and communication preferences.
type General struct {
	Language      string `json:"language,omitempty"`
	Religion      string `json:"religion,omitempty"`
	Communication string `json:"communication,omitempty"`
	Interests     string `json:"interests,omitempty"`
}

// HealthCondition is one diagnosed condition.
type HealthCondition struct {
	Name  string `json:"name"`
	Since string `json:"since,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// ConditionList is the health conditions section.
type ConditionList []HealthCondition

// Medication holds notes only; medication entries live in a separate store
// and are counted through CompletionContext.
type Medication struct {
	Notes           string `json:"notes,omitempty"`
	SelfAdministers *bool  `json:"selfAdministers,omitempty"`
}

// RiskAssessment rates one area of risk.
type RiskAssessment struct {
	Area       string `json:"area"`
	Level      string `json:"level,omitempty"`
	Mitigation string `json:"mitigation,omitempty"`
}

// RiskList is the risk assessments section.
type RiskList []RiskAssessment

// PersonalCare describes the help needed with daily living.
type PersonalCare struct {
	Washing   string `json:"washing,omitempty"`
	Dressing  string `json:"dressing,omitempty"`
	Toileting string `json:"toileting,omitempty"`
	Mobility  string `json:"mobility,omitempty"`
}

// Education is the child-only schooling section.
type Education struct {
	School      string `json:"school,omitempty"`
	YearGroup   string `json:"yearGroup,omitempty"`
	SupportPlan string `json:"supportPlan,omitempty"`
}

// FamilyContact is one family member to contact.
type FamilyContact struct {
	Name                   string `json:"name"`
	Relationship           string `json:"relationship,omitempty"`
	Phone                  string `json:"phone,omitempty"`
	ParentalResponsibility bool   `json:"parentalResponsibility,omitempty"`
}

// ContactList is the child-only family contacts section.
type ContactList []FamilyContact

// Consent is the sign-off section. Given is nil until answered.
type Consent struct {
	Given    *bool  `json:"given,omitempty"`
	SignedBy string `json:"signedBy,omitempty"`
	SignedAt string `json:"signedAt,omitempty"`
}

// StaffAssignment is a staff member linked to a committed care plan.
type StaffAssignment struct {
	StaffID   string `json:"staff_id"`
	IsPrimary bool   `json:"is_primary"`
}

// SubjectProfile is the read-only view of the person the plan is for.
type SubjectProfile struct {
	ID            string           `json:"id"`
	Category      catalog.Category `json:"category"`
	FullName      string           `json:"full_name"`
	PreferredName string           `json:"preferred_name,omitempty"`
	DateOfBirth   string           `json:"date_of_birth,omitempty"`
	Address       string           `json:"address,omitempty"`
}

// CounterKind names an externally stored sub-record count.
type CounterKind string

const (
	CounterMedication CounterKind = "medication"
)

// CompletionContext carries counts that are not part of the record itself.
type CompletionContext struct {
	Counts map[CounterKind]int `json:"counts,omitempty"`
}

// Count returns the count for kind, zero when unknown.
func (c CompletionContext) Count(kind CounterKind) int {
	return c.Counts[kind]
}

// WithCount returns a copy of c with kind set to n.
func (c CompletionContext) WithCount(kind CounterKind, n int) CompletionContext {
	counts := make(map[CounterKind]int, len(c.Counts)+1)
	for k, v := range c.Counts {
		counts[k] = v
	}
	counts[kind] = n
	return CompletionContext{Counts: counts}
}
