package careplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rpggio/careplan/internal/domain/catalog"
)

// Section is implemented by every section type. Complete reports whether
// the section counts towards progress.
type Section interface {
	Complete(ctx CompletionContext) bool
}

func (b *BasicInfo) Complete(CompletionContext) bool {
	if b == nil {
		return false
	}
	return anySet(b.FullName, b.PreferredName, b.DateOfBirth, b.Address, b.ReferenceNumber)
}

func (n *Narrative) Complete(CompletionContext) bool {
	return n != nil && strings.TrimSpace(n.Text) != ""
}

func (t *CareTeam) Complete(CompletionContext) bool {
	return ProviderAssigned(t)
}

func (g *General) Complete(CompletionContext) bool {
	if g == nil {
		return false
	}
	return anySet(g.Language, g.Religion, g.Communication, g.Interests)
}

func (l ConditionList) Complete(CompletionContext) bool {
	return len(l) > 0
}

// Complete ignores the in-memory notes: medication is counted externally.
func (m *Medication) Complete(ctx CompletionContext) bool {
	return ctx.Count(CounterMedication) > 0
}

func (l RiskList) Complete(CompletionContext) bool {
	return len(l) > 0
}

func (p *PersonalCare) Complete(CompletionContext) bool {
	if p == nil {
		return false
	}
	return anySet(p.Washing, p.Dressing, p.Toileting, p.Mobility)
}

func (e *Education) Complete(CompletionContext) bool {
	if e == nil {
		return false
	}
	return anySet(e.School, e.YearGroup, e.SupportPlan)
}

func (l ContactList) Complete(CompletionContext) bool {
	return len(l) > 0
}

func (c *Consent) Complete(CompletionContext) bool {
	return c != nil && c.Given != nil
}

// ProviderAssigned reports whether the care team names someone to deliver
// care: a provider name for external provision, staff otherwise.
func ProviderAssigned(t *CareTeam) bool {
	if t == nil {
		return false
	}
	if t.ProviderType == ProviderExternal {
		return strings.TrimSpace(t.ExternalProvider) != ""
	}
	return len(t.StaffIDs) > 0
}

// Section returns the section edited by a step.
func (r *Record) Section(key catalog.SectionKey) (Section, bool) {
	switch key {
	case catalog.SectionBasicInfo:
		return r.BasicInfo, true
	case catalog.SectionAboutMe:
		return r.AboutMe, true
	case catalog.SectionCareTeam:
		return r.CareTeam, true
	case catalog.SectionGeneral:
		return r.General, true
	case catalog.SectionHealthConditions:
		return r.HealthConditions, true
	case catalog.SectionMedication:
		return r.Medication, true
	case catalog.SectionRiskAssessments:
		return r.RiskAssessments, true
	case catalog.SectionPersonalCare:
		return r.PersonalCare, true
	case catalog.SectionDietary:
		return r.Dietary, true
	case catalog.SectionEducation:
		return r.Education, true
	case catalog.SectionFamilyContact:
		return r.FamilyContacts, true
	case catalog.SectionConsent:
		return r.Consent, true
	default:
		return nil, false
	}
}

// HasSection reports whether a section has ever been written.
func (r *Record) HasSection(key catalog.SectionKey) bool {
	switch key {
	case catalog.SectionBasicInfo:
		return r.BasicInfo != nil
	case catalog.SectionAboutMe:
		return r.AboutMe != nil
	case catalog.SectionCareTeam:
		return r.CareTeam != nil
	case catalog.SectionGeneral:
		return r.General != nil
	case catalog.SectionHealthConditions:
		return r.HealthConditions != nil
	case catalog.SectionMedication:
		return r.Medication != nil
	case catalog.SectionRiskAssessments:
		return r.RiskAssessments != nil
	case catalog.SectionPersonalCare:
		return r.PersonalCare != nil
	case catalog.SectionDietary:
		return r.Dietary != nil
	case catalog.SectionEducation:
		return r.Education != nil
	case catalog.SectionFamilyContact:
		return r.FamilyContacts != nil
	case catalog.SectionConsent:
		return r.Consent != nil
	default:
		return false
	}
}

// SetSectionJSON replaces one section with a JSON value. A JSON null clears
// the section.
func (r *Record) SetSectionJSON(key catalog.SectionKey, data []byte) error {
	switch key {
	case catalog.SectionBasicInfo:
		return decodeSection(data, &r.BasicInfo)
	case catalog.SectionAboutMe:
		return decodeSection(data, &r.AboutMe)
	case catalog.SectionCareTeam:
		return decodeSection(data, &r.CareTeam)
	case catalog.SectionGeneral:
		return decodeSection(data, &r.General)
	case catalog.SectionHealthConditions:
		return decodeSection(data, &r.HealthConditions)
	case catalog.SectionMedication:
		return decodeSection(data, &r.Medication)
	case catalog.SectionRiskAssessments:
		return decodeSection(data, &r.RiskAssessments)
	case catalog.SectionPersonalCare:
		return decodeSection(data, &r.PersonalCare)
	case catalog.SectionDietary:
		return decodeSection(data, &r.Dietary)
	case catalog.SectionEducation:
		return decodeSection(data, &r.Education)
	case catalog.SectionFamilyContact:
		return decodeSection(data, &r.FamilyContacts)
	case catalog.SectionConsent:
		return decodeSection(data, &r.Consent)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
}

func decodeSection[T any](data []byte, dst *T) error {
	var v T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSection, err)
	}
	*dst = v
	return nil
}

// StaffIDs returns the assigned staff, nil when there is no care team.
func (r Record) StaffIDs() []string {
	if r.CareTeam == nil {
		return nil
	}
	return r.CareTeam.StaffIDs
}

// SetStaffIDs replaces the assigned staff, creating a staff care team when
// none exists yet.
func (r *Record) SetStaffIDs(ids []string) {
	if r.CareTeam == nil {
		if len(ids) == 0 {
			return
		}
		r.CareTeam = &CareTeam{ProviderType: ProviderStaff}
	}
	r.CareTeam.StaffIDs = slices.Clone(ids)
}

// Clone returns a deep copy that preserves nil versus empty sections.
func (r Record) Clone() Record {
	out := Record{
		BasicInfo:        clonePtr(r.BasicInfo),
		AboutMe:          clonePtr(r.AboutMe),
		General:          clonePtr(r.General),
		HealthConditions: slices.Clone(r.HealthConditions),
		RiskAssessments:  slices.Clone(r.RiskAssessments),
		PersonalCare:     clonePtr(r.PersonalCare),
		Dietary:          clonePtr(r.Dietary),
		Education:        clonePtr(r.Education),
		FamilyContacts:   slices.Clone(r.FamilyContacts),
	}
	if r.CareTeam != nil {
		team := *r.CareTeam
		team.StaffIDs = slices.Clone(r.CareTeam.StaffIDs)
		out.CareTeam = &team
	}
	if r.Medication != nil {
		med := *r.Medication
		med.SelfAdministers = clonePtr(r.Medication.SelfAdministers)
		out.Medication = &med
	}
	if r.Consent != nil {
		consent := *r.Consent
		consent.Given = clonePtr(r.Consent.Given)
		out.Consent = &consent
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func anySet(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
