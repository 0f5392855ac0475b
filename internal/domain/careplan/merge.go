package careplan

import (
	"slices"
	"strings"
)

// MergeLoaded folds a reloaded record into the one currently held. Incoming
// values win, except that an empty list never replaces a non-empty one: a
// reload racing an autosave must not erase work.
func MergeLoaded(current, incoming Record) Record {
	out := incoming.Clone()

	if len(incoming.HealthConditions) == 0 && len(current.HealthConditions) > 0 {
		out.HealthConditions = slices.Clone(current.HealthConditions)
	}
	if len(incoming.RiskAssessments) == 0 && len(current.RiskAssessments) > 0 {
		out.RiskAssessments = slices.Clone(current.RiskAssessments)
	}
	if len(incoming.FamilyContacts) == 0 && len(current.FamilyContacts) > 0 {
		out.FamilyContacts = slices.Clone(current.FamilyContacts)
	}
	if len(incoming.StaffIDs()) == 0 && len(current.StaffIDs()) > 0 {
		if out.CareTeam == nil && current.CareTeam != nil {
			team := *current.CareTeam
			out.CareTeam = &team
		}
		out.SetStaffIDs(current.StaffIDs())
	}

	return out
}

// Prepopulate copies subject details into basic info. Values already in the
// record are kept, so repeated calls are harmless.
func Prepopulate(rec Record, p SubjectProfile) Record {
	out := rec.Clone()
	if !anySet(p.FullName, p.PreferredName, p.DateOfBirth, p.Address) {
		return out
	}
	if out.BasicInfo == nil {
		out.BasicInfo = &BasicInfo{}
	}
	fillEmpty(&out.BasicInfo.FullName, p.FullName)
	fillEmpty(&out.BasicInfo.PreferredName, p.PreferredName)
	fillEmpty(&out.BasicInfo.DateOfBirth, p.DateOfBirth)
	fillEmpty(&out.BasicInfo.Address, p.Address)
	return out
}

func fillEmpty(dst *string, value string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = value
	}
}
