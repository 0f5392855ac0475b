package careplan

import "slices"

// Reconcile picks the staff list to keep when the draft and the committed
// assignments disagree. The longer list wins and ties go to the draft,
// which may hold edits the committed store has not seen. The result is a
// fresh slice.
func Reconcile(draftIDs []string, assignments []StaffAssignment) []string {
	if len(assignments) > len(draftIDs) {
		ids := make([]string, 0, len(assignments))
		for _, a := range assignments {
			ids = append(ids, a.StaffID)
		}
		return ids
	}
	if draftIDs == nil {
		return []string{}
	}
	return slices.Clone(draftIDs)
}

// Assignments converts staff IDs into assignments. The first is primary.
func Assignments(ids []string) []StaffAssignment {
	out := make([]StaffAssignment, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, StaffAssignment{StaffID: id, IsPrimary: len(out) == 0})
	}
	return out
}
