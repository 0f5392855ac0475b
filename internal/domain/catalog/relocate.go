package catalog

// RelocateInput describes a stored step number read back from a draft.
type RelocateInput struct {
	// Step is the last step the draft recorded.
	Step int
	// Version is the catalog version the draft was written under. Zero means
	// the draft predates versioning and its shape must be inspected instead.
	Version int
	// HasSection reports whether the stored payload carries a section.
	HasSection func(SectionKey) bool
	Category   Category
}

// RelocateStep maps a stored step number onto the current catalog. Each
// insertion at or before the stored step shifts it forward, provided the
// draft was written before the insertion. The result is then checked
// against the filtered steps and falls back to the first step.
func RelocateStep(c *Catalog, in RelocateInput) int {
	active := Filter(c, in.Category)
	step := in.Step
	if step <= 0 {
		return First(active)
	}

	for _, change := range c.changes {
		if change.Position > step {
			continue
		}
		if !predates(in, change) {
			continue
		}
		step += change.Inserted
	}

	if !Contains(active, step) {
		return First(active)
	}
	return step
}

func predates(in RelocateInput, change Change) bool {
	if in.Version > 0 {
		return in.Version < change.Version
	}
	if in.HasSection == nil {
		return true
	}
	return !in.HasSection(change.Marker)
}
