package catalog

// Filter returns the steps active for a category, in catalog order.
// Conditional steps are kept only when the category unlocks their tag.
func Filter(c *Catalog, category Category) []Step {
	active := make([]Step, 0, len(c.steps))
	for _, step := range c.steps {
		if category.Unlocks(step.Tag) {
			active = append(active, step)
		}
	}
	return active
}

// IndexOf returns the position of a step ID in steps, or -1.
func IndexOf(steps []Step, id int) int {
	for i, step := range steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether steps includes id.
func Contains(steps []Step, id int) bool {
	return IndexOf(steps, id) >= 0
}

// First returns the ID of the first step, or 0 when steps is empty.
func First(steps []Step) int {
	if len(steps) == 0 {
		return 0
	}
	return steps[0].ID
}

// IsLast reports whether id is the final step by position.
func IsLast(steps []Step, id int) bool {
	return len(steps) > 0 && steps[len(steps)-1].ID == id
}
