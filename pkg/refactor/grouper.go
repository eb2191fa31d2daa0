package refactor

// EnvironmentStacks owns one environment's slice of the comparison: the
// deployed stacks and the local stacks that target it.
type EnvironmentStacks struct {
	Environment Environment
	OldStacks   []Stack
	NewStacks   []Stack
}

// GroupByEnvironment partitions the deployed and local stack inventories into
// independent comparison units by deployment target.
//
// The returned order is deterministic for the same input and fixes the order
// in which results are reported: targets in first-seen order of the old
// inventory, followed by targets that appear only in the new inventory. A
// target present on only one side is compared against an empty counterpart,
// which subsequently fails validation unless that side is empty too.
func GroupByEnvironment(oldStacks, newStacks []Stack) []EnvironmentStacks {
	index := make(map[Environment]int)
	var groups []EnvironmentStacks

	group := func(env Environment) *EnvironmentStacks {
		if i, ok := index[env]; ok {
			return &groups[i]
		}
		index[env] = len(groups)
		groups = append(groups, EnvironmentStacks{Environment: env})
		return &groups[len(groups)-1]
	}

	for _, s := range oldStacks {
		g := group(s.Environment)
		g.OldStacks = append(g.OldStacks, s)
	}
	for _, s := range newStacks {
		g := group(s.Environment)
		g.NewStacks = append(g.NewStacks, s)
	}
	return groups
}
