package refactor

import "sort"

// MatchResult is the outcome of one automatic matching pass over an
// environment's pools. Every resource path lands in at most one of the four
// buckets; resources whose digest and path are identical on both sides are
// unchanged and appear in none of them.
type MatchResult struct {
	// Mappings are the confident one-to-one relocations, ordered by source
	// path.
	Mappings []Mapping

	// AmbiguousGroups are digest clusters with two or more members on at
	// least one side. No heuristic tie-break is ever applied: a wrong guess
	// applied to live infrastructure is a correctness hazard, so ambiguity is
	// surfaced and only an explicit override resolves it.
	AmbiguousGroups []AmbiguousGroup

	// UnmatchedOld are deployed resource paths whose digest has no local
	// counterpart (candidate removals).
	UnmatchedOld []string

	// UnmatchedNew are local resource paths whose digest has no deployed
	// counterpart (candidate additions).
	UnmatchedNew []string
}

// Match matches the old pool against the new pool by converged digest
// equality.
func Match(oldPool, newPool Pool) MatchResult {
	oldByDigest := groupByDigest(oldPool)
	newByDigest := groupByDigest(newPool)

	var res MatchResult
	for dg, oldPaths := range oldByDigest {
		newPaths, ok := newByDigest[dg]
		if !ok {
			res.UnmatchedOld = append(res.UnmatchedOld, oldPaths...)
			continue
		}
		if len(oldPaths) == 1 && len(newPaths) == 1 {
			if oldPaths[0] == newPaths[0] {
				// Same digest, same path: unchanged resource, excluded from
				// the comparison entirely.
				continue
			}
			res.Mappings = append(res.Mappings, Mapping{
				SourcePath:      oldPaths[0],
				DestinationPath: newPaths[0],
				Type:            oldPool[oldPaths[0]].Resource.Type,
			})
			continue
		}
		res.AmbiguousGroups = append(res.AmbiguousGroups, AmbiguousGroup{
			SourcePaths:      oldPaths,
			DestinationPaths: newPaths,
		})
	}
	for dg, newPaths := range newByDigest {
		if _, ok := oldByDigest[dg]; !ok {
			res.UnmatchedNew = append(res.UnmatchedNew, newPaths...)
		}
	}

	sort.Slice(res.Mappings, func(i, j int) bool {
		return res.Mappings[i].SourcePath < res.Mappings[j].SourcePath
	})
	sort.Slice(res.AmbiguousGroups, func(i, j int) bool {
		return res.AmbiguousGroups[i].SourcePaths[0] < res.AmbiguousGroups[j].SourcePaths[0]
	})
	sort.Strings(res.UnmatchedOld)
	sort.Strings(res.UnmatchedNew)
	return res
}

// groupByDigest inverts a pool into digest clusters with sorted member paths.
func groupByDigest(pool Pool) map[Digest][]string {
	groups := make(map[Digest][]string)
	for path, dr := range pool {
		groups[dr.Digest] = append(groups[dr.Digest], path)
	}
	for _, paths := range groups {
		sort.Strings(paths)
	}
	return groups
}
