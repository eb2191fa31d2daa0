package refactor

import "sort"

// ApplyOverrides applies the user-supplied forced pairings scoped to env,
// before automatic matching runs. Both endpoints are consumed from their
// pools, so an override deterministically resolves a pairing the digest
// matcher would otherwise report as ambiguous, and a forced pairing is honored
// verbatim even when the two digests differ.
//
// An override whose source or destination is absent from its pool is a
// configuration error naming the missing path.
func ApplyOverrides(env Environment, overrides []Override, oldPool, newPool Pool) ([]Mapping, error) {
	var forced []Mapping
	for _, o := range overrides {
		if o.Environment != env {
			continue
		}
		src, ok := oldPool[o.SourcePath]
		if !ok {
			return nil, NewConfigurationError("override source not found among deployed resources", nil).
				WithPath(o.SourcePath).WithEnvironment(env)
		}
		if _, ok := newPool[o.DestinationPath]; !ok {
			return nil, NewConfigurationError("override destination not found among local resources", nil).
				WithPath(o.DestinationPath).WithEnvironment(env)
		}
		delete(oldPool, o.SourcePath)
		delete(newPool, o.DestinationPath)
		forced = append(forced, Mapping{
			SourcePath:      o.SourcePath,
			DestinationPath: o.DestinationPath,
			Type:            src.Resource.Type,
		})
	}
	sort.Slice(forced, func(i, j int) bool {
		return forced[i].SourcePath < forced[j].SourcePath
	})
	return forced, nil
}
