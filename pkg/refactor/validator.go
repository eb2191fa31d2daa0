package refactor

import "fmt"

// ValidateChanges confirms that, after all mappings are accounted for, the
// only difference between the deployed and local resource sets is relocation.
//
// Any unmatched resource on either side means the change also adds, removes,
// or modifies resources, and the whole environment's plan is rejected even if
// other resources matched cleanly: partial relocation plans are never offered.
func ValidateChanges(unmatchedOld, unmatchedNew []string) error {
	if len(unmatchedOld) == 0 && len(unmatchedNew) == 0 {
		return nil
	}
	return NewUnexplainedChangeError(fmt.Sprintf(
		"a refactor must not add, remove, or update resources: %d deployed resource(s) have no local counterpart and %d local resource(s) have no deployed counterpart; run 'cdk diff' for details",
		len(unmatchedOld), len(unmatchedNew)))
}
