// Package refactor plans safe structural refactors of deployed stacks.
//
// # Overview
//
// Given the stacks a user intends to deploy and the state of what is
// currently deployed, the engine decides whether the difference between the
// two is purely a rename or relocation of resources -- no additions, removals,
// or property changes -- and if so produces an unambiguous mapping from each
// old resource location to its new one. It only ever plans and reports;
// executing the relocation against live infrastructure is not implemented.
//
// Each environment (account + region) is compared independently through a
// fixed pipeline:
//
//  1. GroupByEnvironment partitions both stack inventories by deployment
//     target, in a deterministic order.
//  2. BuildPool computes a converged structural digest for every resource on
//     both sides (fixed-point refinement over the intrinsic reference graph).
//  3. ApplyOverrides consumes user-asserted pairings from the pools.
//  4. Match pairs the remainder by digest equality, surfacing ambiguity
//     instead of guessing.
//  5. ValidateChanges rejects the environment's plan outright if anything
//     other than relocation remains.
//
// Every environment ends in exactly one terminal phase: PhaseValidated with
// the mapping list, PhaseAmbiguous with the unresolved digest groups, or
// PhaseRejected with the validator's error. The partition of resources into
// mapped, ambiguous, and unmatched is total and disjoint.
//
// # Safety policy
//
// The engine fails closed. Ambiguous matches are never tie-broken by
// heuristics, unexplained differences reject the whole environment's plan
// even when other resources matched cleanly, provider failures are propagated
// without retry or masking, and the entire capability is gated behind an
// explicit unstable-feature opt-in in the run Options.
package refactor
