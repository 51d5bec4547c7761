// Package packages manages the recipe tree: package discovery, the
// dependency tables, concurrent update checks, reports and patch-back.
//
// # Tables
//
// Packages live in two tables. Library packages come from the cross and
// native categories, shippable packages from spk. Building the tables
// parses every recipe once, follows DEPENDS and BUILD_DEPENDS recursively
// and records back-references (parents) in whichever table holds the
// dependency. A dependency cycle is detected with an in-progress set,
// logged and recorded in [Registry.Cycles]; no package is visited twice.
//
// The tables are cached as a [Registry] snapshot under the "packages"
// cache namespace, tagged with a run ID.
//
// # Update checks
//
// [Manager.CheckUpdates] runs one task per package on a bounded pool. A
// task owns its package end to end and has its own deadline; failures and
// panics end up in [Result.Err] and never stop sibling tasks. Candidates
// are merged into the registry only after every task has returned.
package packages
