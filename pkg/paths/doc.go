// Package paths resolves recipe targets against a working copy.
//
// Targets are always relative to the working copy root. An exact target is
// returned cleaned and unchecked; a glob target ("db/migrate/*create_users.rb",
// "**/*.md") must match exactly one regular file or resolution fails with an
// AMBIGUOUS_OR_MISSING_TARGET error. Absolute targets and targets that climb
// out of the root with ".." fail with PATH_ESCAPE.
//
// # Usage
//
//	r := paths.NewResolver(workingCopyFS)
//	target, err := r.Resolve("db/migrate/*create_users.rb")
package paths
