// Package filesystem provides the filesystem views a recipe run works on.
//
// A run sees two trees: the working copy, read-write and scoped to its root,
// and the recipe source tree, read-only. Both are afero filesystems so the
// same operations run against the OS in production and against memory in
// tests. The package also holds the write helpers every mutating operation
// shares: atomic whole-file replacement, byte-for-byte copies and tracked
// directory creation.
package filesystem
