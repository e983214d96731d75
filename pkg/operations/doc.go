// Package operations implements the mutations a recipe can apply to its
// working copy: copying a file in, overriding an existing file, patching a
// file by inserting a range of lines, and running a command.
//
// Each operation appends one journal record once it has changed something,
// so the run can be rolled back. Sources are read from the recipe's source
// tree; everything else happens inside the working copy. Both are afero
// filesystems rooted at their directories, so all paths handled here are
// relative.
package operations
