// Package journal records the mutations a recipe run performs on its working
// copy so they can be compensated later.
//
// Every successful mutating operation appends exactly one Record. Records are
// kept in insertion order; the rollback engine drains them and undoes them
// last-to-first. A Journal belongs to a single run and is not safe for
// concurrent use.
package journal
