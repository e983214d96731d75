// Package recipe is the host-facing side of reciper.
//
// A Context binds a source tree and a working copy to one journal and
// exposes the recipe operations as typed methods. Recipe files describe a
// sequence of those operations declaratively, and the Executor runs them
// against a Context, rolling back on failure when asked to.
package recipe
