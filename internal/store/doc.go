// Package store owns the in-memory task collection.
//
// A Store starts in the loading phase and runs one load through a
// persistence adapter. It moves to ready once the load has finished and a
// minimum loading duration has elapsed, measured from the start of the load.
// A failed load leaves the default tasks in place together with an error
// message; the board stays usable while the message is shown.
//
// Mutations update memory synchronously and return immediately. Persistence
// happens on a background saver goroutine that always writes the newest
// collection, so a burst of mutations results in one consolidated save.
// Flush waits for the saver to catch up.
//
// Observers registered with Subscribe receive a State snapshot after every
// change. Snapshots are delivered outside the store lock and may arrive out of
// order when mutations race; compare Revision to drop stale ones.
package store
