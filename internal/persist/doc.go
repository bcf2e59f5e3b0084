// Package persist reads and writes the task collection as a single JSON
// array stored under one key of a kv.Store.
//
// Load substitutes a caller-supplied fallback when the key is absent or the
// stored blob is unusable; with ThrowOnError set, an unusable blob is
// reported as *LoadError instead so the caller can surface it. Save and
// Clear never panic: failures are logged and returned as *SaveError and
// *ClearError.
//
// Records are checked one by one on load. A record that fails the task
// schema or task.Validate, or repeats an earlier id, is dropped with a
// warning rather than poisoning the whole collection.
package persist
