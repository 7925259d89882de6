// Package guard tracks which long-running tasks are in flight so that a
// second start request for the same task is rejected instead of submitted.
//
// The guard is advisory: it reflects what this client has started and not
// yet released, with no confirmation from the server and no coordination
// with other processes. Prefer Do or Acquire over TryStart/Stop pairs so the
// release happens on every exit path.
package guard
