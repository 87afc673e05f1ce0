// Package async tracks long-running declaration tasks: creation when a
// request is accepted, completion or removal later, and client-facing
// task views in between.
//
// Task records persist across process restarts through a pluggable Store
// (in-memory for tests, bbolt on devices). A record that is still
// pending when it is loaded back from storage belonged to a run that
// died, so the next mutating call marks it cancelled. Reads never mutate
// or persist anything.
package async
