// Package job defines the stateful representation of a graph-algorithm job
// as stored and managed by the persistence gateway.
//
// A Job is a snapshot of a row in the jobs table, augmented with the
// lifecycle fields that the Scheduler and Client I/O Server transition
// through. Job values are returned by store.Gateway operations and must be
// treated as read-only views: mutating a Job in place does not change the
// underlying row. Transitions happen exclusively through store.Gateway.
//
// # State machine
//
//	WAITING    -> RUNNING
//	RUNNING    -> {SUCCESS, FAILED, ABORTED}
//	WAITING    -> ABORTED   (pre-emptive cancel, the only skip)
//
// SUCCESS, FAILED and ABORTED are terminal: a Job in one of those states is
// never dispatched again.
package job
