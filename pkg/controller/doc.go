/*
Package controller implements the reconcile loops that drive the simulated
cluster toward its desired state.

Each controller diffs the spec of the objects it owns against the pods and
replica sets observed in the working snapshot and mutates the snapshot to
close the gap, emitting a SimEvent for every cluster-visible change. The
engine composes them in a fixed order each tick:

	Deployment -> ReplicaSet -> StatefulSet -> PodPhase -> Endpoints -> Status

so desired-state changes flow top-down through the ownership graph within a
single tick while pod phase transitions always lag creation by one tick. The
status pass runs last so workload statuses reflect the pods observed at the
end of the tick, after phase transitions.
Controllers are pure functions of the snapshot plus the injected Context
(uid generator, failure table, event recorder); nothing here is goroutine
driven, the engine is advanced only by explicit user ticks.
*/
package controller
