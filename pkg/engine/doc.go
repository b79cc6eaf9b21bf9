/*
Package engine composes the controllers into the reconciliation loop.

The simulation is turn-based: nothing runs in the background, a tick happens
only when Reconcile is called. Each tick copies the prior snapshot, runs the
controllers in dependency order, flushes the emitted events into the
append-only audit log and asserts the structural invariants (stateful-set
ordinal contiguity, resolvable owner references) before handing the new
snapshot back.
*/
package engine
