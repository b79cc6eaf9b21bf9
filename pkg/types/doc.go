/*
Package types defines the object model for the cluster simulation.

Every object carries an ObjectMeta (name, uid, labels, owner reference,
creation/deletion ticks), a spec describing desired state, and a status
describing observed state. The diff between the two is what drives every
controller.

ClusterState is the aggregate root: one snapshot holding every collection
plus the tick counter. Snapshots are replaced wholesale each tick via
DeepCopy, so no partial mutation is ever visible to readers.

Deletion is two-phase everywhere: setting DeletionTick marks an object as
terminating and excludes it from desired-count arithmetic; physical removal
happens only once the owning controller confirms cleanup.
*/
package types
