/*
Package events defines the simulator's event vocabulary and the per-tick
Recorder controllers emit through.

Every controller action that changes cluster-visible state emits an event:
Normal for expected transitions, Warning for failure-mode entries. The feed
is append-only and lives on the cluster state, mirroring how a learner would
diagnose problems with a real events feed.
*/
package events
