/*
Package command is the imperative surface of the simulator: it translates
structured user commands (create, scale, patch, delete, set-image) into
desired-state mutations on a cluster snapshot.

Every operation is copy-on-write and returns either a new snapshot or a
typed error (ErrAlreadyExists, ErrNotFound, ErrInvalid) the CLI can render
without crashing the session. Commands only touch desired state; observed
state moves when the engine reconciles.
*/
package command
