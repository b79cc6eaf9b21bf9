// Package storage persists session checkpoints between CLI invocations
// using BoltDB. Records are JSON-encoded in a single sessions bucket; the
// simulator core itself is purely in-memory.
package storage
