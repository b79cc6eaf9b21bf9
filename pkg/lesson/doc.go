/*
Package lesson defines the goal-evaluation interface between the simulator
core and lesson content.

A lesson is data: setup commands seeding the initial cluster, an image
failure table, and goals expressed as declarative conditions compiled into
pure Predicate checks. The evaluator polls the cluster snapshot after each
command or tick and never mutates it, keeping the reusable engine cleanly
separated from content.
*/
package lesson
