// Package sim ties the command layer and the reconciliation engine together
// into a Session: one simulation's cluster snapshot, UID generator and
// failure-injection table, constructed once and passed explicitly.
package sim
