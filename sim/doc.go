// Package sim provides the discrete-event kernel that fleetsim models run on.
//
// # Reading Guide
//
//   - simulator.go: the virtual clock, Simulator.After, Simulator.Settle and
//     Simulator.RunUntil
//   - event.go: Timer and the event heap (time, then ordinary before settle,
//     then scheduling order)
//   - signal.go, resource.go, store.go: the blocking primitives processes
//     synchronize through
//   - monitor.go: time-stamped observation logs and their summaries
//   - rng.go: per-subsystem deterministic random streams
//
// # Process model
//
// A process is a chain of callbacks. Wherever a process would suspend (a
// timed hold, a broadcast wait, a buffer get or put, a resource request) it
// hands its continuation to the kernel, which invokes it when the condition
// is met. Only one callback runs at a time and callbacks due at the same
// instant run in the order they were scheduled, so a run is a pure function
// of its configuration and seed. Settle callbacks close an instant: a
// Resource dispatches in one, so every claim made at that instant competes
// by priority.
//
// Sub-packages:
//   - sim/fleet/: the storage-fleet reliability and replenishment model
//   - sim/trace/: optional trace of model decisions
package sim
