// Package probe implements the process sensors behind the health sampler.
//
//   - memory.go: Go heap figures plus resident set size from procfs
//   - cpu.go: CPU utilisation from the utime+stime delta in /proc/self/stat
//   - lag.go: scheduling lag measured as timer overshoot, the Go analogue
//     of an event-loop lag probe
//   - leak.go: heap watchdog raising a leak event when the live heap grows
//     across several consecutive GC cycles
//
// Every probe runs its own loop through Run(ctx) and publishes only its
// latest reading; readers never block on a probe.
package probe
