// Package service wires the aggregation families and the health sampler
// into the two objects hosts interact with.
//
//   - Registry: explicit, injectable owner of the internal and API trees,
//     the process sampler and its probes. Producers call RecordInternal,
//     RecordAPI or Track.
//   - Coordinator: JSON reads over a Registry (GetAll, ProcessMetrics,
//     InternalMetrics, APIMetrics) with per-family read-then-clear.
//
// Families reset independently. Process health is never reset.
package service
