// Package aggregate implements the keyed meter trees of meterd.
//
// A Tree maps (source, dimension, value) to a meter.Meter. Every recorded
// event marks the global "all" meter of its source plus exactly one meter
// per secondary dimension.
//
// The tree keeps its meters in a generation. Producers share a read lock on
// the current generation while they mark meters. A snapshot takes the write
// lock just long enough to capture every count, so it never observes a
// half-applied event, and builds the readings after releasing it. A
// resetting snapshot swaps in an empty generation under that same lock and
// then reads the retired one, which no producer can reach anymore. After a
// reset the tree is absent, not zeroed, until the next event arrives.
// Snapshots and resets of one tree never run concurrently.
//
// InternalFamily and APIFamily bind a Tree to the dimensions of the two
// accumulated metric families.
package aggregate
