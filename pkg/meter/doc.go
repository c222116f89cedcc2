// Package meter provides the leaf counter of every meterd aggregation tree.
//
// A Meter counts events and keeps exponentially weighted moving averages of
// the event rate over one, five and fifteen minutes. Rates are expressed in
// events per second and advance on a fixed 5 second tick. Ticks are applied
// lazily whenever the meter is marked or read, based on the elapsed time of
// an injectable clock, so no background goroutine is needed per meter.
package meter
