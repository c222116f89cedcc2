// Package health exposes the process health family of meterd.
//
// The Sampler reads four collaborators: a memory probe, a leak watchdog, a
// scheduler lag probe and a CPU probe. Probes sample on their own cadence
// and only publish their latest value; reading never blocks on them and
// never clears anything. A probe that is missing or not warmed up yet has
// its field omitted from the snapshot instead of being reported as zero.
//
// Leak notifications are pushed by the watchdog into a single-slot cell;
// the newest event wins and stays until replaced or the process exits.
package health
