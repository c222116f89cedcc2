// Package cmap is a sharded concurrent map for string keys.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex, so lookups of existing keys on
// different shards never contend. LoadOrCreate builds a missing value at
// most once per key.
//
// All visits shards one at a time and is not a point-in-time view on its
// own; callers that need one must exclude writers themselves.
package cmap
