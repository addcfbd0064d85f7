// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hashkey maps string keys to bucket indices.
//
// The hash is the classic 31-multiplier accumulator evaluated in
// wrapping 32-bit signed arithmetic.  The exact overflow behavior is
// load-bearing: bucket layouts are persisted and reloaded, so the
// same key must land in the same bucket on every run and on every
// platform.  Do not swap this for a faster hash.
package hashkey

import "fmt"

// Hasher computes bucket indices for a fixed bucket count.  A Hasher
// is immutable; resizing the table means constructing a new one.
type Hasher struct {
	buckets int
}

// New returns a Hasher for the given bucket count.  Counts below 1
// never occur by construction, so they are treated as a programming
// error rather than a runtime condition.
func New(buckets int) Hasher {
	if buckets <= 0 {
		panic(fmt.Errorf("invariant broken: hashkey.New(%d)", buckets))
	}
	return Hasher{buckets: buckets}
}

// Buckets returns the bucket count this Hasher was built for.
func (h Hasher) Buckets() int {
	return h.buckets
}

// Sum returns the bucket index for key: 0 <= index < Buckets().
func (h Hasher) Sum(key string) int {
	var acc int32
	for _, r := range key {
		acc = acc*31 + int32(r)
	}
	// int32(-2147483648) has no positive counterpart; widen before
	// taking the absolute value so the index stays non-negative.
	v := int64(acc)
	if v < 0 {
		v = -v
	}
	return int(v % int64(h.buckets))
}
