// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cachelab

// roundUpPow2 rounds n up to the next power of two, floor 16 -- the
// bucket count starts at 16 and only ever doubles, so every legal
// capacity has this shape.
func roundUpPow2(n int) int {
	p := initialBuckets
	for p < n {
		p *= 2
	}
	return p
}

type stringSet map[string]struct{}

func (set stringSet) Contains(s string) bool {
	_, ok := set[s]
	return ok
}

func (set stringSet) Add(s string) {
	set[s] = struct{}{}
}
