// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hashkey

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum_pinned(t *testing.T) {
	// These literals pin the exact 31-multiplier arithmetic,
	// including two's-complement wraparound and the widen-then-abs
	// step.  If any of them change, persisted layouts from older
	// runs will reload into the wrong buckets.
	h16 := New(16)
	for _, tc := range []struct {
		key  string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"name", 11},
		{"age", 15},
		{"city", 11},
		{"user1_name", 4},
		{"user1_phone", 5},
		{"abcdefghijklmnop", 8}, // accumulator wraps negative here
		{"the quick brown fox jumps over the lazy dog", 13},
	} {
		require.Equal(t, tc.want, h16.Sum(tc.key), "Sum(%q)", tc.key)
	}

	h32 := New(32)
	require.Equal(t, 11, h32.Sum("name"))
	require.Equal(t, 31, h32.Sum("age"))
	require.Equal(t, 24, h32.Sum("abcdefghijklmnop"))
}

func TestSum_deterministic(t *testing.T) {
	h := New(16)
	for i := 0; i < 1000; i++ {
		key := "key" + strconv.Itoa(i)
		first := h.Sum(key)
		for j := 0; j < 3; j++ {
			if got := h.Sum(key); got != first {
				t.Fatalf("Sum(%q): got %d on repeat call; want %d", key, got, first)
			}
		}
	}
}

func TestSum_inRange(t *testing.T) {
	for _, buckets := range []int{1, 16, 32, 1024} {
		h := New(buckets)
		for i := 0; i < 5000; i++ {
			key := strconv.Itoa(i)
			idx := h.Sum(key)
			if idx < 0 || idx >= buckets {
				t.Fatalf("Sum(%q) = %d out of range [0, %d)", key, idx, buckets)
			}
		}
	}
}

func TestNew_badBucketCount(t *testing.T) {
	require.Panics(t, func() { New(0) })
	require.Panics(t, func() { New(-4) })
}

func BenchmarkSum(b *testing.B) {
	h := New(16)
	for i := 0; i < b.N; i++ {
		h.Sum("user1_phone")
	}
}
