// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bucket

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPut_insertAndOverwrite(t *testing.T) {
	tbl := NewTable(4)

	require.True(t, tbl.Put(2, "name", "John"))
	require.Equal(t, 1, tbl.Len())

	// same key again is an overwrite, not an insert
	require.False(t, tbl.Put(2, "name", "Jane"))
	require.Equal(t, 1, tbl.Len())

	v, ok := tbl.Get(2, "name")
	require.True(t, ok)
	require.Equal(t, "Jane", v)
}

func TestGet_absent(t *testing.T) {
	tbl := NewTable(4)
	_, ok := tbl.Get(0, "missing")
	require.False(t, ok)
	require.False(t, tbl.Contains(0, "missing"))
}

func TestDelete_preservesOrder(t *testing.T) {
	tbl := NewTable(2)
	tbl.Put(1, "a", "1")
	tbl.Put(1, "b", "2")
	tbl.Put(1, "c", "3")

	require.True(t, tbl.Delete(1, "b"))
	require.Equal(t, 2, tbl.Len())

	require.Equal(t, []Entry{{"a", "1"}, {"c", "3"}}, tbl.Entries())

	// deleting an absent key changes nothing
	require.False(t, tbl.Delete(1, "b"))
	require.Equal(t, 2, tbl.Len())
}

func TestEntries_flattenOrder(t *testing.T) {
	tbl := NewTable(3)
	tbl.Put(2, "z", "26")
	tbl.Put(0, "a", "1")
	tbl.Put(0, "b", "2")
	tbl.Put(1, "m", "13")

	// bucket 0 first, insertion order within each bucket
	want := []Entry{{"a", "1"}, {"b", "2"}, {"m", "13"}, {"z", "26"}}
	require.Equal(t, want, tbl.Entries())
}

func TestSnapshot(t *testing.T) {
	tbl := NewTable(2)
	tbl.Put(0, "a", "1")
	tbl.Put(0, "b", "2")

	snap := tbl.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, 0, snap[0].Index)
	require.Equal(t, 2, snap[0].Count)
	require.Equal(t, 0, snap[1].Count)

	// snapshot is a copy, not a view
	snap[0].Entries[0].Value = "mutated"
	v, _ := tbl.Get(0, "a")
	require.Equal(t, "1", v)
}

func TestCheckIndex(t *testing.T) {
	tbl := NewTable(2)
	require.Panics(t, func() { tbl.Put(2, "a", "1") })
	require.Panics(t, func() { tbl.Get(-1, "a") })
}

func BenchmarkPut(b *testing.B) {
	tbl := NewTable(16)
	keys := make([]string, 256)
	for i := range keys {
		keys[i] = "key" + strconv.Itoa(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.Put(i%16, keys[i%len(keys)], "value")
	}
}
