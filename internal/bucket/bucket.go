// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bucket implements the chained bucket array underneath the
// store.  A Table is a fixed-length slice of buckets; each bucket is
// a collision list in append order.  The Table knows nothing about
// hashing -- callers compute bucket indices and the Table trusts
// them.  There is no locking here: a Table has a single writer at a
// time, enforced one level up.
package bucket

import "fmt"

// Entry is one key/value pair.  Values are opaque strings.
type Entry struct {
	Key   string
	Value string
}

// Info describes one bucket for introspection.  Entries is a copy;
// mutating it does not touch the table.
type Info struct {
	Index   int
	Entries []Entry
	Count   int
}

// Table is a fixed-length array of collision lists.  Its length never
// changes; growing the store means building a fresh Table and
// re-inserting every entry.
type Table struct {
	buckets [][]Entry
	count   int
}

// NewTable returns an empty Table with the given number of buckets.
func NewTable(buckets int) *Table {
	if buckets <= 0 {
		panic(fmt.Errorf("invariant broken: bucket.NewTable(%d)", buckets))
	}
	return &Table{
		buckets: make([][]Entry, buckets),
	}
}

func (t *Table) checkIndex(i int) {
	if i < 0 || i >= len(t.buckets) {
		panic(fmt.Errorf("invariant broken: bucket index %d out of range [0, %d)", i, len(t.buckets)))
	}
}

// Put inserts key into bucket i, or overwrites the value in place if
// the key is already there.  It reports whether a new key was added
// (an overwrite returns false -- the distinction drives the load
// factor upstairs).
func (t *Table) Put(i int, key, value string) (added bool) {
	t.checkIndex(i)
	b := t.buckets[i]
	for j := range b {
		if b[j].Key == key {
			b[j].Value = value
			return false
		}
	}
	t.buckets[i] = append(b, Entry{Key: key, Value: value})
	t.count++
	return true
}

// Get returns the value stored for key in bucket i.
func (t *Table) Get(i int, key string) (string, bool) {
	t.checkIndex(i)
	for _, e := range t.buckets[i] {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Contains reports whether key is present in bucket i.
func (t *Table) Contains(i int, key string) bool {
	_, ok := t.Get(i, key)
	return ok
}

// Delete removes key from bucket i, preserving the relative order of
// the remaining entries.  It reports whether anything was removed.
func (t *Table) Delete(i int, key string) bool {
	t.checkIndex(i)
	b := t.buckets[i]
	for j := range b {
		if b[j].Key == key {
			t.buckets[i] = append(b[:j], b[j+1:]...)
			t.count--
			return true
		}
	}
	return false
}

// Len returns the total number of entries across all buckets.
func (t *Table) Len() int {
	return t.count
}

// NumBuckets returns the fixed bucket count.
func (t *Table) NumBuckets() int {
	return len(t.buckets)
}

// Entries returns every entry, bucket 0 first, insertion order within
// a bucket.  The same flattening feeds both listing and rehashing, so
// the order must be stable for a given table state.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.count)
	for _, b := range t.buckets {
		out = append(out, b...)
	}
	return out
}

// Snapshot returns a per-bucket copy of the table structure.
func (t *Table) Snapshot() []Info {
	out := make([]Info, len(t.buckets))
	for i, b := range t.buckets {
		entries := make([]Entry, len(b))
		copy(entries, b)
		out[i] = Info{
			Index:   i,
			Entries: entries,
			Count:   len(b),
		}
	}
	return out
}
