// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package cachelab implements an in-memory key-value store with
// bucketed hashing, load-factor-driven capacity doubling, and
// write-through persistence to a flat file.
//
// Every mutation rewrites the whole snapshot on disk.  Disk failures
// are logged and swallowed: the in-memory table stays authoritative
// for the life of the process, and the on-disk copy is best effort.
package cachelab

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/abdellahhioun/Cachelab/internal/bucket"
	"github.com/abdellahhioun/Cachelab/internal/hashkey"
	"github.com/abdellahhioun/Cachelab/internal/keyfile"
)

const (
	initialBuckets      = 16
	loadFactorThreshold = 0.75
)

// Entry is one key/value pair.  Values are opaque strings.
type Entry struct {
	Key   string
	Value string
}

// BucketInfo describes one bucket of the table.
type BucketInfo struct {
	Index   int
	Entries []Entry
	Count   int
}

// BucketView is a point-in-time copy of the table structure.
type BucketView struct {
	TotalBuckets   int
	TotalItems     int
	Buckets        []BucketInfo
	ItemsPerBucket map[int]int
}

// LoadFactorInfo reports the table's fill state.  It is a pure
// report; computing it never triggers a resize.
type LoadFactorInfo struct {
	Entries            int
	Buckets            int
	LoadFactor         float64
	Threshold          float64
	ResizeOnNextInsert bool
}

// StatsInfo summarizes the store for operators.  Fingerprint is the
// 64-bit identity of the snapshot the current table encodes to; it
// matches the fingerprint logged by the last save iff the on-disk
// copy is current.
type StatsInfo struct {
	Entries     int
	Buckets     int
	LoadFactor  float64
	Fingerprint uint64
	Path        string
}

// Option configures a Store at Open time.
type Option func(*storeOptions)

type storeOptions struct {
	logger         *slog.Logger
	initialBuckets int
	noLock         bool
}

// WithLogger sets an optional logger for resize and persistence
// events.  If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *storeOptions) {
		opts.logger = logger
	}
}

// WithInitialBuckets overrides the starting bucket count.  The value
// is rounded up to a power of two, floor 16.  Mostly useful in tests
// that want to hit the resize path quickly.
func WithInitialBuckets(n int) Option {
	return func(opts *storeOptions) {
		opts.initialBuckets = roundUpPow2(n)
	}
}

// WithNoLock skips the advisory file lock.  Only safe for read-only
// inspection of a snapshot another process owns.
func WithNoLock() Option {
	return func(opts *storeOptions) {
		opts.noLock = true
	}
}

// Store is the single entry point callers use.  It owns the hasher,
// the bucket table, and the snapshot file, and serializes all access
// through one mutex -- the engine underneath assumes a single writer.
type Store struct {
	mu     sync.Mutex
	hasher hashkey.Hasher
	table  *bucket.Table
	file   *keyfile.File
	logger *slog.Logger
	noLock bool
}

// Open creates a Store backed by the snapshot file at path, creating
// the file's directory as needed.  Persisted entries are replayed
// through the normal insert path (so the capacity ends up wherever
// live inserts would have left it) without flushing back to disk.
// Open fails if another process holds the file.
func Open(path string, opts ...Option) (*Store, error) {
	options := storeOptions{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		initialBuckets: initialBuckets,
	}
	for _, opt := range opts {
		opt(&options)
	}

	file := keyfile.New(path, options.logger)
	if !options.noLock {
		if err := file.Lock(); err != nil {
			return nil, fmt.Errorf("keyfile.Lock: %w", err)
		}
	}

	s := &Store{
		hasher: hashkey.New(options.initialBuckets),
		table:  bucket.NewTable(options.initialBuckets),
		file:   file,
		logger: options.logger,
		noLock: options.noLock,
	}

	entries, err := file.Load()
	if err != nil {
		// unreadable snapshot means no prior data, not a dead store
		s.logger.Error("snapshot unreadable, starting empty", "path", path, "err", err)
	}
	for _, e := range entries {
		s.insert(e.Key, e.Value)
	}
	return s, nil
}

// Close releases the advisory file lock.  The snapshot was already
// flushed by the last mutation; Close does not write.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Unlock()
}

// insert adds or overwrites without flushing, growing the table if a
// new key pushed the load factor over the threshold.
func (s *Store) insert(key, value string) (added bool) {
	added = s.table.Put(s.hasher.Sum(key), key, value)
	if added && s.loadFactor() > loadFactorThreshold {
		s.grow()
	}
	return added
}

func (s *Store) loadFactor() float64 {
	return float64(s.table.Len()) / float64(s.table.NumBuckets())
}

// grow doubles the bucket count, rebuilding the hasher and table
// wholesale and re-inserting every entry.  Entries move buckets here:
// hashing is capacity-dependent.  The old table is dropped, never
// mutated in place.
func (s *Store) grow() {
	old := s.table.Entries()
	buckets := s.table.NumBuckets() * 2

	s.hasher = hashkey.New(buckets)
	s.table = bucket.NewTable(buckets)
	for _, e := range old {
		s.table.Put(s.hasher.Sum(e.Key), e.Key, e.Value)
	}
	s.logger.Debug("table resized", "buckets", buckets, "entries", len(old))
}

// flush writes the whole table to disk.  Failure is logged, not
// returned: callers are never failed because disk I/O failed, the
// in-memory table remains authoritative.
func (s *Store) flush() {
	if err := s.file.Save(s.table.Entries()); err != nil {
		s.logger.Error("snapshot save failed, continuing from memory",
			"path", s.file.Path(), "err", err)
	}
}

// Set stores value under key.  An existing key is overwritten in
// place and never counts toward the load factor; a new key may
// trigger a resize.  Either way the snapshot is flushed.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(key, value)
	s.flush()
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Get(s.hasher.Sum(key), key)
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Contains(s.hasher.Sum(key), key)
}

// Update overwrites the value of an existing key.  It reports false
// and has no side effects if the key is absent.
func (s *Store) Update(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.hasher.Sum(key)
	if !s.table.Contains(idx, key) {
		return false
	}
	s.table.Put(idx, key, value)
	s.flush()
	return true
}

// Delete removes key if present and reports whether it did.  The
// bucket count never shrinks, no matter how much is deleted.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.table.Delete(s.hasher.Sum(key), key) {
		return false
	}
	s.flush()
	return true
}

// Keys returns every key, bucket order, as a fresh copy.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.table.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// All returns every entry, bucket order, as a fresh copy.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toEntries(s.table.Entries())
}

// BucketFor returns the bucket index key hashes to under the current
// capacity, whether or not the key is present.  It is exactly the
// index Set would use.
func (s *Store) BucketFor(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasher.Sum(key)
}

// KeysWithPrefix returns the keys that start with prefix.
func (s *Store) KeysWithPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, e := range s.table.Entries() {
		if strings.HasPrefix(e.Key, prefix) {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// UserData aggregates the fields stored under prefix: every key of
// the form prefix + "_" + field contributes field -> value.  Keys
// that don't match exactly (including the bare prefix itself) are
// excluded.
func (s *Store) UserData(prefix string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := prefix + "_"
	out := make(map[string]string)
	for _, e := range s.table.Entries() {
		if strings.HasPrefix(e.Key, p) {
			out[e.Key[len(p):]] = e.Value
		}
	}
	return out
}

// Buckets returns a copy of the full table structure for
// visualization.
func (s *Store) Buckets() BucketView {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.table.Snapshot()
	view := BucketView{
		TotalBuckets:   s.table.NumBuckets(),
		TotalItems:     s.table.Len(),
		Buckets:        make([]BucketInfo, len(snap)),
		ItemsPerBucket: make(map[int]int, len(snap)),
	}
	for i, b := range snap {
		view.Buckets[i] = BucketInfo{
			Index:   b.Index,
			Entries: toEntries(b.Entries),
			Count:   b.Count,
		}
		view.ItemsPerBucket[b.Index] = b.Count
	}
	return view
}

// LoadFactorInfo reports the current fill state and whether the next
// insert of a new key would trigger a resize.
func (s *Store) LoadFactorInfo() LoadFactorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.table.Len()
	buckets := s.table.NumBuckets()
	return LoadFactorInfo{
		Entries:            entries,
		Buckets:            buckets,
		LoadFactor:         float64(entries) / float64(buckets),
		Threshold:          loadFactorThreshold,
		ResizeOnNextInsert: float64(entries+1)/float64(buckets) > loadFactorThreshold,
	}
}

// Stats summarizes the store for operators.
func (s *Store) Stats() StatsInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.table.Entries()
	return StatsInfo{
		Entries:     len(entries),
		Buckets:     s.table.NumBuckets(),
		LoadFactor:  s.loadFactor(),
		Fingerprint: keyfile.Fingerprint(entries),
		Path:        s.file.Path(),
	}
}

func toEntries(in []bucket.Entry) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		out[i] = Entry{Key: e.Key, Value: e.Value}
	}
	return out
}
