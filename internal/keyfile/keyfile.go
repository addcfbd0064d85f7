// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package keyfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"
	"golang.org/x/sys/unix"

	"github.com/abdellahhioun/Cachelab/internal/bucket"
)

var errLocked = errors.New("data file is locked by another process")

// File is a handle to the store's on-disk snapshot.  One process owns
// the file for the process lifetime; Lock enforces that with an
// advisory flock on a sidecar, because two writers truncating and
// rewriting the same path would race.
type File struct {
	path     string
	logger   *slog.Logger
	lockFile *os.File
}

// New returns a File bound to path.  A nil logger discards output.
func New(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &File{
		path:   path,
		logger: logger,
	}
}

// Path returns the snapshot path this File writes to.
func (f *File) Path() string {
	return f.path
}

// Lock takes an exclusive advisory lock on the sidecar lock file,
// creating parent directories as needed.  It fails immediately
// (rather than blocking) if another process holds the lock.
func (f *File) Lock() error {
	if f.lockFile != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}
	lf, err := os.OpenFile(f.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("os.OpenFile: %w", err)
	}
	if err := unix.Flock(int(lf.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = lf.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", errLocked, f.path)
		}
		return fmt.Errorf("unix.Flock: %w", err)
	}
	f.lockFile = lf
	return nil
}

// Unlock releases the advisory lock, if held.
func (f *File) Unlock() error {
	if f.lockFile == nil {
		return nil
	}
	lf := f.lockFile
	f.lockFile = nil
	if err := unix.Flock(int(lf.Fd()), unix.LOCK_UN); err != nil {
		_ = lf.Close()
		return fmt.Errorf("unix.Flock: %w", err)
	}
	return lf.Close()
}

// Save writes the full snapshot, truncating whatever was there.  A
// failure mid-write leaves the file partially written; the in-memory
// table stays authoritative either way, so callers log and continue.
func (f *File) Save(entries []bucket.Entry) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}
	data := Encode(entries)
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}
	f.logger.Debug("snapshot saved",
		"path", f.path,
		"entries", len(entries),
		"bytes", len(data),
		"fingerprint", farm.Hash64(data))
	return nil
}

// Load reads the snapshot back.  A missing file is an empty store,
// not an error; malformed lines were never written by us and are
// skipped by Decode.
func (f *File) Load() ([]bucket.Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	entries := Decode(data)
	f.logger.Debug("snapshot loaded",
		"path", f.path,
		"entries", len(entries),
		"bytes", len(data),
		"fingerprint", farm.Hash64(data))
	return entries, nil
}

// Fingerprint returns a 64-bit identity for the snapshot a set of
// entries would encode to.  Comparing it against the logged save
// fingerprint tells an operator whether the on-disk copy is current
// without reparsing the file.
func Fingerprint(entries []bucket.Entry) uint64 {
	return farm.Hash64(Encode(entries))
}
