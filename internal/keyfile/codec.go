// Copyright 2026 The Cachelab Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package keyfile reads and writes the store's flat-file snapshot
// format: one `escapedKey:escapedValue` line per entry, joined by
// newlines.  The file is truncated and fully rewritten on every save;
// there is no append path and no atomic rename.
package keyfile

import (
	"strings"

	"github.com/abdellahhioun/Cachelab/internal/bucket"
)

// escape makes s safe to embed in a key or value position: literal
// colons are doubled, newlines become the two characters `\n`, and
// backslashes are doubled.  Each input character maps independently,
// so a single pass is enough.
func escape(s string) string {
	if !strings.ContainsAny(s, ":\n\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ':':
			b.WriteString("::")
		case '\n':
			b.WriteString(`\n`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescape reverses escape.  Sequences that our encoder never emits
// (a trailing lone backslash, a stray single colon) are copied
// through verbatim rather than rejected.
func unescape(s string) string {
	if !strings.ContainsAny(s, ":\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == 'n':
			b.WriteByte('\n')
			i++
		case c == '\\' && i+1 < len(s) && s[i+1] == '\\':
			b.WriteByte('\\')
			i++
		case c == ':' && i+1 < len(s) && s[i+1] == ':':
			b.WriteByte(':')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// encodeLine renders one entry as an `escapedKey:escapedValue` line
// (without the trailing newline).
func encodeLine(e bucket.Entry) string {
	return escape(e.Key) + ":" + escape(e.Value)
}

// decodeLine parses one line back into an entry.  The key/value split
// is the first unescaped colon, found by walking the line with escape
// state rather than re-scanning: `::` is a literal colon and a
// backslash consumes the character after it.
func decodeLine(line string) (bucket.Entry, bool) {
	sep := -1
	for i := 0; i < len(line); {
		switch line[i] {
		case ':':
			if i+1 < len(line) && line[i+1] == ':' {
				i += 2
				continue
			}
			sep = i
		case '\\':
			i += 2
			continue
		default:
			i++
			continue
		}
		break
	}
	if sep < 0 {
		return bucket.Entry{}, false
	}
	return bucket.Entry{
		Key:   unescape(line[:sep]),
		Value: unescape(line[sep+1:]),
	}, true
}

// Encode renders the full snapshot: entries in order, one line each,
// joined by newlines.
func Encode(entries []bucket.Entry) []byte {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(encodeLine(e))
	}
	return []byte(b.String())
}

// Decode parses a full snapshot.  Blank lines and lines with no
// unescaped colon are skipped.
func Decode(data []byte) []bucket.Entry {
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	entries := make([]bucket.Entry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		e, ok := decodeLine(line)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
