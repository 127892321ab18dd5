// Package protocol implements the newline-delimited JSON line protocol
// spoken by greenhouse units: stream framing, inbound message
// classification, and outbound command encoding.
package protocol

import (
	"strings"
	"unicode"
)

// Framer splits an incrementally-arriving character stream into complete
// newline-terminated records. Partial trailing data is retained across calls.
// The framer performs no I/O and never blocks.
type Framer struct {
	pending strings.Builder
}

// Push feeds a chunk of arbitrary size (including empty) into the framer and
// returns the records completed by it. Each record is stripped of
// non-printable control characters and trimmed; records that end up empty are
// discarded.
func (f *Framer) Push(chunk string) []string {
	f.pending.WriteString(chunk)

	buffered := f.pending.String()
	var records []string
	for {
		i := strings.IndexByte(buffered, '\n')
		if i < 0 {
			break
		}
		if rec := cleanRecord(buffered[:i]); rec != "" {
			records = append(records, rec)
		}
		buffered = buffered[i+1:]
	}

	f.pending.Reset()
	f.pending.WriteString(buffered)
	return records
}

// Pending returns the size of the retained partial record.
func (f *Framer) Pending() int {
	return f.pending.Len()
}

// cleanRecord drops control characters (printable ASCII and extended
// characters are kept) and trims surrounding whitespace.
func cleanRecord(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	return strings.TrimFunc(cleaned, unicode.IsSpace)
}
