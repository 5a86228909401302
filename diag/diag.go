// Package diag collects the recoverable anomalies found while decoding a
// movie. Warnings never abort a decode; they are returned next to the
// successful result.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

// Kind names a class of recoverable anomaly.
type Kind uint8

const (
	// UnknownTagCode marks a tag whose code the decoder does not parse.
	// The tag is kept as an opaque placeholder.
	UnknownTagCode Kind = iota + 1

	// UnresolvedReference marks a reference to a character that is not
	// defined, or is defined with an unusable type. The referring instance
	// is skipped.
	UnresolvedReference
)

// String returns the warning kind name.
func (k Kind) String() string {
	switch k {
	case UnknownTagCode:
		return "UnknownTagCode"
	case UnresolvedReference:
		return "UnresolvedReference"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Warning is one recoverable anomaly tied to the byte offset of the tag
// that caused it.
type Warning struct {
	Kind        Kind
	Offset      int
	CharacterID uint16
	Detail      string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at offset %d (character %d): %s", w.Kind, w.Offset, w.CharacterID, w.Detail)
}

type key struct {
	kind   Kind
	offset int
	id     uint16
}

// Log accumulates warnings in report order. A warning repeating an earlier
// kind, offset and character ID is dropped, so a nested timeline replayed
// over many frames reports a broken reference once.
//
// A Log is not safe for concurrent use; each decode owns one.
type Log struct {
	logger   *slog.Logger
	seen     map[key]struct{}
	warnings []Warning
}

// NewLog returns an empty log that also forwards new warnings to logger at
// warn level. A nil logger disables forwarding.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger, seen: make(map[key]struct{})}
}

// Add records a warning unless an identical one was already recorded.
func (l *Log) Add(kind Kind, offset int, id uint16, format string, args ...any) {
	k := key{kind, offset, id}
	if _, dup := l.seen[k]; dup {
		return
	}
	l.seen[k] = struct{}{}
	w := Warning{Kind: kind, Offset: offset, CharacterID: id, Detail: fmt.Sprintf(format, args...)}
	l.warnings = append(l.warnings, w)

	if l.logger != nil && l.logger.Enabled(context.Background(), slog.LevelWarn) {
		l.logger.Warn("swf: "+w.Detail,
			"kind", kind.String(),
			"offset", offset,
			"character", id)
	}
}

// Len returns the number of recorded warnings.
func (l *Log) Len() int { return len(l.warnings) }

// Warnings returns a copy of the recorded warnings in report order.
func (l *Log) Warnings() []Warning {
	out := make([]Warning, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// Count returns how many recorded warnings have the given kind.
func (l *Log) Count(kind Kind) int {
	n := 0
	for _, w := range l.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
