// Package classifier assigns a line type to each line of a HotSpot fatal error
// log and extracts its typed fields.
package classifier

import (
	"log/slog"

	"github.com/setevik/crashtriage/internal/event"
)

// Classify returns the type of text given the type of the line before it
// (event.TypeNone at the start of input). The result depends on nothing
// else, and every line gets exactly one type.
func Classify(text string, prev event.Type) event.Type {
	for _, d := range catalog {
		if !d.accepts(prev) {
			continue
		}
		if d.submatch(text) != nil {
			return d.Type
		}
	}
	return event.TypeUnrecognized
}

// Parse builds the typed event for raw, which was classified as t. It never
// fails: a line that does not fit any shape of t, or whose fields cannot be
// read, becomes an event.Text carrying the whole line.
func Parse(raw event.RawLine, t event.Type) (ev event.Event) {
	b := event.Base{Kind: t, Line: raw}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("field extraction failed", "type", t, "line", raw.Ordinal, "panic", r)
			ev = event.Text{Base: b, Value: raw.Text}
		}
	}()

	for _, d := range catalog {
		if d.Type != t {
			continue
		}
		if m := d.submatch(raw.Text); m != nil {
			return d.extract(b, m)
		}
	}
	return event.Text{Base: b, Value: raw.Text}
}

// Classifier classifies a stream of lines, remembering only the previous
// line's type.
type Classifier struct {
	prev    event.Type
	ordinal int
}

// New creates a Classifier positioned at the start of input.
func New() *Classifier {
	return &Classifier{}
}

// Next classifies and parses the next line of input.
func (c *Classifier) Next(text string) event.Event {
	t := Classify(text, c.prev)
	ev := Parse(event.RawLine{Ordinal: c.ordinal, Text: text}, t)
	c.prev = t
	c.ordinal++
	return ev
}

// Prev returns the type of the last line passed to Next.
func (c *Classifier) Prev() event.Type { return c.prev }
