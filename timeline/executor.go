// Package timeline replays control tags against depth-keyed display lists.
//
// An Executor feeds tags one at a time. ShowFrame completes a frame, at
// which point every nested timeline instance on the list advances by one of
// its own frames, in ascending depth order. Nested timelines loop: when an
// instance's cursor has run off the end of its tags it restarts at the
// first tag with an empty list. Single-frame timelines are not replayed.
package timeline

import (
	"log/slog"

	"github.com/gogpu/swf/diag"
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/library"
	"github.com/gogpu/swf/tag"
)

// MaxNesting bounds how deep timeline instances may nest. A timeline that
// places itself would otherwise grow by one level every frame.
const MaxNesting = 64

// State is the executor state after feeding a tag.
type State uint8

const (
	// Idle means the tag was applied and the frame continues.
	Idle State = iota
	// FrameComplete means the tag ended the current frame.
	FrameComplete
)

// String returns the state name.
func (s State) String() string {
	if s == FrameComplete {
		return "FrameComplete"
	}
	return "Idle"
}

// Executor applies control tags to display lists.
type Executor struct {
	Library *library.Library
	// Log receives UnresolvedReference warnings. It may be nil.
	Log *diag.Log
	// Logger receives debug records for ignored tags. It may be nil.
	Logger *slog.Logger
}

// Feed applies t to list and reports whether it completed a frame.
func (e *Executor) Feed(t tag.Tag, list *DisplayList) State {
	switch t := t.(type) {
	case *tag.ShowFrame:
		e.frameComplete(list)
		return FrameComplete
	case *tag.PlaceObject:
		e.place(t, list)
	case *tag.RemoveObject:
		list.remove(t.Depth)
	default:
		if e.Logger != nil {
			h := tag.HeaderOf(t)
			e.Logger.Debug("timeline: tag has no display effect", "code", h.Code.String(), "offset", h.Offset)
		}
	}
	return Idle
}

func (e *Executor) warn(offset int, id uint16, format string, args ...any) {
	if e.Log != nil {
		e.Log.Add(diag.UnresolvedReference, offset, id, format, args...)
	}
}

func (e *Executor) place(p *tag.PlaceObject, list *DisplayList) {
	prev, occupied := list.At(p.Depth)

	if !p.HasCharacter {
		if !p.Move {
			return
		}
		if occupied {
			apply(prev, p)
		}
		return
	}

	def, defined, ok := e.Library.LookupAt(p.CharacterID, p.Offset)
	switch {
	case !defined:
		e.warn(p.Offset, p.CharacterID, "place at depth %d: character %d is not defined", p.Depth, p.CharacterID)
		return
	case !ok:
		e.warn(p.Offset, p.CharacterID, "place at depth %d: character %d is defined after its use", p.Depth, p.CharacterID)
		return
	}

	o := &Object{
		CharacterID: p.CharacterID,
		Depth:       p.Depth,
		Matrix:      geom.Identity(),
		Color:       geom.IdentityColor(),
		BlendMode:   tag.BlendNormal,
		Visible:     true,
		Offset:      p.Offset,
	}
	if p.Move && occupied {
		o.ClipDepth = prev.ClipDepth
		o.Matrix = prev.Matrix
		o.Color = prev.Color
		o.Name = prev.Name
		o.Ratio = prev.Ratio
		o.BlendMode = prev.BlendMode
		o.Visible = prev.Visible
	}
	apply(o, p)

	if _, isTimeline := def.(*library.Timeline); isTimeline {
		if list.level+1 > MaxNesting {
			e.warn(p.Offset, p.CharacterID, "timeline %d nests deeper than %d levels; placed without children", p.CharacterID, MaxNesting)
		} else {
			o.Children = list.nested()
		}
	}
	list.set(o)
}

// apply copies the fields present in p onto o.
func apply(o *Object, p *tag.PlaceObject) {
	if p.Matrix != nil {
		o.Matrix = *p.Matrix
	}
	if p.Color != nil {
		o.Color = *p.Color
	}
	if p.ClipDepth != nil {
		o.ClipDepth = *p.ClipDepth
	}
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Ratio != nil {
		o.Ratio = *p.Ratio
	}
	if p.BlendMode != nil {
		o.BlendMode = *p.BlendMode
	}
	if p.Visible != nil {
		o.Visible = *p.Visible
	}
}

// frameComplete advances every nested timeline on list by one frame.
func (e *Executor) frameComplete(list *DisplayList) {
	for _, o := range list.Objects() {
		if o.Children != nil {
			e.advance(o)
		}
	}
}

// advance runs one frame of the nested timeline instance o.
func (e *Executor) advance(o *Object) {
	tl, ok := library.Resolve[*library.Timeline](e.Library, o.CharacterID)
	if !ok {
		return
	}
	arena := o.Children.arena
	cursor := arena.Cursor(o.ID)
	if cursor >= len(tl.Tags) {
		if countFrames(tl.Tags) <= 1 {
			// A single-frame timeline holds still; only its children play on.
			e.frameComplete(o.Children)
			return
		}
		cursor = 0
		o.Children.Clear()
	}
	for cursor < len(tl.Tags) {
		t := tl.Tags[cursor]
		cursor++
		if e.Feed(t, o.Children) == FrameComplete {
			arena.setCursor(o.ID, cursor)
			return
		}
	}
	// The tags ran out without a ShowFrame; the frame still completes.
	arena.setCursor(o.ID, cursor)
	e.frameComplete(o.Children)
}

func countFrames(tags []tag.Tag) int {
	n := 0
	for _, t := range tags {
		if _, ok := t.(*tag.ShowFrame); ok {
			n++
		}
	}
	return n
}
