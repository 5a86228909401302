package timeline

import (
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/tag"
)

// ObjectID indexes an Object in its Arena.
type ObjectID int

// Object is a character instance placed on a display list.
type Object struct {
	ID          ObjectID
	CharacterID uint16
	Depth       uint16
	// ClipDepth is non-zero for a mask; it masks siblings with depths
	// above Depth and up to ClipDepth.
	ClipDepth uint16
	Matrix    geom.Matrix
	Color     geom.ColorTransform
	Name      string
	Ratio     uint16
	BlendMode tag.BlendMode
	Visible   bool
	// Offset is the byte offset of the tag that placed the object.
	Offset int
	// Children is the nested display list of a timeline character, nil
	// for bitmaps and shapes.
	Children *DisplayList
}

// Arena owns every Object of one movie. Display lists refer to objects by
// ID, and the play position of each nested timeline lives in a cursor map
// keyed by the instance's ID rather than in the object graph.
//
// IDs of released objects are reused.
type Arena struct {
	objects []*Object
	free    []ObjectID
	cursors map[ObjectID]int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{cursors: make(map[ObjectID]int)}
}

// alloc stores o and returns its ID.
func (a *Arena) alloc(o *Object) ObjectID {
	var id ObjectID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
		a.objects[id] = o
	} else {
		id = ObjectID(len(a.objects))
		a.objects = append(a.objects, o)
	}
	o.ID = id
	return id
}

// release frees id together with everything on its nested list.
func (a *Arena) release(id ObjectID) {
	o := a.objects[id]
	if o == nil {
		return
	}
	if o.Children != nil {
		o.Children.Clear()
	}
	a.objects[id] = nil
	delete(a.cursors, id)
	a.free = append(a.free, id)
}

// Object returns the live object with the given ID, or nil.
func (a *Arena) Object(id ObjectID) *Object {
	if id < 0 || int(id) >= len(a.objects) {
		return nil
	}
	return a.objects[id]
}

// Len returns the number of live objects.
func (a *Arena) Len() int { return len(a.objects) - len(a.free) }

// Cursor returns the index of the next control tag the nested timeline
// instance id will execute.
func (a *Arena) Cursor(id ObjectID) int { return a.cursors[id] }

func (a *Arena) setCursor(id ObjectID, cursor int) { a.cursors[id] = cursor }
