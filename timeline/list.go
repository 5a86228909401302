package timeline

import "slices"

// DisplayList maps depths to objects. At most one object occupies a depth.
type DisplayList struct {
	arena  *Arena
	depths map[uint16]ObjectID
	level  int // nesting level, 0 for the root list
}

// NewDisplayList returns an empty root list whose objects live in arena.
func NewDisplayList(arena *Arena) *DisplayList {
	return &DisplayList{arena: arena, depths: make(map[uint16]ObjectID)}
}

func (l *DisplayList) nested() *DisplayList {
	return &DisplayList{arena: l.arena, depths: make(map[uint16]ObjectID), level: l.level + 1}
}

// Arena returns the arena holding the list's objects.
func (l *DisplayList) Arena() *Arena { return l.arena }

// Len returns the number of occupied depths.
func (l *DisplayList) Len() int { return len(l.depths) }

// At returns the object at depth.
func (l *DisplayList) At(depth uint16) (*Object, bool) {
	id, ok := l.depths[depth]
	if !ok {
		return nil, false
	}
	return l.arena.Object(id), true
}

// Depths returns the occupied depths in ascending order.
func (l *DisplayList) Depths() []uint16 {
	depths := make([]uint16, 0, len(l.depths))
	for d := range l.depths {
		depths = append(depths, d)
	}
	slices.Sort(depths)
	return depths
}

// Objects returns the objects in ascending depth order, which is back to
// front.
func (l *DisplayList) Objects() []*Object {
	depths := l.Depths()
	objs := make([]*Object, len(depths))
	for i, d := range depths {
		objs[i] = l.arena.Object(l.depths[d])
	}
	return objs
}

// set places o at its depth, releasing any object it replaces.
func (l *DisplayList) set(o *Object) {
	if old, ok := l.depths[o.Depth]; ok {
		l.arena.release(old)
	}
	l.depths[o.Depth] = l.arena.alloc(o)
}

// remove releases the object at depth. It reports whether one was there.
func (l *DisplayList) remove(depth uint16) bool {
	id, ok := l.depths[depth]
	if !ok {
		return false
	}
	delete(l.depths, depth)
	l.arena.release(id)
	return true
}

// Clear releases every object on the list.
func (l *DisplayList) Clear() {
	for d, id := range l.depths {
		delete(l.depths, d)
		l.arena.release(id)
	}
}
