package timeline

import (
	"github.com/gogpu/swf/geom"
	"github.com/gogpu/swf/tag"
)

// Player drives a movie's root timeline one frame at a time.
//
// The display list returned by NextFrame is live: it is mutated by the
// next call, and objects released from it may have their IDs reused.
type Player struct {
	exec   *Executor
	tags   []tag.Tag
	cursor int
	frame  int
	root   *DisplayList

	// Background is the most recent SetBackgroundColor color, opaque
	// white until one is seen.
	Background geom.RGBA
}

// NewPlayer returns a player over the root control tags.
func NewPlayer(exec *Executor, tags []tag.Tag) *Player {
	return &Player{
		exec:       exec,
		tags:       tags,
		root:       NewDisplayList(NewArena()),
		Background: geom.White,
	}
}

// Frame is the state of the root timeline after one frame.
type Frame struct {
	Index int
	Label string
	List  *DisplayList
}

// NextFrame runs the tags of the next frame. It returns false once the
// tags are exhausted; tags after the last ShowFrame never form a frame.
func (p *Player) NextFrame() (Frame, bool) {
	var label string
	for p.cursor < len(p.tags) {
		t := p.tags[p.cursor]
		p.cursor++
		switch t := t.(type) {
		case *tag.FrameLabel:
			label = t.Name
		case *tag.SetBackgroundColor:
			p.Background = t.Color
		}
		if p.exec.Feed(t, p.root) == FrameComplete {
			f := Frame{Index: p.frame, Label: label, List: p.root}
			p.frame++
			return f, true
		}
	}
	return Frame{}, false
}

// Frames returns how many frames have been completed.
func (p *Player) Frames() int { return p.frame }
