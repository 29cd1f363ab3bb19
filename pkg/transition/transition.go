package transition

import (
	"slices"

	"github.com/agentlens/agentlens/pkg/layout"
)

// Class labels how a node participates in one visibility change.
type Class int

const (
	// Persisting nodes exist in both snapshots and glide between their own
	// previous and target positions.
	Persisting Class = iota
	// Sprouting nodes are newly visible; they emerge from their parent.
	Sprouting
	// Collapsing nodes are newly hidden; they retract into their parent.
	Collapsing
)

func (c Class) String() string {
	switch c {
	case Sprouting:
		return "sprouting"
	case Collapsing:
		return "collapsing"
	default:
		return "persisting"
	}
}

// State describes one discrete visibility change: the interpolation
// endpoints for every affected node. It is a snapshot; recompute it on each
// expand/collapse and discard it once the animation finishes. All methods
// are read-only, so a State may be sampled from any goroutine.
type State struct {
	classes map[string]Class
	from    map[string]layout.Point
	to      map[string]layout.Point
	target  map[string]bool
}

// Compute classifies every node across two visibility snapshots and
// resolves its interpolation endpoints.
//
// Sprouting nodes start at their parent's position, preferring the parent's
// new position, then its old one, then the origin; collapsing nodes end
// symmetrically. Missing lookups never fail - the fallback chain guarantees
// every id in either snapshot gets a defined (from, to) pair.
func Compute(prevPos, targetPos map[string]layout.Point, oldVisible, newVisible map[string]bool, parentOf map[string]string) *State {
	s := &State{
		classes: make(map[string]Class),
		from:    make(map[string]layout.Point),
		to:      make(map[string]layout.Point),
		target:  make(map[string]bool, len(newVisible)),
	}

	for id := range newVisible {
		s.target[id] = true
		if oldVisible[id] {
			s.classes[id] = Persisting
			from, to := endpointPair(prevPos[id], targetPos[id], prevPos, targetPos, id)
			s.from[id] = from
			s.to[id] = to
			continue
		}
		s.classes[id] = Sprouting
		s.from[id] = anchor(parentOf[id], targetPos, prevPos)
		s.to[id] = lookup(targetPos, id)
	}

	for id := range oldVisible {
		if newVisible[id] {
			continue
		}
		s.classes[id] = Collapsing
		s.from[id] = lookup(prevPos, id)
		s.to[id] = anchor(parentOf[id], targetPos, prevPos)
	}

	return s
}

// ClassOf returns the classification for an id and whether the id took part
// in this transition at all.
func (s *State) ClassOf(id string) (Class, bool) {
	c, ok := s.classes[id]
	return c, ok
}

// SproutingIDs returns the sorted ids entering the visible set.
func (s *State) SproutingIDs() []string { return s.idsOf(Sprouting) }

// CollapsingIDs returns the sorted ids leaving the visible set.
func (s *State) CollapsingIDs() []string { return s.idsOf(Collapsing) }

func (s *State) idsOf(c Class) []string {
	var ids []string
	for id, cl := range s.classes {
		if cl == c {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// PositionAt returns the node's position at progress t ∈ [0, 1].
// Interpolation is linear; easing is the caller's concern. Unknown ids sit
// at the origin.
func (s *State) PositionAt(id string, t float64) layout.Point {
	from, okF := s.from[id]
	to, okT := s.to[id]
	if !okF && !okT {
		return layout.Point{}
	}
	return lerp(from, to, clamp01(t))
}

// OpacityAt returns the node's opacity at progress t: sprouting fades in,
// collapsing fades out, persisting stays opaque.
func (s *State) OpacityAt(id string, t float64) float64 {
	t = clamp01(t)
	switch s.classes[id] {
	case Sprouting:
		return t
	case Collapsing:
		return 1 - t
	default:
		return 1
	}
}

// VisibleAt returns the ids that must still be rendered at progress t: the
// full target set, plus every collapsing id while t < 1. At t = 1 the
// caller removes collapsing nodes from its render tree; this core only
// computes the set.
func (s *State) VisibleAt(t float64) map[string]bool {
	out := make(map[string]bool, len(s.target))
	for id := range s.target {
		out[id] = true
	}
	if clamp01(t) < 1 {
		for id, c := range s.classes {
			if c == Collapsing {
				out[id] = true
			}
		}
	}
	return out
}

// endpointPair resolves a persisting node's endpoints, falling back to
// whichever single position exists when the other map lacks the id.
func endpointPair(from, to layout.Point, prevPos, targetPos map[string]layout.Point, id string) (layout.Point, layout.Point) {
	_, hasPrev := prevPos[id]
	_, hasTarget := targetPos[id]
	switch {
	case hasPrev && hasTarget:
		return from, to
	case hasTarget:
		return to, to
	case hasPrev:
		return from, from
	default:
		return layout.Point{}, layout.Point{}
	}
}

// anchor resolves the sprout origin / collapse destination: the parent's
// new position, else its old position, else the origin point.
func anchor(parent string, targetPos, prevPos map[string]layout.Point) layout.Point {
	if parent == "" {
		return layout.Point{}
	}
	if p, ok := targetPos[parent]; ok {
		return p
	}
	if p, ok := prevPos[parent]; ok {
		return p
	}
	return layout.Point{}
}

func lookup(pos map[string]layout.Point, id string) layout.Point {
	if p, ok := pos[id]; ok {
		return p
	}
	return layout.Point{}
}

func lerp(a, b layout.Point, t float64) layout.Point {
	return layout.Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
