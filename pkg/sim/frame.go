package sim

// Frame is an immutable snapshot of body positions produced by one tick.
type Frame struct {
	Seq       uint64
	Alpha     float64
	Positions []Position
}

// Position is one body's coordinates in a Frame.
type Position struct {
	ID string
	X  float64
	Y  float64
}

// Lookup returns the position of id in the frame.
func (f Frame) Lookup(id string) (Position, bool) {
	for _, p := range f.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// ByID indexes the frame's positions by id.
func (f Frame) ByID() map[string]Position {
	m := make(map[string]Position, len(f.Positions))
	for _, p := range f.Positions {
		m[p.ID] = p
	}
	return m
}
