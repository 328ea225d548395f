package sim

import "math"

const (
	// theta2 is the squared Barnes-Hut opening criterion (theta = 0.9).
	theta2 = 0.81
	// distanceMin2 bounds the force between very close bodies.
	distanceMin2 = 1.0
	// maxQuadDepth stops subdivision for bodies that are nearly coincident.
	maxQuadDepth = 32
)

// ManyBody applies a charge of Strength between every pair of bodies.
// Negative strength repels. Distant clusters are approximated by their
// center of charge using a Barnes-Hut quadtree.
type ManyBody struct {
	Strength float64
}

// Initialize is a no-op; the quadtree is rebuilt every tick.
func (f *ManyBody) Initialize(*Simulation) {}

// Apply accumulates charge into velocities.
func (f *ManyBody) Apply(s *Simulation, alpha float64) {
	n := s.Len()
	if n < 2 {
		return
	}
	root := buildQuadTree(s.x, s.y, f.Strength)
	for i := 0; i < n; i++ {
		root.apply(s, f.Strength, i, alpha)
	}
}

// quadNode is one square cell of the quadtree. Leaves hold the indices of the
// bodies inside them; internal nodes hold four children.
type quadNode struct {
	x0, y0, size float64

	// Aggregate charge and its weighted center.
	charge float64
	cx, cy float64

	bodies   []int
	children [4]*quadNode
	leaf     bool
}

func buildQuadTree(xs, ys []float64, strength float64) *quadNode {
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < len(xs); i++ {
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}
	size := math.Max(maxX-minX, maxY-minY)
	if size == 0 {
		size = 1
	}
	// Nudge the bounds so bodies on the max edge still fall inside.
	size *= 1 + 1e-9

	root := &quadNode{x0: minX, y0: minY, size: size, leaf: true}
	for i := range xs {
		root.insert(xs, ys, i, 0)
	}
	root.accumulate(xs, ys, strength)
	return root
}

func (q *quadNode) insert(xs, ys []float64, i, depth int) {
	if q.leaf {
		if len(q.bodies) == 0 || depth >= maxQuadDepth || q.coincident(xs, ys, i) {
			q.bodies = append(q.bodies, i)
			return
		}
		existing := q.bodies
		q.bodies = nil
		q.leaf = false
		for _, j := range existing {
			q.child(xs[j], ys[j]).insert(xs, ys, j, depth+1)
		}
	}
	q.child(xs[i], ys[i]).insert(xs, ys, i, depth+1)
}

// coincident reports whether body i sits exactly on the leaf's bodies.
func (q *quadNode) coincident(xs, ys []float64, i int) bool {
	j := q.bodies[0]
	return xs[i] == xs[j] && ys[i] == ys[j]
}

func (q *quadNode) child(x, y float64) *quadNode {
	half := q.size / 2
	k := 0
	cx, cy := q.x0, q.y0
	if x >= q.x0+half {
		k |= 1
		cx += half
	}
	if y >= q.y0+half {
		k |= 2
		cy += half
	}
	if q.children[k] == nil {
		q.children[k] = &quadNode{x0: cx, y0: cy, size: half, leaf: true}
	}
	return q.children[k]
}

// accumulate computes charge and center of charge bottom-up.
func (q *quadNode) accumulate(xs, ys []float64, strength float64) {
	var weight, sx, sy float64
	if q.leaf {
		for _, i := range q.bodies {
			w := math.Abs(strength)
			q.charge += strength
			weight += w
			sx += w * xs[i]
			sy += w * ys[i]
		}
	} else {
		for _, c := range q.children {
			if c == nil {
				continue
			}
			c.accumulate(xs, ys, strength)
			w := math.Abs(c.charge)
			q.charge += c.charge
			weight += w
			sx += w * c.cx
			sy += w * c.cy
		}
	}
	if weight > 0 {
		q.cx, q.cy = sx/weight, sy/weight
	}
}

func (q *quadNode) apply(s *Simulation, strength float64, i int, alpha float64) {
	if q.charge == 0 {
		return
	}
	x := q.cx - s.x[i]
	y := q.cy - s.y[i]
	l := x*x + y*y

	// Far enough away: treat the cell as a single charge.
	if q.size*q.size/theta2 < l {
		if l < distanceMin2 {
			l = math.Sqrt(distanceMin2 * l)
		}
		s.vx[i] += x * q.charge * alpha / l
		s.vy[i] += y * q.charge * alpha / l
		return
	}

	if !q.leaf {
		for _, c := range q.children {
			if c != nil {
				c.apply(s, strength, i, alpha)
			}
		}
		return
	}

	for _, j := range q.bodies {
		if j == i {
			continue
		}
		x := s.x[j] - s.x[i]
		y := s.y[j] - s.y[i]
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		l := x*x + y*y
		if l < distanceMin2 {
			l = math.Sqrt(distanceMin2 * l)
		}
		w := strength * alpha / l
		s.vx[i] += x * w
		s.vy[i] += y * w
	}
}
