package vectorize

import (
	"github.com/paulmach/orb"
	"github.com/tilevec/tilevec/pkg/mask"
)

// Boundary tracing on the pixel lattice. Each set pixel (x,y) occupies the
// unit square [x,x+1]x[y,y+1]. We emit one directed edge per square side that
// borders an unset pixel (or the image edge), then stitch edges into closed
// rings. With the edge directions below, outer boundaries come out with
// positive shoelace area and hole boundaries negative.

type ipt struct {
	X, Y int
}

type dirEdge struct {
	a, b ipt
	used bool
}

// traceRings extracts all closed boundary rings of bm, in pixel coordinates.
func traceRings(bm *mask.Bit) []orb.Ring {
	on := func(x, y int) bool {
		return x >= 0 && x < bm.W && y >= 0 && y < bm.H && bm.Get(x, y)
	}

	// Collect directed boundary edges in scan order, for determinism.
	edges := []dirEdge{}
	outgoing := map[ipt][]int{} // vertex -> indices into edges
	add := func(a, b ipt) {
		outgoing[a] = append(outgoing[a], len(edges))
		edges = append(edges, dirEdge{a: a, b: b})
	}
	for y := 0; y < bm.H; y++ {
		for x := 0; x < bm.W; x++ {
			if !bm.Get(x, y) {
				continue
			}
			if !on(x, y-1) {
				add(ipt{x, y}, ipt{x + 1, y})
			}
			if !on(x+1, y) {
				add(ipt{x + 1, y}, ipt{x + 1, y + 1})
			}
			if !on(x, y+1) {
				add(ipt{x + 1, y + 1}, ipt{x, y + 1})
			}
			if !on(x-1, y) {
				add(ipt{x, y + 1}, ipt{x, y})
			}
		}
	}

	rings := []orb.Ring{}
	for start := range edges {
		if edges[start].used {
			continue
		}
		ring := orb.Ring{}
		cur := start
		for !edges[cur].used {
			e := &edges[cur]
			e.used = true
			ring = append(ring, orb.Point{float64(e.a.X), float64(e.a.Y)})
			cur = nextEdge(edges, outgoing, cur)
		}
		ring = append(ring, ring[0]) // close
		rings = append(rings, ring)
	}
	return rings
}

// nextEdge picks the continuation of edge cur at its end vertex. At a saddle
// vertex (two diagonally-touching pixels) there are two outgoing edges; we
// take the sharpest right turn, which keeps diagonally-touching regions as
// separate rings. The chosen edge may already be used; that is how the
// caller detects that the ring has closed.
func nextEdge(edges []dirEdge, outgoing map[ipt][]int, cur int) int {
	e := edges[cur]
	cands := outgoing[e.b]
	if len(cands) == 1 {
		return cands[0]
	}
	dinX := e.b.X - e.a.X
	dinY := e.b.Y - e.a.Y
	best := cands[0]
	bestCross := -2
	for _, c := range cands {
		doutX := edges[c].b.X - edges[c].a.X
		doutY := edges[c].b.Y - edges[c].a.Y
		cross := dinX*doutY - dinY*doutX
		if cross > bestCross {
			bestCross = cross
			best = c
		}
	}
	return best
}

// signedArea is the shoelace area of a closed ring. Positive for outer
// boundaries as traced above, negative for holes.
func signedArea(r orb.Ring) float64 {
	sum := 0.0
	for i := 0; i < len(r)-1; i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}
