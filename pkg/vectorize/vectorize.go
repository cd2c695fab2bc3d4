package vectorize

// Package vectorize converts thresholded boolean masks into polygon
// collections and back. Extraction walks pixel boundaries to closed rings,
// collapses collinear runs, optionally simplifies with Douglas-Peucker, and
// nests hole rings inside their outer rings. The inverse direction fills a
// polygon collection into a boolean mask.

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
	"github.com/tilevec/tilevec/pkg/mask"
)

type Options struct {
	Epsilon float64 // Douglas-Peucker tolerance in pixels. Larger = fewer vertices, coarser polygons. 0 = no simplification.
	MinArea float64 // Drop outer rings with pixel area below this. 0 = keep everything.
}

// FromMask converts a boolean mask into a multipolygon in pixel coordinates.
// An all-zero mask yields an empty collection.
func FromMask(bm *mask.Bit, opts Options) orb.MultiPolygon {
	rings := traceRings(bm)
	for i := range rings {
		rings[i] = collapseCollinear(rings[i])
	}
	if opts.Epsilon > 0 {
		simplified := make([]orb.Ring, 0, len(rings))
		for _, r := range rings {
			s := simplify.DouglasPeucker(opts.Epsilon).Simplify(orb.LineString(r).Clone())
			ls, ok := s.(orb.LineString)
			if !ok || len(ls) < 4 {
				// Collapsed to nothing at this tolerance
				continue
			}
			simplified = append(simplified, orb.Ring(ls))
		}
		rings = simplified
	}
	return nestRings(rings, opts.MinArea)
}

// nestRings groups rings into polygons: positive-area rings are outer
// boundaries, negative-area rings are holes, assigned to the smallest outer
// ring that contains them.
func nestRings(rings []orb.Ring, minArea float64) orb.MultiPolygon {
	type outer struct {
		ring  orb.Ring
		area  float64
		holes []orb.Ring
	}
	outers := []*outer{}
	holes := []orb.Ring{}
	for _, r := range rings {
		a := signedArea(r)
		if a > 0 {
			if a < minArea {
				continue
			}
			outers = append(outers, &outer{ring: r, area: a})
		} else if a < 0 {
			holes = append(holes, r)
		}
	}
	for _, h := range holes {
		var best *outer
		for _, o := range outers {
			if planar.RingContains(o.ring, h[0]) && (best == nil || o.area < best.area) {
				best = o
			}
		}
		if best != nil {
			best.holes = append(best.holes, h)
		}
	}
	mp := orb.MultiPolygon{}
	for _, o := range outers {
		poly := orb.Polygon{o.ring}
		poly = append(poly, o.holes...)
		mp = append(mp, poly)
	}
	return mp
}

// collapseCollinear removes interior points of straight runs from a closed
// ring, treating the ring cyclically.
func collapseCollinear(r orb.Ring) orb.Ring {
	n := len(r) - 1 // drop the closing point while working
	if n < 4 {
		return r
	}
	kept := orb.Ring{}
	for i := 0; i < n; i++ {
		prev := r[(i-1+n)%n]
		cur := r[i]
		next := r[(i+1)%n]
		cross := (cur[0]-prev[0])*(next[1]-cur[1]) - (cur[1]-prev[1])*(next[0]-cur[0])
		if math.Abs(cross) > 1e-12 {
			kept = append(kept, cur)
		}
	}
	if len(kept) < 3 {
		return r
	}
	kept = append(kept, kept[0])
	return kept
}

// Scale multiplies every coordinate by (fx, fy) about the origin. Use the
// reciprocal factors to go from pixel to geographic coordinates.
func Scale(mp orb.MultiPolygon, fx, fy float64) orb.MultiPolygon {
	out := make(orb.MultiPolygon, len(mp))
	for i, poly := range mp {
		outPoly := make(orb.Polygon, len(poly))
		for j, ring := range poly {
			outRing := make(orb.Ring, len(ring))
			for k, pt := range ring {
				outRing[k] = orb.Point{pt[0] * fx, pt[1] * fy}
			}
			outPoly[j] = outRing
		}
		out[i] = outPoly
	}
	return out
}
