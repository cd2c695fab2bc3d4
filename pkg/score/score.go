package score

// Package score computes agreement diagnostics between predicted and
// reference labels for one image: a polygon Jaccard in the geographic frame
// and a raster Jaccard (IoU) in the pixel frame. The two are independent
// estimates and drift apart as simplification gets coarser, so both are
// logged per class and neither feeds back into the submission.

import (
	"fmt"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/engelsjk/polygol"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/tilevec/tilevec/pkg/mask"
	"github.com/tilevec/tilevec/pkg/vectorize"
	"gonum.org/v1/gonum/stat"
)

// Guards zero-area division
const eps = 1e-15

type ClassResult struct {
	Class          int // zero-based class index
	PolygonJaccard float64
	MaskJaccard    float64
}

// Evaluate scores the prediction for one image against its ground truth and
// logs the per-class and mean agreement. predByType holds extracted polygons
// in the geographic frame, truthWKT the reference WKT per polygon type, m the
// raw probability mask, and (xs, ys) the forward geographic->pixel scalers.
// The results are diagnostic only; nothing downstream consumes them.
func Evaluate(log logs.Log, imageID string, predByType map[int]orb.MultiPolygon, truthWKT map[int]string,
	m *mask.Prob, classes []int, threshold float32, xs, ys float64) []ClassResult {

	results := make([]ClassResult, 0, len(classes))
	polyJ := make([]float64, 0, len(classes))
	maskJ := make([]float64, 0, len(classes))
	for clsIdx, cls := range classes {
		polyType := cls + 1
		truthGeo, err := DecodeWKT(truthWKT[polyType])
		if err != nil {
			log.Warnf("%v cls-%v: bad ground truth WKT: %v", imageID, cls, err)
			continue
		}

		pj, err := PolygonJaccard(predByType[polyType], truthGeo)
		if err != nil {
			log.Warnf("%v cls-%v: polygon overlay failed: %v", imageID, cls, err)
			pj = 0
		}

		truthPix := vectorize.Rasterize(vectorize.Scale(truthGeo, xs, ys), m.W, m.H)
		tp, fp, fn := mask.TpFpFn(m.Channel(clsIdx, threshold), truthPix)
		mj := float64(tp) / (float64(tp+fp+fn) + eps)

		log.Infof("%v cls-%v, polygon jaccard: %.5f, mask jaccard: %.5f", imageID, cls, pj, mj)
		results = append(results, ClassResult{Class: cls, PolygonJaccard: pj, MaskJaccard: mj})
		polyJ = append(polyJ, pj)
		maskJ = append(maskJ, mj)
	}
	if len(results) > 0 {
		log.Infof("%v mean polygon jaccard: %.5f, mean mask jaccard: %.5f",
			imageID, stat.Mean(polyJ, nil), stat.Mean(maskJ, nil))
	}
	return results
}

// PolygonJaccard is intersection area over union area of two polygon
// collections, in whatever frame they share.
func PolygonJaccard(a, b orb.MultiPolygon) (float64, error) {
	if len(a) == 0 && len(b) == 0 {
		return 0, nil
	}
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	inter, err := polygol.Intersection(toGeom(a), toGeom(b))
	if err != nil {
		return 0, err
	}
	union, err := polygol.Union(toGeom(a), toGeom(b))
	if err != nil {
		return 0, err
	}
	return geomArea(inter) / (geomArea(union) + eps), nil
}

// DecodeWKT parses a WKT geometry into a multipolygon. POLYGON is promoted
// to a single-element collection; EMPTY decodes to an empty collection.
func DecodeWKT(s string) (orb.MultiPolygon, error) {
	if s == "" || strings.EqualFold(strings.TrimSpace(s), "MULTIPOLYGON EMPTY") {
		return orb.MultiPolygon{}, nil
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, err
	}
	switch t := g.(type) {
	case orb.MultiPolygon:
		return t, nil
	case orb.Polygon:
		return orb.MultiPolygon{t}, nil
	default:
		return nil, fmt.Errorf("geometry is %v, want polygonal", g.GeoJSONType())
	}
}

func toGeom(mp orb.MultiPolygon) [][][][]float64 {
	g := make([][][][]float64, len(mp))
	for i, poly := range mp {
		rings := make([][][]float64, len(poly))
		for j, ring := range poly {
			pts := make([][]float64, len(ring))
			for k, pt := range ring {
				pts[k] = []float64{pt[0], pt[1]}
			}
			rings[j] = pts
		}
		g[i] = rings
	}
	return g
}

// geomArea sums outer ring areas minus hole areas, ignoring ring orientation.
func geomArea(g [][][][]float64) float64 {
	total := 0.0
	for _, poly := range g {
		for j, ring := range poly {
			a := ringArea(ring)
			if j == 0 {
				total += a
			} else {
				total -= a
			}
		}
	}
	return total
}

func ringArea(ring [][]float64) float64 {
	sum := 0.0
	n := len(ring)
	for i := 0; i < n-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	a := sum / 2
	if a < 0 {
		return -a
	}
	return a
}
