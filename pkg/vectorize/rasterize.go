package vectorize

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/tilevec/tilevec/pkg/mask"
)

// Rasterize fills mp into a boolean mask of the given size. Coordinates are
// in pixel space. Holes are respected via even-odd filling.
func Rasterize(mp orb.MultiPolygon, w, h int) *mask.Bit {
	bm := mask.NewBit(h, w)
	if len(mp) == 0 {
		return bm
	}
	dc := gg.NewContext(w, h)
	dc.SetFillRuleEvenOdd()
	dc.SetRGB(1, 1, 1)
	for _, poly := range mp {
		for _, ring := range poly {
			if len(ring) == 0 {
				continue
			}
			dc.NewSubPath()
			dc.MoveTo(ring[0][0], ring[0][1])
			for _, pt := range ring[1:] {
				dc.LineTo(pt[0], pt[1])
			}
			dc.ClosePath()
		}
	}
	dc.Fill()
	img := dc.Image().(*image.RGBA)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4] >= 128 {
				bm.Set(x, y, true)
			}
		}
	}
	return bm
}
