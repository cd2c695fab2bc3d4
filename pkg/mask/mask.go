package mask

// Package mask holds the in-memory mask representations: Prob is the
// per-pixel class probability volume produced by the segmentation model,
// and Bit is a single-channel boolean mask derived from it by thresholding.

import (
	"fmt"
)

// Prob is a probability volume of shape (H, W, C), values in [0,1].
// Channel c of pixel (x, y) lives at V[(y*W+x)*C+c].
// A Prob is immutable once written to the mask store.
type Prob struct {
	H, W, C int
	V       []float32
}

func NewProb(h, w, c int) *Prob {
	return &Prob{H: h, W: w, C: c, V: make([]float32, h*w*c)}
}

func (m *Prob) At(x, y, c int) float32 {
	return m.V[(y*m.W+x)*m.C+c]
}

func (m *Prob) Set(x, y, c int, v float32) {
	m.V[(y*m.W+x)*m.C+c] = v
}

// Channel thresholds channel c into a Bit mask. A pixel is set when its
// probability is strictly greater than threshold.
// Panics if c is out of range.
func (m *Prob) Channel(c int, threshold float32) *Bit {
	if c < 0 || c >= m.C {
		panic(fmt.Sprintf("channel %v out of range [0, %v)", c, m.C))
	}
	b := NewBit(m.H, m.W)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if m.V[(y*m.W+x)*m.C+c] > threshold {
				b.V[y*m.W+x] = 1
			}
		}
	}
	return b
}

// Bit is a single-channel boolean mask of shape (H, W).
type Bit struct {
	H, W int
	V    []uint8 // 0 or 1
}

func NewBit(h, w int) *Bit {
	return &Bit{H: h, W: w, V: make([]uint8, h*w)}
}

func (b *Bit) Get(x, y int) bool {
	return b.V[y*b.W+x] != 0
}

func (b *Bit) Set(x, y int, on bool) {
	if on {
		b.V[y*b.W+x] = 1
	} else {
		b.V[y*b.W+x] = 0
	}
}

// CountOn returns the number of set pixels.
func (b *Bit) CountOn() int {
	n := 0
	for _, v := range b.V {
		if v != 0 {
			n++
		}
	}
	return n
}

// TpFpFn counts true positives, false positives and false negatives of pred
// against truth. Panics if the shapes differ: that means the pipeline fed a
// reference mask rasterized at the wrong size, which is a bug, not data.
func TpFpFn(pred, truth *Bit) (tp, fp, fn int) {
	if pred.H != truth.H || pred.W != truth.W {
		panic(fmt.Sprintf("mask shape mismatch: pred %vx%v vs truth %vx%v", pred.W, pred.H, truth.W, truth.H))
	}
	for i := range pred.V {
		p := pred.V[i] != 0
		t := truth.V[i] != 0
		switch {
		case p && t:
			tp++
		case p && !t:
			fp++
		case !p && t:
			fn++
		}
	}
	return
}
