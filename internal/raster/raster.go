// Package raster holds the pixel-grid types the monitoring pipeline works
// on: pairs of co-registered spectral bands and boolean change masks.
package raster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BandPair holds two pixel-aligned spectral band rasters of identical shape.
type BandPair struct {
	Red *mat.Dense
	NIR *mat.Dense
}

func NewBandPair(red, nir *mat.Dense) (*BandPair, error) {
	rr, rc := red.Dims()
	nr, nc := nir.Dims()
	if rr != nr || rc != nc {
		return nil, fmt.Errorf("band shapes differ: red %dx%d, nir %dx%d", rr, rc, nr, nc)
	}
	return &BandPair{Red: red, NIR: nir}, nil
}

func (b *BandPair) Dims() (rows, cols int) {
	return b.Red.Dims()
}

// Mask is a dense 2D boolean grid.
type Mask struct {
	rows, cols int
	bits       []bool
}

func NewMask(rows, cols int) *Mask {
	return &Mask{rows: rows, cols: cols, bits: make([]bool, rows*cols)}
}

func (m *Mask) Dims() (rows, cols int) { return m.rows, m.cols }

func (m *Mask) At(r, c int) bool { return m.bits[r*m.cols+c] }

func (m *Mask) Set(r, c int, v bool) { m.bits[r*m.cols+c] = v }

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Percent returns the set-pixel share of the grid in [0, 100].
func (m *Mask) Percent() float64 {
	if len(m.bits) == 0 {
		return 0
	}
	return float64(m.Count()) / float64(len(m.bits)) * 100
}
