// Package ndvi derives the normalized difference vegetation index from
// red/near-infrared band pairs and classifies pixel-level change between
// two acquisitions.
package ndvi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/andreeap/go-forest-watch/internal/raster"
)

// epsilon keeps the NDVI denominator nonzero when both bands read zero.
const epsilon = 1e-10

// DefaultThreshold is the per-pixel NDVI delta beyond which a pixel counts
// as changed.
const DefaultThreshold = 0.3

// ComputeIndex returns (nir-red)/(nir+red+epsilon) per pixel. The output
// has the shape of the input bands and every value is finite, including
// where both bands are exactly zero.
func ComputeIndex(b *raster.BandPair) *mat.Dense {
	rows, cols := b.Dims()
	out := mat.NewDense(rows, cols, nil)
	red := b.Red.RawMatrix()
	nir := b.NIR.RawMatrix()
	dst := out.RawMatrix()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rv := red.Data[r*red.Stride+c]
			nv := nir.Data[r*nir.Stride+c]
			dst.Data[r*dst.Stride+c] = (nv - rv) / (nv + rv + epsilon)
		}
	}
	return out
}

// ChangeResult carries the two change masks and their area shares.
// The masks are disjoint by construction: a pixel's delta cannot be both
// below -threshold and above +threshold.
type ChangeResult struct {
	Deforestation        *raster.Mask
	Reforestation        *raster.Mask
	PercentDeforestation float64
	PercentReforestation float64
}

// DetectChange compares two index rasters pixel-wise. A negative delta
// beyond the threshold is deforestation, a positive one reforestation.
// Mismatched shapes are a programming error and panic.
func DetectChange(before, after *mat.Dense, threshold float64) ChangeResult {
	br, bc := before.Dims()
	ar, ac := after.Dims()
	if br != ar || bc != ac {
		panic(fmt.Sprintf("ndvi: index shapes differ: %dx%d vs %dx%d", br, bc, ar, ac))
	}

	defo := raster.NewMask(br, bc)
	refo := raster.NewMask(br, bc)
	for r := 0; r < br; r++ {
		for c := 0; c < bc; c++ {
			delta := after.At(r, c) - before.At(r, c)
			switch {
			case delta < -threshold:
				defo.Set(r, c, true)
			case delta > threshold:
				refo.Set(r, c, true)
			}
		}
	}

	return ChangeResult{
		Deforestation:        defo,
		Reforestation:        refo,
		PercentDeforestation: defo.Percent(),
		PercentReforestation: refo.Percent(),
	}
}
