package raster

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewBandPair_RejectsShapeMismatch(t *testing.T) {
	red := mat.NewDense(4, 4, nil)
	nir := mat.NewDense(4, 5, nil)

	if _, err := NewBandPair(red, nir); err == nil {
		t.Error("expected error for mismatched band shapes, got nil")
	}
}

func TestMask_CountAndPercent(t *testing.T) {
	m := NewMask(2, 5)
	if m.Count() != 0 {
		t.Errorf("fresh mask should be empty, got count %d", m.Count())
	}
	if m.Percent() != 0 {
		t.Errorf("fresh mask percent should be 0, got %v", m.Percent())
	}

	m.Set(0, 0, true)
	m.Set(1, 4, true)

	if m.Count() != 2 {
		t.Errorf("expected count 2, got %d", m.Count())
	}
	if got := m.Percent(); got != 20.0 {
		t.Errorf("expected 20%% set, got %v", got)
	}
	if !m.At(1, 4) || m.At(0, 1) {
		t.Error("mask indexing returned wrong pixels")
	}
}

func TestMask_FullCoverage(t *testing.T) {
	m := NewMask(3, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, true)
		}
	}
	if got := m.Percent(); got != 100.0 {
		t.Errorf("expected 100%%, got %v", got)
	}
}
