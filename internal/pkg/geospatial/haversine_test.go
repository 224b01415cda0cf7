package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	if d := Haversine(37.5665, 126.978, 37.5665, 126.978); d != 0 {
		t.Errorf("expected 0 for identical points, got %v", d)
	}

	// Seoul City Hall to Gwanghwamun is about 670 m.
	d := Haversine(37.5665, 126.9780, 37.5725, 126.9769)
	if math.Abs(d-674) > 30 {
		t.Errorf("unexpected distance %v", d)
	}
}

func TestCell(t *testing.T) {
	a, err := Cell(37.5665, 126.9780, OriginCellResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Cell(37.56651, 126.97801, OriginCellResolution)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == "" || a != b {
		t.Errorf("expected nearby points to share a cell, got %q and %q", a, b)
	}

	if _, err := Cell(37.5, 127, 42); err == nil {
		t.Error("expected error for invalid resolution")
	}
}
