package indicator

import (
	"testing"

	"barfeed/internal/model"
)

func TestParabolicSAR_RisingNeverFlips(t *testing.T) {
	bars := make([]model.Bar, 30)
	for i := range bars {
		f := float64(i)
		bars[i] = model.Bar{High: 10 + f, Low: 9 + f, Close: 9.5 + f}
	}
	pts, err := ParabolicSARSeries(bars, 0.02, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != len(bars)-1 {
		t.Fatalf("len=%d, want %d", len(pts), len(bars)-1)
	}

	assertClose(t, "sar[0]", pts[0].Value, 9+0.02*(10-9), 1e-12)
	prevAF := 0.0
	for i, p := range pts {
		if !p.Long {
			t.Fatalf("bar %d flipped short on a rising series", i+1)
		}
		if p.AF < prevAF {
			t.Fatalf("bar %d: AF decreased %v -> %v", i+1, prevAF, p.AF)
		}
		if p.AF > 0.2 {
			t.Fatalf("bar %d: AF %v above max", i+1, p.AF)
		}
		if p.Value > bars[i+1].Low {
			t.Errorf("bar %d: SAR %v above low %v", i+1, p.Value, bars[i+1].Low)
		}
		prevAF = p.AF
	}
	if last := pts[len(pts)-1].AF; last != 0.2 {
		t.Errorf("AF did not settle at max: %v", last)
	}
}

func TestParabolicSAR_Flip(t *testing.T) {
	bars := []model.Bar{
		{High: 10, Low: 9},
		{High: 11, Low: 10},
		{High: 5, Low: 4},
		{High: 6, Low: 5},
	}
	pts, err := ParabolicSARSeries(bars, 0.02, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	// bar 1: 9 + .02*(10-9) = 9.02, new high → ep 11, af .04
	assertClose(t, "sar1", pts[0].Value, 9.02, 1e-12)
	assertClose(t, "af1", pts[0].AF, 0.04, 1e-12)
	// bar 2: 9.02 + .04*(11-9.02) = 9.0992, low 4 crosses → short, ep 4, sar resets to high 5
	assertClose(t, "sar2", pts[1].Value, 9.0992, 1e-12)
	if pts[1].Long || pts[1].EP != 4 || pts[1].AF != 0.02 {
		t.Errorf("bar 2 state %+v, want short ep=4 af=0.02", pts[1])
	}
	// bar 3: 5 + .02*(4-5) = 4.98, high 6 crosses → long again
	assertClose(t, "sar3", pts[2].Value, 4.98, 1e-12)
	if !pts[2].Long || pts[2].EP != 6 {
		t.Errorf("bar 3 state %+v, want long ep=6", pts[2])
	}
}

func TestParabolicSAR_StateCarriesAcrossCalls(t *testing.T) {
	bars := randomWalk(11, 50)
	series, err := ParabolicSARSeries(bars, 0.02, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewParabolicSAR(0.02, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Update(bars[0].High, bars[0].Low); ok {
		t.Fatal("seeding bar produced a point")
	}
	for i, b := range bars[1:] {
		pt, ok := s.Update(b.High, b.Low)
		if !ok || pt != series[i] {
			t.Fatalf("step %d: %+v, want %+v", i, pt, series[i])
		}
	}
	if s.Long() != series[len(series)-1].Long {
		t.Error("Long() disagrees with last point")
	}
	if got := SARValues(series); len(got) != len(series) || got[0] != series[0].Value {
		t.Errorf("SARValues projection %v", got[:1])
	}
}
